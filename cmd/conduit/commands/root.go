package commands

import (
	"os"

	"github.com/spf13/cobra"

	"conduit/internal/app"
	"conduit/internal/observability"
)

var (
	home       string
	configPath string
	relayURL   string
	lockfile   string
	logLevel   string
	logFormat  string

	cfg  app.Config
	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:           "conduit",
		Short:         "Bridge a mobile companion to the local game client over an encrypted relay",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger := observability.InitLogger("conduit", observability.LogConfig{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
			})
			wire, err = app.NewWire(cfg, logger)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&home, "home", "", "state dir (default ~/.conduit)")
	pf.StringVar(&configPath, "config", "", "config file (default <home>/config.toml)")
	pf.StringVar(&relayURL, "relay", "", "relay base URL (e.g. https://relay.example)")
	pf.StringVar(&lockfile, "lockfile", "", "game client lockfile path")
	pf.StringVar(&logLevel, "log-level", "", "trace|debug|info|warn|error|disabled")
	pf.StringVar(&logFormat, "log-format", "", "console|json")

	root.AddCommand(serveCmd(), keygenCmd(), pubkeyCmd(), registerCmd(), devicesCmd())
	return root.Execute()
}

// resolveConfig layers defaults, the config file, the environment and flags.
func resolveConfig(cmd *cobra.Command) (app.Config, error) {
	c := app.DefaultConfig()
	if v := os.Getenv(app.EnvHome); v != "" {
		c.Home = v
	}
	if home != "" {
		c.Home = home
	}

	path := configPath
	if path == "" {
		path = app.DefaultConfigPath(c.Home)
	}
	c, err := app.LoadConfig(path, c)
	if err != nil {
		return app.Config{}, err
	}
	c.ApplyEnv(os.Getenv)

	flags := cmd.Flags()
	if flags.Changed("home") {
		c.Home = home
	}
	if flags.Changed("relay") {
		c.RelayURL = relayURL
	}
	if flags.Changed("lockfile") {
		c.Lockfile = lockfile
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		c.LogFormat = logFormat
	}
	return c, c.Validate()
}
