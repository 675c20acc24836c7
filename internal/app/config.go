package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"conduit/internal/prompt"
)

// Version is reported to mobile clients in HandshakeComplete. Overridden at link time.
var Version = "1.0.0"

// Environment overrides.
const (
	EnvHome     = "CONDUIT_HOME"
	EnvRelayURL = "CONDUIT_RELAY_URL"
	EnvLockfile = "CONDUIT_LOCKFILE"
)

const (
	defaultRelayURL    = "http://127.0.0.1:8080"
	defaultEventBuffer = 256
	configFileName     = "config.toml"
)

// Config holds runtime options for the daemon and the admin commands.
type Config struct {
	Home             string        // state directory, e.g. $HOME/.conduit
	RelayURL         string        // relay base URL, e.g. https://relay.example
	Lockfile         string        // game client lockfile path
	PrivateKey       string        // optional PEM file used instead of the key in Home
	KeyPassphraseEnv string        // env var holding the key passphrase, if sealed
	Approval         string        // prompt | allow | deny
	ApprovalTimeout  time.Duration // zero waits forever
	EventBuffer      int           // per-session local API event buffer
	MetricsAddr      string        // serve /metrics here when set
	LogLevel         string
	LogFormat        string
	HostName         string
	Version          string
}

type fileConfig struct {
	Home             string `toml:"home"`
	RelayURL         string `toml:"relay_url"`
	Lockfile         string `toml:"lockfile"`
	PrivateKey       string `toml:"private_key"`
	KeyPassphraseEnv string `toml:"key_passphrase_env"`
	Approval         string `toml:"approval"`
	ApprovalTimeout  string `toml:"approval_timeout"`
	EventBuffer      int    `toml:"event_buffer"`
	MetricsAddr      string `toml:"metrics_addr"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
	HostName         string `toml:"host_name"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	host, _ := os.Hostname()
	return Config{
		Home:        DefaultHome(),
		RelayURL:    defaultRelayURL,
		Lockfile:    defaultLockfile(runtime.GOOS),
		Approval:    prompt.PolicyPrompt,
		EventBuffer: defaultEventBuffer,
		LogLevel:    "info",
		LogFormat:   "console",
		HostName:    host,
		Version:     Version,
	}
}

// DefaultHome is $HOME/.conduit, or .conduit when no home directory is known.
func DefaultHome() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".conduit"
	}
	return filepath.Join(dir, ".conduit")
}

// DefaultConfigPath is the config file inside home.
func DefaultConfigPath(home string) string {
	return filepath.Join(home, configFileName)
}

func defaultLockfile(goos string) string {
	switch goos {
	case "windows":
		return `C:\Riot Games\League of Legends\lockfile`
	case "darwin":
		return "/Applications/League of Legends.app/Contents/LoL/lockfile"
	default:
		return ""
	}
}

// LoadConfig overlays the TOML file at path onto cfg. A missing file leaves cfg unchanged.
func LoadConfig(path string, cfg Config) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("home") {
		cfg.Home = strings.TrimSpace(raw.Home)
	}
	if meta.IsDefined("relay_url") {
		cfg.RelayURL = strings.TrimSpace(raw.RelayURL)
	}
	if meta.IsDefined("lockfile") {
		cfg.Lockfile = strings.TrimSpace(raw.Lockfile)
	}
	if meta.IsDefined("private_key") {
		cfg.PrivateKey = strings.TrimSpace(raw.PrivateKey)
	}
	if meta.IsDefined("key_passphrase_env") {
		cfg.KeyPassphraseEnv = strings.TrimSpace(raw.KeyPassphraseEnv)
	}
	if meta.IsDefined("approval") {
		cfg.Approval = strings.ToLower(strings.TrimSpace(raw.Approval))
	}
	if meta.IsDefined("approval_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ApprovalTimeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse approval_timeout: %w", err)
		}
		cfg.ApprovalTimeout = d
	}
	if meta.IsDefined("event_buffer") {
		cfg.EventBuffer = raw.EventBuffer
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("host_name") {
		cfg.HostName = strings.TrimSpace(raw.HostName)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from the environment. Empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvHome)); v != "" {
		c.Home = v
	}
	if v := strings.TrimSpace(getenv(EnvRelayURL)); v != "" {
		c.RelayURL = v
	}
	if v := strings.TrimSpace(getenv(EnvLockfile)); v != "" {
		c.Lockfile = v
	}
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	if c.Home == "" {
		return errors.New("config: home is empty")
	}
	if c.RelayURL == "" {
		return errors.New("config: relay_url is empty")
	}
	u, err := url.Parse(c.RelayURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("config: relay_url %q is not an absolute URL", c.RelayURL)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("config: relay_url scheme %q, want http or https", u.Scheme)
	}
	switch c.Approval {
	case prompt.PolicyPrompt, prompt.PolicyAllow, prompt.PolicyDeny:
	default:
		return fmt.Errorf("config: unknown approval policy %q", c.Approval)
	}
	if c.ApprovalTimeout < 0 {
		return fmt.Errorf("config: approval_timeout %s is negative", c.ApprovalTimeout)
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("config: event_buffer must be positive, got %d", c.EventBuffer)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Passphrase reads the key passphrase from the configured environment variable.
func (c Config) Passphrase(getenv func(string) string) string {
	if c.KeyPassphraseEnv == "" {
		return ""
	}
	return getenv(c.KeyPassphraseEnv)
}
