package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"conduit/internal/observability"
	"conduit/internal/relay"
)

func main() {
	var (
		addr      string
		logLevel  string
		logFormat string
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "In-memory development relay for conduit",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := observability.InitLogger("relay", observability.LogConfig{Level: logLevel, Format: logFormat})

			mux := http.NewServeMux()
			mux.Handle("/", relay.NewServer(log))
			mux.Handle("GET /metrics", observability.Handler())
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.Info().Str("addr", addr).Msg("relay listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "trace|debug|info|warn|error|disabled")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "console|json")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
