package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"conduit/internal/app"
	"conduit/internal/domain"
	"conduit/internal/prompt"
)

func serveCmd() *cobra.Command {
	var (
		approval    string
		timeout     time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the desktop daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("approval") {
				wire.Config.Approval = approval
			}
			if cmd.Flags().Changed("approval-timeout") {
				wire.Config.ApprovalTimeout = timeout
			}
			if cmd.Flags().Changed("metrics-addr") {
				wire.Config.MetricsAddr = metricsAddr
			}
			if err := wire.Config.Validate(); err != nil {
				return err
			}

			approver, err := prompt.ForPolicy(wire.Config.Approval)
			if err != nil {
				return fmt.Errorf("approval policy %q: %w", wire.Config.Approval, err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := app.New(wire, approver)
			a.OnReady = func(reg domain.Registration, fingerprint string) {
				fmt.Printf("Pairing code: %s\nKey fingerprint: %s\n", reg.Code, fingerprint)
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&approval, "approval", "", "pairing approval policy: prompt|allow|deny")
	cmd.Flags().DurationVar(&timeout, "approval-timeout", 0, "reject pairing offers not answered in time (0 waits forever)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}
