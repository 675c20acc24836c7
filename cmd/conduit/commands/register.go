package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"conduit/internal/app"
)

func registerCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register the public key with the relay and print the pairing code",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := wire.PrivateKey()
			if err != nil {
				return err
			}
			pem, err := app.PublicKeyPEM(key)
			if err != nil {
				return err
			}
			reg, err := wire.EnsureRegistration(cmd.Context(), pem, force)
			if err != nil {
				return err
			}
			fmt.Printf("Relay: %s\nPairing code: %s\n", reg.RelayURL, reg.Code)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "register again even if a registration is cached")
	return cmd
}
