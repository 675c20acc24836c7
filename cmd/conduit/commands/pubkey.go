package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"conduit/internal/app"
	"conduit/internal/crypto"
)

func pubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey",
		Short: "Print the public key and its fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := wire.PrivateKey()
			if err != nil {
				return err
			}
			pem, err := app.PublicKeyPEM(key)
			if err != nil {
				return err
			}
			fp, err := crypto.PublicKeyFingerprint(&key.PublicKey)
			if err != nil {
				return err
			}
			fmt.Print(string(pem))
			fmt.Printf("Fingerprint: %s\n", fp)
			return nil
		},
	}
}
