package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"conduit/internal/crypto"
	"conduit/internal/prompt"
	"conduit/internal/util/memzero"
)

func keygenCmd() *cobra.Command {
	var (
		bits  int
		force bool
		seal  bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the desktop key pair and store it securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Keys.HasKey() && !force {
				return errors.New("a key already exists; use --force to replace it (paired devices will need to pair again)")
			}

			passphrase := wire.Config.Passphrase(os.Getenv)
			if seal && passphrase == "" {
				p, err := prompt.ReadPassphrase("Key passphrase", true)
				if err != nil {
					return err
				}
				passphrase = string(p)
				memzero.Zero(p)
			}

			key, err := crypto.GenerateKey(bits)
			if err != nil {
				return err
			}
			pem, err := crypto.EncodePrivateKeyPEM(key)
			if err != nil {
				return err
			}
			defer memzero.Zero(pem)
			if err := wire.Keys.SavePrivateKeyPEM(passphrase, pem); err != nil {
				return err
			}

			fp, err := crypto.PublicKeyFingerprint(&key.PublicKey)
			if err != nil {
				return err
			}
			state := "unsealed"
			if passphrase != "" {
				state = "sealed"
			}
			fmt.Printf("Key created (%d bits, %s).\nFingerprint: %s\n", bits, state, fp)
			return nil
		},
	}
	cmd.Flags().IntVar(&bits, "bits", crypto.DefaultKeyBits, "RSA key size")
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing key")
	cmd.Flags().BoolVar(&seal, "seal", false, "seal the key with a passphrase (prompted unless key_passphrase_env is set)")
	return cmd
}
