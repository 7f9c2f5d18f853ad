package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goIdentity/keys"
)

// NewKeygenCmd creates the keygen subcommand.
func NewKeygenCmd() *cobra.Command {
	var (
		out  string
		bits int
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key",
		Long:  `Generate an RSA private key for token signing and write it as PKCS#8 PEM (mode 0600). The public key export and key ID are printed to stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return errors.New("--out is required")
			}

			kp, err := keys.Generate(bits)
			if err != nil {
				return err
			}
			if err := keys.WritePrivateKeyPEM(out, kp); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "kid: %s\n", kp.KeyID())
			fmt.Fprintf(w, "public key: %s\n", kp.PublicKeyExport())
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "private key output path (must not exist)")
	cmd.Flags().IntVar(&bits, "bits", keys.DefaultBits, "RSA modulus size")
	return cmd
}
