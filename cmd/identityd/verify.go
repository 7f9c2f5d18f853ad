package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/keys"
)

// NewVerifyCmd creates the verify subcommand.
func NewVerifyCmd() *cobra.Command {
	var publicKey string

	cmd := &cobra.Command{
		Use:   "verify TOKEN",
		Short: "Verify a token against a public key",
		Long: `Verify an identity token offline, the way a downstream service does.
--public-key takes the base64 export served at /api/auth/public-key, or
@path to read it from a file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exported, err := readPublicKey(publicKey)
			if err != nil {
				return err
			}
			pub, err := keys.DecodePublicKey(exported)
			if err != nil {
				return err
			}

			claims, err := jwt.Verify(strings.TrimSpace(args[0]), pub, time.Now())
			if err != nil {
				return fmt.Errorf("token rejected (%s): %w", jwt.Reason(err), err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}

	cmd.Flags().StringVar(&publicKey, "public-key", "", "base64 public key, or @file")
	return cmd
}

func readPublicKey(value string) (string, error) {
	if value == "" {
		return "", errors.New("--public-key is required")
	}
	path, isFile := strings.CutPrefix(value, "@")
	if !isFile {
		return value, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read public key: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
