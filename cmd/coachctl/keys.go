// AngelaMos | 2026
// keys.go

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coachforge/platform/internal/auth"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage token signing keys",
	}

	var (
		privatePath string
		publicPath  string
		overwrite   bool
	)

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a new ES256 key pair as PEM files",
		Long: `Write a new P-256 key pair for signing access tokens.

The api service needs both files. The gamification service only needs the
public key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !overwrite {
				for _, p := range []string{privatePath, publicPath} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists, pass --overwrite to replace it", p)
					} else if !errors.Is(err, os.ErrNotExist) {
						return err
					}
				}
			}

			if err := auth.GenerateKeyPair(privatePath, publicPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", privatePath, publicPath)
			return nil
		},
	}
	generate.Flags().StringVar(&privatePath, "private", "keys/private.pem", "private key output path")
	generate.Flags().StringVar(&publicPath, "public", "keys/public.pem", "public key output path")
	generate.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing key files")

	cmd.AddCommand(generate)
	return cmd
}
