package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bastionzero/rsaforge/rsaengine"
)

func checkCmd() *cobra.Command {
	var privIn string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify a private key's internal FIPS 186-4 consistency relations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pem, err := os.ReadFile(privIn)
			if err != nil {
				return fmt.Errorf("reading %s: %w", privIn, err)
			}

			e := rsaengine.New()
			defer e.Close()
			if err := e.LoadPrivatePEM(string(pem)); err != nil {
				return fmt.Errorf("loading %s: %w", privIn, err)
			}

			if !e.CheckPrivateKey() {
				return fmt.Errorf("%s failed its consistency check", privIn)
			}
			fmt.Printf("%s is consistent\n", privIn)
			return nil
		},
	}

	cmd.Flags().StringVar(&privIn, "private-in", "rsa_key", "path to the PEM private key to check")
	return cmd
}
