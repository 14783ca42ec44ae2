package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bastionzero/rsaforge/prime"
	"github.com/bastionzero/rsaforge/rsaengine"
)

func genCmd() *cobra.Command {
	var bits int
	var iterations int
	var deadline time.Duration
	var coverageName string
	var privOut string
	var pubOut string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a fresh RSA key pair and write it out as PEM",
		RunE: func(cmd *cobra.Command, args []string) error {
			coverage, err := parseCoverage(coverageName)
			if err != nil {
				return err
			}

			e := rsaengine.New()
			defer e.Close()

			if err := e.Generate(bits, coverage, iterations, deadline); err != nil {
				return fmt.Errorf("generating key: %w", err)
			}

			privPEM, err := e.SavePrivatePEM()
			if err != nil {
				return fmt.Errorf("encoding private key: %w", err)
			}
			if err := os.WriteFile(privOut, []byte(privPEM), 0600); err != nil {
				return fmt.Errorf("writing %s: %w", privOut, err)
			}

			pubPEM, err := e.SavePublicPEM()
			if err != nil {
				return fmt.Errorf("encoding public key: %w", err)
			}
			if err := os.WriteFile(pubOut, []byte(pubPEM), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", pubOut, err)
			}

			fmt.Printf("wrote %s and %s (%d-bit)\n", privOut, pubOut, bits)
			return nil
		},
	}

	cmd.Flags().IntVar(&bits, "bits", 2048, "modulus bit length (512/1024/2048/3072/4096/7680)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "Miller-Rabin iterations (0 defers to the FIPS minimum for primes of --bits/2 bits)")
	cmd.Flags().DurationVar(&deadline, "deadline", 30*time.Second, "maximum time to spend searching for primes")
	cmd.Flags().StringVar(&coverageName, "sieve-coverage", "most", "trial-division sieve coverage before Miller-Rabin: fast, most, or all")
	cmd.Flags().StringVar(&privOut, "private-out", "rsa_key", "path to write the PEM private key")
	cmd.Flags().StringVar(&pubOut, "public-out", "rsa_key.pub", "path to write the PEM public key")
	return cmd
}

func parseCoverage(name string) (prime.Coverage, error) {
	switch name {
	case "fast":
		return prime.Fast, nil
	case "most":
		return prime.Most, nil
	case "all":
		return prime.All, nil
	default:
		return 0, fmt.Errorf("unrecognized sieve coverage %q (want fast, most, or all)", name)
	}
}
