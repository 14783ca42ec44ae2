package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bastionzero/rsaforge/internal/digestinfo"
	"github.com/bastionzero/rsaforge/rsaengine"
)

func verifyCmd() *cobra.Command {
	var pubIn string
	var hashName string
	var sigIn string

	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify a file's digest against a PKCS#1 v1.5 signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			algo, err := parseHashAlgo(hashName)
			if err != nil {
				return err
			}
			digest, err := digestFile(args[0], algo)
			if err != nil {
				return fmt.Errorf("hashing %s: %w", args[0], err)
			}

			sig, err := os.ReadFile(sigIn)
			if err != nil {
				return fmt.Errorf("reading %s: %w", sigIn, err)
			}
			pem, err := os.ReadFile(pubIn)
			if err != nil {
				return fmt.Errorf("reading %s: %w", pubIn, err)
			}

			e := rsaengine.New()
			defer e.Close()
			if err := e.LoadPublicPEM(string(pem)); err != nil {
				return fmt.Errorf("loading %s: %w", pubIn, err)
			}

			oid, recovered, err := e.Verify(sig)
			if err != nil {
				return fmt.Errorf("signature does not verify: %w", err)
			}
			wantOID, _ := digestinfo.OID(algo)
			if oid != wantOID || !bytes.Equal(recovered, digest) {
				return fmt.Errorf("signature verifies structurally but does not match %s's digest", args[0])
			}
			fmt.Println("signature OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&pubIn, "public-in", "rsa_key.pub", "path to the PEM public key")
	cmd.Flags().StringVar(&hashName, "hash", "sha256", "digest algorithm the signature should use")
	cmd.Flags().StringVar(&sigIn, "sig-in", "signature.bin", "path to the raw signature bytes")
	return cmd
}
