package main

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	"github.com/bastionzero/rsaforge/internal/digestinfo"
	"github.com/bastionzero/rsaforge/rsaengine"
)

func newHasher(algo digestinfo.HashAlgo) (hash.Hash, error) {
	switch algo {
	case digestinfo.MD5:
		return md5.New(), nil
	case digestinfo.SHA1:
		return sha1.New(), nil
	case digestinfo.SHA256:
		return sha256.New(), nil
	case digestinfo.SHA384:
		return sha512.New384(), nil
	case digestinfo.SHA512:
		return sha512.New(), nil
	case digestinfo.SHA512_256:
		return sha512.New512_256(), nil
	case digestinfo.SHA3_256:
		return sha3.New256(), nil
	case digestinfo.SHA3_512:
		return sha3.New512(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %d", algo)
	}
}

func digestFile(path string, algo digestinfo.HashAlgo) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := newHasher(algo)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return h.Sum(nil), nil
}

func signCmd() *cobra.Command {
	var privIn string
	var hashName string
	var sigOut string

	cmd := &cobra.Command{
		Use:   "sign <file>",
		Short: "Sign a file's digest with a PKCS#1 v1.5 signature",
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

			pem, err := os.ReadFile(privIn)
			if err != nil {
				return fmt.Errorf("reading %s: %w", privIn, err)
			}
			e := rsaengine.New()
			defer e.Close()
			if err := e.LoadPrivatePEM(string(pem)); err != nil {
				return fmt.Errorf("loading %s: %w", privIn, err)
			}

			sig, err := e.Sign(digest, algo)
			if err != nil {
				return fmt.Errorf("signing: %w", err)
			}
			if err := os.WriteFile(sigOut, sig, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", sigOut, err)
			}
			fmt.Printf("wrote %s\n", sigOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&privIn, "private-in", "rsa_key", "path to the PEM private key")
	cmd.Flags().StringVar(&hashName, "hash", "sha256", "digest algorithm: md5, sha1, sha256, sha384, sha512, sha512-256, sha3-256, sha3-512")
	cmd.Flags().StringVar(&sigOut, "sig-out", "signature.bin", "path to write the raw signature bytes")
	return cmd
}
