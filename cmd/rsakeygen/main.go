// Command rsakeygen drives rsaengine from the shell: generate a key pair,
// check a private key's internal consistency, or sign/verify a digest,
// writing/reading PEM on disk.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rsakeygen:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsakeygen",
		Short: "Generate, inspect, and use RSA keys built on a from-scratch BigInt engine",
	}
	cmd.AddCommand(genCmd())
	cmd.AddCommand(checkCmd())
	cmd.AddCommand(signCmd())
	cmd.AddCommand(verifyCmd())
	return cmd
}
