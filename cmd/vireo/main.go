package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vireo",
		Short: "Scope and lifetime core for fine-grained reactive Go",
		Long: `Vireo is the ownership, identity, and disposal core of a
fine-grained reactive runtime: scope trees, stable node handles,
cascading disposal, and hydration-key handoff between runs.

This CLI hosts development utilities; the library itself lives in
pkg/vireo and pkg/features/resource.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		demoCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
