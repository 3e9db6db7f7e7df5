package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mudctl",
		Short:         "Operator tools for the mud world store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("db", "mud.db", "path to the durable sqlite store")

	rootCmd.AddCommand(
		seedCmd(),
		renderCmd(),
		hashCmd(),
	)
	return rootCmd
}
