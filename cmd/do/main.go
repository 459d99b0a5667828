package main

import (
	"os"

	"github.com/proovit/proovit/cmd/do/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "do",
		Short:        "Operations tools for proovit",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.UserCmd())
	rootCmd.AddCommand(cmd.ReconcileCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
