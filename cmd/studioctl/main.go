package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nwhitfield/site-studio/cmd/studioctl/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "studioctl",
		Short: "Operator CLI for the site studio",
		Long:  "CLI tool for publishing content, inspecting the audit log, and working the intake board from a terminal",
	}

	rootCmd.PersistentFlags().BoolVarP(&commands.Verbose, "verbose", "v", false, "log publisher activity to the console")

	rootCmd.AddCommand(commands.NewPublishCmd())
	rootCmd.AddCommand(commands.NewLogsCmd())
	rootCmd.AddCommand(commands.NewCaptureCmd())
	rootCmd.AddCommand(commands.NewTriageCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
