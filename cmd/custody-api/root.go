package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "custody-api",
	Short: "Forensic evidence acquisition and chain-of-custody service",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
}
