package main

import (
	"os"

	"github.com/spf13/cobra"
)

var workingDir string

var rootCmd = &cobra.Command{
	Use:   "hornetd",
	Short: "A medium-interaction SSH honeypot",
	Long: `hornetd accepts SSH connections, authenticates attackers against a
loose credential map, presents an emulated interactive shell backed by a
virtualized fleet of hosts, and records every command to durable
storage.`,
}

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	rootCmd.PersistentFlags().StringVar(&workingDir, "dir", cwd,
		"working directory holding config.json, the host key, vhosts/, and the audit database")
}
