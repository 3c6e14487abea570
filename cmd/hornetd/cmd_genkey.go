package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/sshfront"
)

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Force-regenerate the SSH host key",
	RunE:  runGenkey,
}

func init() {
	rootCmd.AddCommand(genkeyCmd)
}

func runGenkey(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(workingDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	keyPath := resolvePath(cfg.KeyFile)
	if err := os.Remove(keyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing host key: %w", err)
	}
	if _, err := sshfront.LoadOrGenerateHostKey(keyPath); err != nil {
		return fmt.Errorf("generate host key: %w", err)
	}
	fmt.Printf("generated new host key at %s\n", keyPath)
	return nil
}
