package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aniketpanse/hornetd/internal/audit"
	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/session"
	"github.com/aniketpanse/hornetd/internal/sshfront"
	"github.com/aniketpanse/hornetd/internal/vhost"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load config, build the vhost fleet, and start accepting SSH connections",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// resolvePath makes p absolute against workingDir unless it already is.
func resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(workingDir, p)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load(workingDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fleet, err := vhost.Build(cfg, resolvePath("vhosts"), true)
	if err != nil {
		return fmt.Errorf("build vhost fleet: %w", err)
	}
	logger.Info("vhost fleet built", "hosts", len(fleet), "default", cfg.DefaultHostname)

	store, err := audit.Open(resolvePath(cfg.Database))
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	queue := session.NewQueue(32)
	consumer := session.NewConsumer(queue, func(ctx context.Context, s *session.Session) {
		logger.Info("session retired", "session", s.ID, "source_ip", s.SourceIP, "source_port", s.SourcePort)
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	srv, err := sshfront.New(cfg, fleet, store, queue, resolvePath(cfg.KeyFile), logger)
	if err != nil {
		return fmt.Errorf("init ssh front: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		srv.Close()
		cancel()
	}()

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	consumer.Stop()
	return nil
}
