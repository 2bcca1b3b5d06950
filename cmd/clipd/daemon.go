package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clipd/clipd/internal/capture"
	"github.com/clipd/clipd/internal/clipboard"
	"github.com/clipd/clipd/internal/config"
	"github.com/clipd/clipd/internal/daemon"
	"github.com/clipd/clipd/internal/logging"
	"github.com/clipd/clipd/internal/store"
)

func newDaemonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background clipboard watcher",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start",
			Short: "Start the watcher in the background",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}

				if pid, err := daemon.Status(cfg.PIDFile); err != nil {
					return err
				} else if pid != nil {
					fmt.Printf("Watcher already running (pid %d).\n", *pid)
					return nil
				}

				if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
					return fmt.Errorf("create data directory: %w", err)
				}

				pid, err := daemon.Start(cfg.LogFile, "daemon", "run", "--base-dir", cfg.BaseDir)
				if err != nil {
					return err
				}
				fmt.Printf("Watcher started (pid %d).\n", pid)
				return nil
			},
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the background watcher",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}

				stopped, err := daemon.Stop(cfg.PIDFile)
				if err != nil {
					return err
				}
				if !stopped {
					fmt.Println("Watcher is not running.")
					return nil
				}
				fmt.Println("Watcher stopped.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Report whether the watcher is running",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}

				pid, err := daemon.Status(cfg.PIDFile)
				if err != nil {
					return err
				}
				if pid == nil {
					fmt.Println("Watcher is not running.")
					return nil
				}
				fmt.Printf("Watcher running (pid %d).\n", *pid)
				return nil
			},
		},
		&cobra.Command{
			Use:    "run",
			Short:  "Run the watcher in the foreground",
			Hidden: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				return runWatcher(cfg)
			},
		},
	)

	return cmd
}

// runWatcher is the long-lived capture loop. It owns the PID file for its
// lifetime and exits cleanly on SIGINT or SIGTERM.
func runWatcher(cfg config.AppConfig) error {
	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
		return fmt.Errorf("create images directory: %w", err)
	}

	logger, err := logging.NewFileLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := store.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	storage, err := store.New(store.Config{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	if err := daemon.WritePIDFile(cfg.PIDFile); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer daemon.RemovePIDFile(cfg.PIDFile)

	pipeline, err := capture.New(capture.Config{
		Store:           storage,
		Source:          clipboard.NewSystemClipboard(),
		Codec:           clipboard.NewPNGCodec(),
		ImagesDir:       cfg.ImagesDir,
		Interval:        cfg.PollInterval,
		MaxPayloadBytes: cfg.MaxItemBytes,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watcher started",
		zap.String("database", cfg.DatabasePath),
		zap.Duration("interval", cfg.PollInterval))

	if err := pipeline.Run(ctx); err != nil {
		return err
	}

	logger.Info("watcher stopped")
	return nil
}
