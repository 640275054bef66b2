package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketpulse"
	"marketpulse/internal/config"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/logger/zerolog"
	"marketpulse/pkg/notification"

	"github.com/spf13/cobra"
)

const dateTimeLayout = "2006-01-02 15:04:05"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "marketpulse",
		Short:   "Binance market snapshot notifier",
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ./marketpulse.yaml when present)")
	rootCmd.AddCommand(buildRunCmd(), buildSnapshotCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the polling worker until interrupted",
		RunE:  runWorker,
	}
}

func buildSnapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Collect a single snapshot and print it, without delivering",
		RunE:  runSnapshot,
	}
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	log, err := zerolog.New(cfg.LogLevel, dateTimeLayout, cfg.LogColors, cfg.LogJSON)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker, err := marketpulse.NewWorker(cfg, log)
	if err != nil {
		return err
	}

	if err := worker.Run(ctx); err != nil {
		return err
	}

	log.Info("worker stopped")
	return nil
}

// nopNotifier suppresses delivery for the one-shot snapshot command.
type nopNotifier struct{}

func (nopNotifier) Deliver(context.Context, string) error { return nil }

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	worker, err := marketpulse.NewWorker(cfg, log, marketpulse.WithNotifier(nopNotifier{}))
	if err != nil {
		return err
	}

	snapshots := worker.CollectOnce(cmd.Context())
	notification.WriteTable(os.Stdout, snapshots)
	return nil
}
