package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/garage/pkg/cli"
	"github.com/platinummonkey/garage/pkg/config"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(observability.WarnLevel, os.Stderr)
	rootCmd := cli.NewRootCommand(openBackend, os.Stdout, logger)

	if err := rootCmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openBackend(ctx context.Context) (*cli.Backend, error) {
	cfg, err := config.LoadStorageConfig()
	if err != nil {
		return nil, err
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &cli.Backend{
		DB:     db,
		Driver: cfg.Driver,
		Store:  postgres.NewStore(db),
		Close:  db.Close,
	}, nil
}
