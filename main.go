package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.verisql.io/verifier/cli"
	"go.verisql.io/verifier/config"
	"go.verisql.io/verifier/utils"
	"go.verisql.io/verifier/utils/log"
)

// version is injected during build by ldflags.
var version string

func main() {
	if version == "" {
		version = "dev"
	}
	utils.Version = version

	logger, err := log.New()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.New()
	rootCmd := cli.Root(ctx, logger, cfg)
	if rootCmd == nil {
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.LogError(logger, err, "verisql exited with an error")
		os.Exit(1)
	}
}
