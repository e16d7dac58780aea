package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Liad-hossain/test-voice-export/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger := bootstrap.InitLogger(cfg.Observability.Logging)

	if timeout := cfg.Pipeline.RunTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.InfoContext(ctx, "starting vaultsync",
		"matter_id", cfg.Vault.MatterID,
		"folder_id", cfg.Drive.FolderID,
		"temp_dir", cfg.Pipeline.TempDir,
		"extract_dir", cfg.Pipeline.ExtractDir,
		"run_timeout", cfg.Pipeline.RunTimeout,
	)

	rt, err := bootstrap.BuildRuntime(ctx, bootstrap.RuntimeDeps{Config: &cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close runtime failed", "error", cerr)
		}
	}()

	_, err = rt.Orchestrator.Run(ctx, rt.Params)
	return err
}
