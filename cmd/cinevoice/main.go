package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cinevoice/config"
	"cinevoice/internal/app"
	"cinevoice/internal/cli"
	"cinevoice/internal/output"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		slog.Info("shutting down")
		cancel()
	}()

	deps := &cli.Dependencies{}
	deps.Init = func(path string, required bool) error {
		cfg, err := loadConfig(path, required)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := setupLogger(cfg.Log)
		slog.SetDefault(logger)

		application, err := app.New(cfg, logger, os.Stdout)
		if err != nil {
			return fmt.Errorf("initializing app: %w", err)
		}

		deps.Config = cfg
		deps.App = application
		return nil
	}

	if err := cli.NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		output.NewFormatter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

// loadConfig falls back to defaults when the default config file is absent.
func loadConfig(path string, required bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return config.Parse(nil)
	}
	return cfg, err
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
