package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/seagrayinc/access-profiles/internal/config"
	"github.com/seagrayinc/access-profiles/internal/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("accessctl failed", slog.Any("error", err))
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "accessctl.yaml"
	}
	return filepath.Join(dir, "accessctl", "config.yaml")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("accessctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	cfgPath := fs.String("config", defaultConfigPath(), "configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: no command given", errUsage)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	metrics.Register()
	defer func() {
		if cfg.Metrics.Textfile == "" {
			return
		}
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics textfile", slog.String("path", cfg.Metrics.Textfile), slog.Any("error", err))
		}
	}()

	a := newApp(cfg, logger, stdout)
	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}
