package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/brokerd/internal/config"
	"git.home.luguber.info/inful/brokerd/internal/logfields"
	"git.home.luguber.info/inful/brokerd/internal/metrics"
	"git.home.luguber.info/inful/brokerd/internal/version"
	"github.com/alecthomas/kong"
)

var CLI struct {
	ConfigDir string `short:"c" help:"Configuration directory" default:"config"`
	Verbose   bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Resolve configuration, start the metrics exporter and run until shutdown"`

	Check struct{} `cmd:"" help:"Resolve and validate configuration, then print a summary"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Write an example base configuration file"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	switch ctx.Command() {
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("Serve failed", logfields.Error(err))
			os.Exit(1)
		}
	case "check":
		if err := runCheck(); err != nil {
			slog.Error("Configuration check failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.ConfigDir, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		slog.Info("Wrote example configuration", logfields.ConfigDir(CLI.ConfigDir))
	case "version":
		fmt.Printf("brokerd %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

func runServe() error {
	cfg, err := config.LoadFrom(CLI.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}

	applyLogLevel(cfg.Metrics.LogLevel)

	slog.Info("Broker configuration resolved",
		logfields.BrokerID(cfg.BrokerID),
		logfields.Environment(cfg.Environment),
		"version", version.Version,
		"nats_servers", cfg.Nats.Servers,
		"shard_count", cfg.Routing.ShardCount)

	m, err := metrics.Initialize()
	if err != nil {
		// Observability must never be a single point of failure; keep
		// running with the noop recorder.
		slog.Warn("Metrics initialization failed; continuing without instruments", logfields.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var exporter *metrics.Exporter
	if m != nil {
		exporter = metrics.NewExporter(cfg.Metrics.PrometheusAddr, m.Registry())
		if err := exporter.Start(); err != nil {
			slog.Warn("Metrics exporter unavailable; continuing without it", logfields.Error(err))
			exporter = nil
		}
	}

	watcher, err := config.NewWatcher(CLI.ConfigDir, func(path string) {
		slog.Warn("Configuration file changed; restart required to apply", logfields.Path(path))
	})
	if err != nil {
		slog.Warn("Configuration watcher unavailable", logfields.Error(err))
	} else if err := watcher.Start(ctx); err != nil {
		slog.Warn("Configuration watcher failed to start", logfields.Error(err))
	} else {
		defer func() {
			if err := watcher.Stop(); err != nil {
				slog.Warn("Failed to stop configuration watcher", logfields.Error(err))
			}
		}()
	}

	slog.Info("Broker core running, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	if exporter != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := exporter.Stop(stopCtx); err != nil {
			return fmt.Errorf("failed to stop metrics exporter: %w", err)
		}
	}

	slog.Info("Stopped")
	return nil
}

func runCheck() error {
	cfg, err := config.LoadFrom(CLI.ConfigDir)
	if err != nil {
		return err
	}

	slog.Info("Configuration is valid",
		logfields.BrokerID(cfg.BrokerID),
		logfields.Environment(cfg.Environment),
		"nats_servers", cfg.Nats.Servers,
		"grpc_addr", cfg.API.GRPCAddr,
		"rest_addr", cfg.API.RESTAddr,
		"prometheus_addr", cfg.Metrics.PrometheusAddr,
		"shard_count", cfg.Routing.ShardCount,
		"messages_per_second", cfg.Limits.MessagesPerSecond,
		"tls_required", cfg.RequireTLS())
	return nil
}

func applyLogLevel(level string) {
	if CLI.Verbose {
		return // --verbose wins over the configured level
	}
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
