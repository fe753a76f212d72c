// Package main implements the entry point for the WikiGraph application.
// WikiGraph keeps an RDF quad store synchronized with a MediaWiki
// installation and serves it over the SPARQL protocol.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/c360/wikigraph/loader"
	"github.com/c360/wikigraph/metric"
	"github.com/c360/wikigraph/server"
	"github.com/c360/wikigraph/store"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "wikigraph"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := resolveConfig(cliCfg)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting WikiGraph",
		"version", Version,
		"build_time", BuildTime,
		"bind", cfg.Bind,
		"store_path", cfg.StorePath,
		"mediawiki_api", cfg.MediaWikiAPI)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Store close failed", "error", err)
		}
	}()

	registry := metric.NewRegistry()

	var publisher *loader.Publisher
	if cfg.NATSURL != "" {
		publisher, err = loader.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("connect NATS: %w", err)
		}
		defer publisher.Close()
	}

	// In slot mode the slot filter replaces the namespace filter.
	namespaces := cfg.Namespaces
	if cfg.Slot != "" {
		namespaces = nil
	}

	client := loader.NewClient(cfg.MediaWikiAPI, cfg.MediaWikiBase)
	ldr, err := loader.New(st, client, loader.Options{
		Namespaces: namespaces,
		Slot:       cfg.Slot,
		Interval:   cfg.SyncInterval.Std(),
		Logger:     logger,
		Metrics:    registry.Metrics,
		Publisher:  publisher,
	})
	if err != nil {
		return fmt.Errorf("create loader: %w", err)
	}

	// A persisted cursor means a previous run already loaded the store;
	// the update loop replays whatever happened since.
	cursor, err := st.SyncCursor()
	if err != nil {
		return fmt.Errorf("read sync cursor: %w", err)
	}
	if cursor == "" {
		if err := ldr.InitialLoad(ctx); err != nil {
			return fmt.Errorf("initial load: %w", err)
		}
	} else {
		logger.Info("Resuming from persisted cursor", "cursor", cursor)
	}

	srv := server.New(st, Version, logger, registry.Metrics)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return ldr.UpdateLoop(groupCtx)
	})
	group.Go(func() error {
		return srv.Run(groupCtx, cfg.Bind)
	})
	if cfg.OpsPort > 0 {
		ops := metric.NewServer(cfg.OpsPort, registry)
		group.Go(func() error {
			return ops.Start()
		})
		group.Go(func() error {
			<-groupCtx.Done()
			return ops.Stop()
		})
	}

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}
