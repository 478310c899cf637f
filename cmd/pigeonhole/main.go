package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ferndale/pigeonhole/internal/config"
	"github.com/ferndale/pigeonhole/internal/engine"
	"github.com/ferndale/pigeonhole/internal/engine/classifier"
	"github.com/ferndale/pigeonhole/internal/engine/vectorizer"
	"github.com/ferndale/pigeonhole/internal/logging"
	"github.com/ferndale/pigeonhole/internal/metrics"
	"github.com/ferndale/pigeonhole/internal/registry"
	"github.com/ferndale/pigeonhole/internal/registry/mlflowrest"
	"github.com/ferndale/pigeonhole/internal/registry/sqlite"
	"github.com/ferndale/pigeonhole/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (default: $PIGEONHOLE_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Init(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)

	// Set up graceful shutdown. Resolution may hit the network, so the
	// signal handler is wired before the first registry call.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	// Open the registry backend.
	reg, closeReg, err := openRegistry(ctx, cfg.Registry)
	if err != nil {
		log.Fatalf("failed to open registry: %v", err)
	}
	defer closeReg()

	// Resolve the model version to serve.
	version, err := registry.Resolve(ctx, reg, cfg.Model.Name)
	if err != nil {
		log.Fatalf("failed to resolve model: %v", err)
	}
	logger.Info("resolved model",
		"name", version.Name,
		"version", version.Version,
		"stage", string(version.Stage),
		"source", version.Source,
	)

	// Load the classifier from the registry artifact.
	raw, err := registry.ReadArtifact(ctx, reg, version)
	if err != nil {
		log.Fatalf("failed to read model artifact: %v", err)
	}
	model, err := classifier.Load(raw, artifactDir(version.Source))
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	// Initialize vectorizer.
	vec, err := vectorizer.New(cfg.Model.VocabPath)
	if err != nil {
		log.Fatalf("failed to load vocabulary: %v", err)
	}

	// Initialize engine.
	eng, err := engine.New(vec, model)
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer eng.Close()

	// Initialize metrics and HTTP server.
	m := metrics.New()
	srv := server.New(cfg.Server.Addr, eng, m, logger)

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"model", version.Name,
		"version", version.Version,
	)
	if err := srv.Run(ctx, cfg.Server.ShutdownTimeout.Std()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openRegistry builds the configured backend. The close func is a no-op for
// backends that hold no local state.
func openRegistry(ctx context.Context, cfg config.RegistryConfig) (registry.Registry, func() error, error) {
	switch cfg.Kind {
	case "mlflow":
		client := mlflowrest.New(cfg.MLflow.BaseURL, cfg.MLflow.Token,
			mlflowrest.WithTimeout(cfg.MLflow.Timeout.Std()))
		return client, func() error { return nil }, nil
	case "sqlite":
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown registry kind %q", cfg.Kind)
}

// artifactDir returns the directory relative manifest paths resolve against.
// Remote artifacts have no local directory.
func artifactDir(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return ""
	}
	return filepath.Dir(strings.TrimPrefix(source, "file://"))
}
