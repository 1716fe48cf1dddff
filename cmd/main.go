package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/internal/api"
	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/metrics"
	"chat-relay/internal/service"
	"chat-relay/internal/storage"
)

// @title Chat Relay API
// @version 1.0
// @description Authenticated chat message relay backed by a hosted relational store
// @host localhost:8080
// @BasePath /
// @schemes http

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-KEY
func main() {
	configPath := flag.String("config", "config.yaml", "path to the optional YAML config file")
	migrate := flag.Bool("migrate", false, "apply bundled migrations before serving")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, migrate bool) error {
	// A .env file is a local convenience only.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)
	log.Info("Configuration loaded",
		"addr", cfg.Server.Addr,
		"database_configured", cfg.Secrets.DatabaseConfigured(),
		"access_key_configured", cfg.Secrets.AccessKey != "",
	)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing or broken store degrades the service instead of stopping it.
	store := openStore(ctx, cfg, log)
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("Closing store failed", "error", err)
			}
		}()
		if migrate {
			if err := storage.Migrate(ctx, store); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Info("Migrations applied")
		}
	}

	secretsLoaded := store != nil
	if secretsLoaded {
		metrics.SecretsLoaded.Set(1)
	}
	if cfg.Secrets.AccessKey == "" {
		log.Error("API_ACCESS_KEY is not set; every protected request will be denied")
	}

	messages := service.NewMessageService(store, log)
	gate := auth.NewGate(cfg.Secrets.AccessKey, secretsLoaded)
	apiHandler := api.NewAPI(messages, gate, cfg, log)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiHandler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting API server", "addr", cfg.Server.Addr, "secrets_loaded", secretsLoaded)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown initiated...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown error", "error", err)
	}

	log.Info("Graceful shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) storage.MessageStore {
	if !cfg.Secrets.DatabaseConfigured() {
		log.Error("DATABASE_URL and DATABASE_KEY must both be set; running degraded")
		return nil
	}

	store, err := storage.Open(ctx, cfg.Secrets.DatabaseURL, cfg.Secrets.DatabaseKey, log)
	if err != nil {
		log.Error("Failed to create store client; running degraded", "error", err)
		return nil
	}
	return store
}
