package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	sqliteadapter "github.com/ericfisherdev/teamvault/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/teamvault/internal/adapter/driving/http"
	"github.com/ericfisherdev/teamvault/internal/application"
	"github.com/ericfisherdev/teamvault/internal/config"
	"github.com/ericfisherdev/teamvault/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed values).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"key_override", cfg.EncryptionKey != nil,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters and services. A configured key override bypasses the
	// database keystore entirely.
	var keys driven.KeyStore
	if cfg.EncryptionKey != nil {
		keys = application.FixedKey(cfg.EncryptionKey)
	} else {
		keys = sqliteadapter.NewKeyRepo(db)
	}

	credStore := sqliteadapter.NewCredentialRepo(db)
	grantStore := sqliteadapter.NewGrantRepo(db)
	userStore := sqliteadapter.NewUserRepo(db)

	cipher := application.NewCipher(keys)
	access := application.NewAccessService(grantStore, slog.Default())
	vault := application.NewVaultService(credStore, grantStore, userStore, cipher, access, slog.Default())

	// Touch the key at startup so a broken keystore fails fast instead of on
	// the first secret operation.
	if _, err := keys.GetOrCreateKey(ctx); err != nil {
		return err
	}
	slog.Info("master key ready")

	// 6. Create HTTP handler and router.
	handler := httphandler.NewHandler(vault, slog.Default())
	router := httphandler.NewRouter(handler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("teamvault started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
