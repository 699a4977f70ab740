package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/crucial707/coursevault/internal/config"
	"github.com/crucial707/coursevault/internal/db"
	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/scheduler"
	"github.com/crucial707/coursevault/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && (cfg.JWTSecret == "" || cfg.JWTSecret == "supersecretkey") {
		slog.Error("JWT_SECRET must be set in prod")
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		slog.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("bucket open failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if cfg.ManifestReconcileCron != "" {
		builder := manifest.NewBuilder(store)
		go func() {
			if err := scheduler.Run(ctx, builder, cfg.ManifestReconcileCron); err != nil {
				slog.Error("manifest reconciler failed to start", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(database, store, cfg),
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down")
		srv.Shutdown(context.Background())
	}()

	slog.Info("api listening", "port", cfg.Port, "env", cfg.Env)
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openStore prefers an explicit S3-compatible endpoint over the generic
// bucket URL so R2/MinIO deployments get static creds and path-style keys.
func openStore(ctx context.Context, cfg config.Config) (*storage.Store, error) {
	if cfg.S3Endpoint != "" {
		return storage.OpenS3(ctx, storage.S3Config{
			Endpoint:    cfg.S3Endpoint,
			Region:      cfg.S3Region,
			Bucket:      cfg.S3Bucket,
			AccessKeyID: cfg.S3AccessKeyID,
			Secret:      cfg.S3Secret,
		})
	}
	return storage.Open(ctx, cfg.BucketURL)
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
