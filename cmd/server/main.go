// Package main is the entry point for the govdoc API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"govdoc/internal/asset"
	"govdoc/internal/convert"
	"govdoc/internal/core/numerator"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/domain/auth"
	"govdoc/internal/domain/issuance"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/infrastructure/cache"
	v1 "govdoc/internal/infrastructure/http/v1"
	"govdoc/internal/infrastructure/http/v1/handlers"
	pgnumerator "govdoc/internal/infrastructure/numerator"
	"govdoc/internal/infrastructure/storage/memory"
	"govdoc/internal/infrastructure/storage/postgres"
	"govdoc/internal/infrastructure/storage/postgres/annotation_repo"
	"govdoc/internal/infrastructure/storage/sqlite"
	"govdoc/internal/layout"
	"govdoc/pkg/logger"
)

var version = "dev"

// backend groups the storage collaborators of one deployment.
type backend struct {
	sequences   numerator.Store
	blobs       handlers.AssetStore
	annotations annotation.Repository
	checks      map[string]handlers.Pinger
	close       func()
	// listen starts cross-node cache invalidation when supported.
	listen func(ctx context.Context, c *cache.BlobCache)
}

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting govdoc server", "version", version)

	// --- Storage ---
	var store *backend
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		store, err = openPostgres(ctx, dsn)
	} else {
		store, err = openSQLite(getEnv("SQLITE_PATH", ""))
	}
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.close()

	// --- Numbering ---
	reset, err := numerator.ParseResetPeriod(getEnv("MINISTRY_RESET", "year"))
	if err != nil {
		log.Fatalw("invalid MINISTRY_RESET", "error", err)
	}
	numCfg := numerator.DefaultConfig(getEnv("MINISTRY_CODE", "MT"))
	numCfg.MinistryReset = reset
	numbers := numbering.NewService(numbering.ServiceConfig{
		Store:  store.sequences,
		Config: numCfg,
	})

	// --- Layout ---
	layoutCfg, err := layout.LoadConfig(getEnv("GEOMETRY_FILE", ""))
	if err != nil {
		log.Fatalw("failed to load layout configuration", "error", err)
	}
	engine, err := layout.NewEngine(layoutCfg)
	if err != nil {
		log.Fatalw("failed to create layout engine", "error", err)
	}

	// --- Assets ---
	blobCache := cache.NewBlobCache(store.blobs, getEnvInt("ASSET_CACHE_BYTES", 32<<20))
	if store.listen != nil {
		store.listen(ctx, blobCache)
		defer blobCache.Stop()
	}
	fetcher := asset.NewFetcher(blobCache, getEnvDuration("ASSET_TIMEOUT", 3*time.Second))

	// --- Conversion ---
	convCfg := convert.DefaultExecConfig()
	convCfg.Binary = getEnv("CONVERTER_BIN", convCfg.Binary)
	convCfg.Timeout = getEnvDuration("CONVERTER_TIMEOUT", convCfg.Timeout)
	convCfg.RequestsPerSecond = getEnvFloat("CONVERTER_RATE", convCfg.RequestsPerSecond)
	converter := convert.NewExecConverter(convCfg)

	// --- Services ---
	annotations := annotation.NewService(store.annotations)
	issuer := issuance.NewService(layoutCfg, issuance.Deps{
		Engine:      engine,
		Numbers:     numbers,
		Assets:      fetcher,
		Annotations: annotations,
		Converter:   converter,
	})

	// --- JWT ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(
		getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
	))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:         log,
		TokenValidator: jwtService,
		Numbers:        numbers,
		Issuance:       issuer,
		Annotations:    annotations,
		Assets:         blobCache,
		HealthChecks:   store.checks,
		Version:        version,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // conversions may take a minute
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func openPostgres(ctx context.Context, dsn string) (*backend, error) {
	cfg := postgres.DefaultPoolConfig(dsn)
	if n := getEnvInt("DB_MAX_CONNS", 0); n > 0 {
		cfg.MaxConns = int32(n)
	}
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	txm := postgres.NewTxManager(pool)
	blobs, err := postgres.NewBlobStore(txm)
	if err != nil {
		pool.Close()
		return nil, err
	}
	logger.Info(ctx, "postgres storage ready")

	return &backend{
		sequences:   pgnumerator.New(txm),
		blobs:       blobs,
		annotations: annotation_repo.NewAnnotationRepo(txm),
		checks:      map[string]handlers.Pinger{"database": pool},
		close: func() {
			postgres.LogPoolStats(context.Background(), pool)
			pool.Close()
		},
		listen: func(ctx context.Context, c *cache.BlobCache) {
			c.Listen(ctx, pool.Unwrap())
		},
	}, nil
}

// openSQLite serves single-node deployments. Annotations are kept in memory.
func openSQLite(path string) (*backend, error) {
	db, err := sqlite.NewStore(path)
	if err != nil {
		return nil, err
	}
	return &backend{
		sequences:   db.Sequences(),
		blobs:       db.Blobs(),
		annotations: memory.NewAnnotationRepo(),
		checks:      map[string]handlers.Pinger{"database": db},
		close:       func() { _ = db.Close() },
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
