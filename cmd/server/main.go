package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"postcode-tracker/internal/adapters/cache"
	"postcode-tracker/internal/adapters/postcodes"
	"postcode-tracker/internal/adapters/repositories"
	"postcode-tracker/internal/api"
	"postcode-tracker/internal/config"
	"postcode-tracker/internal/platform/db"
	"postcode-tracker/internal/platform/logger"
	"postcode-tracker/internal/ports"
	"postcode-tracker/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, location cache, postcodes.io) behind ports and starts the HTTP server.
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	if err := logger.Init(cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetLogger("main")

	if envErr != nil {
		log.Info("No .env file found (using environment variables)")
	}
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		log.Fatal("JWT_SECRET_KEY is required")
	}

	conn, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	if err := repositories.InitSchema(conn); err != nil {
		log.Fatal(err)
	}

	locationCache, closeCache, err := openLocationCache(cfg, conn)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	// Optional warm start for local runs.
	if seedPath := config.Get("SEED_PATH", ""); seedPath != "" {
		n, err := cache.SeedFromJSON(context.Background(), locationCache, seedPath)
		if err != nil {
			log.Fatal(err)
		}
		log.Infow("Location cache seeded", "path", seedPath, "locations", n)
	}

	geocoder, err := postcodes.NewClient(postcodes.Config{
		PrimaryURL:     cfg.PrimaryURL,
		MirrorURL:      cfg.MirrorURL,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
		Exponential:    cfg.Backoff != "fixed",
		RequestTimeout: cfg.RequestTimeout,
		TotalTimeout:   cfg.TotalTimeout,
	})
	if err != nil {
		log.Fatal(err)
	}

	resolver := services.NewResolver(geocoder, locationCache)
	router := api.NewRouter(api.Services{
		Resolver:  resolver,
		Journeys:  services.NewJourneyService(repositories.NewSqliteJourneyRepository(conn), resolver),
		Locations: services.NewSavedLocationService(repositories.NewSqliteSavedLocationRepository(conn), resolver),
		Accounts: services.NewAccountService(
			repositories.NewSqliteUserRepository(conn),
			cfg.JWTSecretKey,
			cfg.JWTAccessTokenExpireMin,
		),
	}, cfg.MetricsEnabled)

	// WriteTimeout leaves room for the geocoder's full retry budget on both endpoints.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.TotalTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infow("Server listening", "addr", srv.Addr, "cache", cfg.CacheBackend, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown failed", "err", err)
	}
}

func openDB(dbPath string) (*sql.DB, error) {
	if dir := dbDir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("openDB: create directory for %q: %w", dbPath, err)
		}
	}
	return db.OpenSQLite(dbPath)
}

// dbDir is the directory openDB must create for dbPath, or "" when there is
// nothing to create.
func dbDir(dbPath string) string {
	if dbPath == ":memory:" {
		return ""
	}
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == string(filepath.Separator) {
		return ""
	}
	return dir
}

// openLocationCache builds the configured cache backend. The returned func
// releases any connection the backend owns.
func openLocationCache(cfg *config.Config, conn *sql.DB) (ports.LocationCache, func(), error) {
	noop := func() {}

	switch cfg.CacheBackend {
	case "", "sqlite":
		return cache.NewSqliteLocationCache(conn), noop, nil

	case "memory":
		return cache.NewMemoryLocationCache(), noop, nil

	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres cache")
		}
		pg, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewSQLLocationCache(pg)
		if err := c.InitSchema(context.Background()); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return c, func() { pg.Close() }, nil

	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return cache.NewRedisLocationCache(client, cfg.CacheTTL), func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
}
