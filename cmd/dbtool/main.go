package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"postcode-tracker/internal/adapters/cache"
	"postcode-tracker/internal/adapters/repositories"
	"postcode-tracker/internal/config"
	"postcode-tracker/internal/platform/db"
	"postcode-tracker/internal/platform/logger"
	"postcode-tracker/internal/ports"
)

type maintainedCache interface {
	ports.LocationCache
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const usage = `usage: dbtool <command>

commands:
  init    create the schema
  seed    load SEED_PATH (JSON array of postcode records) into the location cache
  prune   delete location cache entries idle for longer than CACHE_TTL (or -older-than)

DATABASE_URL selects the Postgres cache; otherwise DB_PATH (SQLite) is used.
`

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	if err := logger.Init(cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetLogger("dbtool")

	if envErr != nil {
		log.Info("No .env file found (using environment variables)")
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	olderThan := fs.Duration("older-than", cfg.CacheTTL, "prune entries idle for longer than this")
	seedPath := fs.String("seed", config.Get("SEED_PATH", "data/seeds/locations.json"), "seed file")
	_ = fs.Parse(os.Args[2:])

	ctx := context.Background()

	conn, c, err := open(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	switch os.Args[1] {
	case "init":
		log.Info("Schema ready.")

	case "seed":
		log.Infow("Seeding location cache...", "path", *seedPath)
		n, err := cache.SeedFromJSON(ctx, c, *seedPath)
		if err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
		log.Infow("Seeding complete.", "locations", n)

	case "prune":
		if *olderThan <= 0 {
			log.Fatal("prune needs CACHE_TTL or -older-than greater than zero")
		}
		cutoff := time.Now().Add(-*olderThan)
		n, err := c.PruneBefore(ctx, cutoff)
		if err != nil {
			log.Fatalf("prune failed: %v", err)
		}
		log.Infow("Prune complete.", "removed", n, "cutoff", cutoff.UTC().Format(time.RFC3339))

	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

// open connects to the configured store and makes sure its schema exists.
func open(ctx context.Context, cfg *config.Config) (*sql.DB, maintainedCache, error) {
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewSQLLocationCache(conn)
		if err := c.InitSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("schema initialization failed: %w", err)
		}
		return conn, c, nil
	}

	conn, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.InitSchema(conn); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("schema initialization failed: %w", err)
	}
	return conn, cache.NewSqliteLocationCache(conn), nil
}
