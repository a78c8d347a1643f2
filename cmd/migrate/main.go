package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/af-corp/googleapi/internal/config"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up, down or force")
	steps := flag.Int("steps", 0, "number of steps (0 = all); the target version for force")
	dbURL := flag.String("db-url", "", "database URL (overrides env)")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	flag.Parse()

	m, err := migrate.New("file://"+*migrationsPath, dsn(*dbURL))
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "force":
		err = m.Force(*steps)
	default:
		log.Fatalf("invalid direction: %s (use 'up', 'down' or 'force')", *direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("read migration version: %v", err)
	}
	fmt.Printf("migration %s complete (version: %d, dirty: %v)\n", *direction, v, dirty)
}

// dsn prefers -db-url, then DATABASE_URL, then the DB_* variables the
// gateway config reads.
func dsn(flagURL string) string {
	if flagURL != "" {
		return flagURL
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	db := config.DefaultConfig().Database
	db.Host = envOrDefault("DB_HOST", db.Host)
	if p, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
		db.Port = p
	}
	db.User = envOrDefault("DB_USER", db.User)
	db.Password = envOrDefault("DB_PASSWORD", "googleapi-dev")
	db.Name = envOrDefault("DB_NAME", db.Name)
	return db.DSN()
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
