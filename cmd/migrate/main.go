package main

import (
	"flag"
	"fmt"
	"log"

	"ems/internal/platform/config"
	"ems/internal/platform/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	migrationsDir := flag.String("dir", cfg.MigrationsDir, "directory containing migration files")
	flag.Parse()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if err := run(action, *migrationsDir, cfg.DatabaseURL); err != nil {
		log.Fatalf("migration %s failed: %v", action, err)
	}
	log.Printf("migration %s completed", action)
}

func run(action, dir, dsn string) error {
	m, err := db.NewMigrator(dir, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Printf("close migrator: %v", err)
		}
	}()

	switch action {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Printf("no migration applied")
			return nil
		}
		log.Printf("version=%d dirty=%t", version, dirty)
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
