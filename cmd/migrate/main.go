// Package main provides the database migration tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/whale-tracker/internal/config"
	"github.com/whale-tracker/internal/storage"
)

func main() {
	var (
		direction = flag.String("direction", "up", "Migration direction: up, down, or version")
		path      = flag.String("path", "migrations", "Path to migration files")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	databaseURL := storage.PostgresURL(&cfg.Database.Postgres)

	switch *direction {
	case "up":
		if err := storage.RunMigrations(databaseURL, *path); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied")
	case "down":
		if err := storage.RollbackMigrations(databaseURL, *path); err != nil {
			fmt.Fprintf(os.Stderr, "Rollback failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations rolled back")
	case "version":
		version, dirty, err := storage.MigrationVersion(databaseURL, *path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read version: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Version: %d, dirty: %v\n", version, dirty)
	default:
		fmt.Fprintf(os.Stderr, "Unknown direction %q (want up, down, or version)\n", *direction)
		os.Exit(1)
	}
}
