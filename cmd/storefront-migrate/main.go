package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"storefront/internal/config"
	"storefront/internal/storage"
)

func main() {
	var (
		statusFlag = flag.Bool("status", false, "Show migration status")
		upFlag     = flag.Bool("up", false, "Run pending migrations")
	)
	flag.Parse()

	if !*statusFlag && !*upFlag {
		fmt.Println("Usage:")
		fmt.Println("  storefront-migrate -status   # Show migration status")
		fmt.Println("  storefront-migrate -up       # Run pending migrations")
		fmt.Println("STORAGE_BACKEND selects postgres or sqlite.")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var (
		db     *sql.DB
		driver string
	)
	switch cfg.Storage.Backend {
	case "postgres":
		db, err = storage.ConnectPostgres(ctx, cfg.Database)
		driver = storage.DriverPostgres
	case "sqlite":
		db, err = storage.ConnectSQLite(ctx, cfg.Database.SQLitePath)
		driver = storage.DriverSQLite
	default:
		log.Fatalf("Storage backend %q has no schema to migrate", cfg.Storage.Backend)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := storage.NewMigrator(db, driver)

	if *upFlag {
		if err := migrator.RunMigrations(ctx); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("All migrations completed successfully!")
	}

	if *statusFlag {
		status, err := migrator.Status(ctx)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		for _, s := range status {
			mark := "pending"
			if s.Applied {
				mark = "applied"
			}
			fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, mark)
		}
	}
}
