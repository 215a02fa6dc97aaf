// ABOUTME: Seeding utility for a development database
// ABOUTME: Creates modules, menu options, an admin user and optional sample places
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"log"
	"os"

	"github.com/harperreed/bolha/config"
	"github.com/harperreed/bolha/db"
	"github.com/harperreed/bolha/devserver"
	"github.com/harperreed/bolha/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbPath := flag.String("db", cfg.Server.Database, "Path to database file")
	name := flag.String("name", "Administrator", "Admin name")
	email := flag.String("email", "admin@bolha.dev", "Admin email")
	password := flag.String("password", os.Getenv("BOLHA_ADMIN_PASSWORD"), "Admin password (required)")
	samples := flag.Bool("samples", true, "Add sample countries, states and cities")
	flag.Parse()

	if *password == "" {
		log.Fatal("Error: -password flag or BOLHA_ADMIN_PASSWORD is required")
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.OpenDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Seeding never issues tokens, so any secret will do.
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}
	srv, err := devserver.New(database, devserver.Options{JWTSecret: secret, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	res, err := srv.Seed(context.Background(), devserver.SeedOptions{
		AdminName:     *name,
		AdminEmail:    *email,
		AdminPassword: *password,
		SampleData:    *samples,
	})
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	if res.Skipped {
		log.Printf("Database %s already seeded for %s", *dbPath, *email)
		return
	}
	log.Printf("Seeded %d modules, %d menu options and %d sample records into %s",
		res.Modules, res.MenuOptions, res.Samples, *dbPath)
}
