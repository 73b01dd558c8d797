package main

import (
	"flag"
	"log"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/telaila/companion/internal/infrastructure/database"
	"github.com/telaila/companion/pkg/config"
)

func main() {
	dir := flag.String("dir", database.DefaultMigrationsDir, "directory holding the migration files")
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	direction, limit := migrate.Up, 0
	if *down {
		direction, limit = migrate.Down, 1
	}

	log.Printf("🔄 Applying migrations from %s/ directory...", *dir)
	n, err := database.Migrate(db, *dir, direction, limit)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Printf("✅ Successfully applied %d migration(s)!\n", n)
}
