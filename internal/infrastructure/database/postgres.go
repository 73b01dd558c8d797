package database

import (
	"fmt"
	"log"
	"time"

	migrate "github.com/rubenv/sql-migrate"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/telaila/companion/pkg/config"
)

// DefaultMigrationsDir holds the sql-migrate files
const DefaultMigrationsDir = "migrations"

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.Server.Environment == "production" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected successfully")

	return db, nil
}

// Migrate applies (or rolls back) up to limit sql-migrate files from dir.
// A limit of zero means no limit.
func Migrate(db *gorm.DB, dir string, direction migrate.MigrationDirection, limit int) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection for migrate: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: dir}, direction, limit)
	if err != nil {
		return n, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return n, nil
}

// AutoMigrate applies every pending migration from the default directory
func AutoMigrate(db *gorm.DB) error {
	log.Println("🔄 Applying migrations from migrations/ using sql-migrate...")

	n, err := Migrate(db, DefaultMigrationsDir, migrate.Up, 0)
	if err != nil {
		return err
	}

	log.Printf("✅ Applied %d migrations!\n", n)
	return nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("✅ Database connection closed")
	return nil
}
