package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config selects the backing database. SQLite is the default for local
// setups; postgres is used when DB_TYPE=postgres and DATABASE_URL is set.
type Config struct {
	Driver string // "sqlite3" or "postgres"
	DSN    string
}

// ConfigFromEnv builds a Config from DB_TYPE, DATABASE_URL and DB_PATH.
func ConfigFromEnv() Config {
	if os.Getenv("DB_TYPE") == "postgres" {
		return Config{Driver: "postgres", DSN: os.Getenv("DATABASE_URL")}
	}

	path := os.Getenv("DB_PATH")
	if path == "" {
		path = filepath.Join("data", "studybuddy.db")
	}
	return Config{Driver: "sqlite3", DSN: path}
}

// Connect opens the database, applies driver-specific settings and creates
// the schema if it does not exist yet.
func Connect(cfg Config) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite3" && cfg.DSN != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS users (
			id %s,
			telegram_id BIGINT UNIQUE,
			email TEXT UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT false,
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			words_per_day INTEGER NOT NULL DEFAULT 10,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS vocabulary_items (
			id %s,
			user_id BIGINT NOT NULL,
			word TEXT NOT NULL,
			translation TEXT NOT NULL,
			definition TEXT NOT NULL DEFAULT '',
			example TEXT NOT NULL DEFAULT '',
			audio_ref TEXT NOT NULL DEFAULT '',
			source_tag TEXT NOT NULL DEFAULT 'manual',
			ease_factor REAL NOT NULL DEFAULT 2.5,
			"interval" INTEGER NOT NULL DEFAULT 1,
			repetitions INTEGER NOT NULL DEFAULT 0,
			next_review_at TIMESTAMP,
			mastered BOOLEAN NOT NULL DEFAULT false,
			last_reviewed_at TIMESTAMP,
			review_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			UNIQUE(user_id, word)
		)
	`, idColumn))
	if err != nil {
		return fmt.Errorf("failed to create vocabulary_items table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_vocabulary_due
		ON vocabulary_items (user_id, mastered, next_review_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to create due index: %w", err)
	}

	return nil
}
