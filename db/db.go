package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"regdoc-scraper/logger"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	conn   *sql.DB
	logger *logger.Logger
}

// NewDB connects to Postgres and creates the catalog tables.
// An empty connStr is built from DATABASE_URL or the DB_* variables.
func NewDB(ctx context.Context, connStr string, log *logger.Logger) (*DB, error) {
	if connStr == "" {
		connStr = ConnString()
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, logger: log}

	if err := db.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// ConnString returns DATABASE_URL, or a key/value string from the DB_* variables
func ConnString() string {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		return connStr
	}

	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "regdoc")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "regdoc")
	sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Name identifies the catalog in logs
func (db *DB) Name() string {
	return "postgres"
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables if they don't exist
func (db *DB) initSchema(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scrape_runs (
			id UUID PRIMARY KEY,
			site VARCHAR(50) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'running',
			keywords_count INTEGER NOT NULL DEFAULT 0,
			failed_keywords INTEGER NOT NULL DEFAULT 0,
			pages_count INTEGER NOT NULL DEFAULT 0,
			documents_count INTEGER NOT NULL DEFAULT 0,
			html_pages_count INTEGER NOT NULL DEFAULT 0,
			failed_records INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			CONSTRAINT valid_run_status CHECK (status IN ('running', 'done', 'partial', 'failed'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scrape_runs table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scraped_records (
			id SERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES scrape_runs(id) ON DELETE CASCADE,
			site VARCHAR(50) NOT NULL,
			keyword TEXT NOT NULL,
			identifier TEXT NOT NULL,
			kind VARCHAR(10) NOT NULL,
			record_date TEXT,
			url TEXT NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT valid_kind CHECK (kind IN ('document', 'page'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create scraped_records table: %w", err)
	}

	// Create indexes
	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_scraped_records_run_id ON scraped_records(run_id)`)
	if err != nil {
		db.logger.Warn("failed to create index on scraped_records.run_id", "error", err)
	}

	_, err = db.conn.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_scraped_records_keyword ON scraped_records(site, keyword)`)
	if err != nil {
		db.logger.Warn("failed to create index on scraped_records.keyword", "error", err)
	}

	return nil
}
