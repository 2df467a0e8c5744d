package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/propertyregister/internal/config"
)

// Connection holds the database connection
type Connection struct {
	DB *sql.DB
}

// NewConnection creates a new database connection from PG* environment
// variables.
func NewConnection() (*Connection, error) {
	host := config.GetEnv("PGHOST", "localhost")
	port := config.GetEnv("PGPORT", "5432")
	user := config.GetEnv("PGUSER", "postgres")
	password := config.GetEnv("PGPASSWORD", "postgres")
	dbname := config.GetEnv("PGDATABASE", "property_register")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxConns := config.GetEnvInt("PGMAXCONNS", 20)
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns / 2)

	return &Connection{DB: db}, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}

// InitSchema creates the property_register table and its indexes. The table
// is append-only; eircode_lookup holds the uppercase no-whitespace form so
// postal lookups are plain equality, and the trigram index serves substring
// search at arbitrary positions.
func (c *Connection) InitSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS property_register (
			id BIGSERIAL PRIMARY KEY,
			sale_date DATE NOT NULL,
			address TEXT NOT NULL,
			county TEXT NOT NULL,
			eircode TEXT,
			eircode_lookup TEXT,
			price_cents BIGINT NOT NULL CHECK (price_cents > 0),
			not_full_market_price BOOLEAN NOT NULL DEFAULT FALSE,
			vat_exclusive BOOLEAN NOT NULL DEFAULT FALSE,
			description TEXT,
			size_description TEXT,
			year INT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_register_eircode ON property_register (eircode_lookup)`,
		`CREATE INDEX IF NOT EXISTS idx_register_county ON property_register (county)`,
		`CREATE INDEX IF NOT EXISTS idx_register_year ON property_register (year)`,
		`CREATE INDEX IF NOT EXISTS idx_register_sale_date ON property_register (sale_date DESC)`,
		`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
		`CREATE INDEX IF NOT EXISTS idx_register_address_trgm ON property_register USING gin (address gin_trgm_ops)`,
	}

	for _, stmt := range statements {
		if _, err := c.DB.Exec(stmt); err != nil {
			return fmt.Errorf("schema init failed: %w", err)
		}
	}
	return nil
}
