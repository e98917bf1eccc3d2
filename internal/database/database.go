package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connect opens a sqlx handle for the configured driver. Supported drivers:
// postgres, mysql, sqlite3. Queries throughout the repository layer are
// written with ? placeholders and passed through sqlx.Rebind, so the same
// SQL runs on all three.
func Connect(driver, dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*sqlx.DB, error) {
	switch driver {
	case "postgres", "mysql", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

// Schema holds the DDL for the workflow core's two tables. Statement order
// matters: tickets before approval records.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS ticket (
		id          BIGINT       NOT NULL PRIMARY KEY,
		external_id VARCHAR(64)  NOT NULL UNIQUE,
		domain      VARCHAR(32)  NOT NULL,
		status      VARCHAR(64)  NOT NULL,
		title       VARCHAR(255) NOT NULL,
		created_by  VARCHAR(64)  NOT NULL,
		version     INTEGER      NOT NULL DEFAULT 1,
		created_at  TIMESTAMP    NOT NULL,
		updated_at  TIMESTAMP    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_approval (
		id            BIGINT       NOT NULL PRIMARY KEY,
		ticket_id     BIGINT       NOT NULL REFERENCES ticket(id),
		level         INTEGER      NOT NULL,
		required_role VARCHAR(64)  NOT NULL,
		decision      VARCHAR(16)  NOT NULL,
		decided_by    VARCHAR(64)  NOT NULL DEFAULT '',
		decided_at    TIMESTAMP    NULL,
		notes         TEXT         NOT NULL DEFAULT '',
		UNIQUE (ticket_id, level)
	)`,
}

// EnsureSchema creates the core tables when they do not exist yet.
func EnsureSchema(db *sqlx.DB) error {
	for _, stmt := range Schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
