package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// The audit log is the only table; a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const checkinAuditDDL = `CREATE TABLE IF NOT EXISTS checkin_audit (
	id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	transaction_id VARCHAR(64)  NOT NULL,
	action         VARCHAR(16)  NOT NULL,
	actor          VARCHAR(255) NOT NULL DEFAULT '',
	from_verified  BOOLEAN      NOT NULL,
	to_verified    BOOLEAN      NOT NULL,
	outcome        VARCHAR(16)  NOT NULL,
	message        VARCHAR(512) NOT NULL DEFAULT '',
	created_at     DATETIME(3)  NOT NULL,
	KEY idx_checkin_audit_tx (transaction_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// EnsureSchema creates the storefront tables when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, checkinAuditDDL); err != nil {
		return fmt.Errorf("create checkin_audit: %w", err)
	}
	return nil
}
