package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres connects to Postgres, retrying while the server starts up, and
// makes sure the users table exists.
func OpenPostgres(dsn string) (*sql.DB, error) {
	var (
		sqldb *sql.DB
		err   error
	)
	for attempt := 1; attempt <= 10; attempt++ {
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Printf("postgres not ready (attempt %d/10): %v", attempt, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqldb.SetMaxOpenConns(20)
	sqldb.SetMaxIdleConns(10)
	sqldb.SetConnMaxLifetime(5 * time.Minute)

	if err := createTables(sqldb); err != nil {
		return nil, err
	}
	return sqldb, nil
}

func createTables(sqldb *sql.DB) error {
	// password is NULL for accounts created through an OAuth provider
	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		image TEXT NOT NULL,
		password TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`
	if _, err := sqldb.Exec(createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	// 帳號以小寫 email 為準，大小寫不同也算同一個
	if _, err := sqldb.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email))`); err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	if _, err := sqldb.Exec(`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC)`); err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}
