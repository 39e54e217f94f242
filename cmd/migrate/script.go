package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const migration = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_locked BOOLEAN NOT NULL DEFAULT FALSE,
	failed_login_attempts INT NOT NULL DEFAULT 0,
	last_login_at TIMESTAMPTZ,
	locked_until TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	account_number CHAR(6) NOT NULL UNIQUE,
	holder_name TEXT NOT NULL,
	balance NUMERIC(18,2) NOT NULL,
	initial_balance NUMERIC(18,2) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	CONSTRAINT balance_non_negative CHECK (balance >= 0),
	CONSTRAINT initial_balance_non_negative CHECK (initial_balance >= 0)
);

CREATE TABLE IF NOT EXISTS transfers (
	id UUID PRIMARY KEY,
	from_account_id UUID NOT NULL REFERENCES accounts(id),
	to_account_id UUID NOT NULL REFERENCES accounts(id),
	amount NUMERIC(18,2) NOT NULL,
	description TEXT,
	transfer_date DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT amount_positive CHECK (amount > 0),
	CONSTRAINT distinct_accounts CHECK (from_account_id <> to_account_id)
);

CREATE INDEX IF NOT EXISTS idx_transfers_from_account ON transfers (from_account_id, transfer_date);
CREATE INDEX IF NOT EXISTS idx_transfers_to_account ON transfers (to_account_id, transfer_date);
`

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DB_CONN")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping db: %v", err)
	}

	if _, err := db.Exec(migration); err != nil {
		log.Fatalf("failed to execute migration: %v", err)
	}

	fmt.Println("Migration executed successfully")
}
