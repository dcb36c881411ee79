package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies the schema on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
//
// The UNIQUE constraint on budgets.owner_id is load-bearing: it is what makes
// the budget upsert safe against two concurrent first-time writes.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
			category TEXT NOT NULL,
			description TEXT NOT NULL,
			date TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS expenses_owner_idx ON expenses (owner_id)`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL UNIQUE,
			amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		_, err := pool.Exec(ctx, stmt)

		if err != nil {
			return err
		}
	}

	return nil
}
