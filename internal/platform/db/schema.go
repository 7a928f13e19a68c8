package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names matter: the accounts repository classifies check
// violations by them.
const createAccountsTable = `
CREATE TABLE IF NOT EXISTS accounts
(id bigserial PRIMARY KEY,
 email varchar(50) NOT NULL,
 password_hash varchar(100) NOT NULL,
 activation_code varchar(4) NOT NULL,
 is_activated boolean DEFAULT false NOT NULL,
 created_at timestamptz DEFAULT now() NOT NULL,
 UNIQUE(email),
 CONSTRAINT accounts_email_format CHECK (email ~* '^[A-Za-z0-9._+%-]+@[A-Za-z0-9.-]+[.][A-Za-z]+$'),
 CONSTRAINT accounts_email_min_length CHECK (char_length(email) > 6),
 CONSTRAINT accounts_code_length CHECK (char_length(activation_code) = 4))`

// InitSchema creates the accounts table and its indexes if missing.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		createAccountsTable,
		"CREATE INDEX IF NOT EXISTS accounts_id_idx ON accounts (id)",
		"CREATE INDEX IF NOT EXISTS accounts_email_idx ON accounts (email)",
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("platform/db: init schema: %w", err)
		}
	}
	return nil
}
