// Package auth verifies basic credentials and carries the resulting
// principal through request contexts.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInvalidCredentials covers both an unknown identifier and a wrong
// password. Collapsing the two resists account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore looks up the stored hash for an identifier.
type CredentialStore interface {
	CredentialByEmail(ctx context.Context, email string) (string, error)
}

// PGCredentialStore reads credentials straight from the accounts table.
type PGCredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore constructs a PostgreSQL credential store.
func NewCredentialStore(pool *pgxpool.Pool) *PGCredentialStore {
	return &PGCredentialStore{pool: pool}
}

// CredentialByEmail returns the password hash for email.
func (s *PGCredentialStore) CredentialByEmail(ctx context.Context, email string) (string, error) {
	var hash string
	err := s.pool.QueryRow(ctx,
		"SELECT password_hash FROM accounts WHERE email = $1", email).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth: credential lookup: %w", err)
	}
	return hash, nil
}

var _ CredentialStore = (*PGCredentialStore)(nil)

// Gate authenticates basic credentials against the store.
type Gate struct {
	store CredentialStore
}

// NewGate constructs a Gate.
func NewGate(store CredentialStore) *Gate {
	return &Gate{store: store}
}

// Authenticate returns the identifier as the authenticated principal,
// or ErrInvalidCredentials. Infrastructure failures pass through as a
// distinct category so the boundary can answer 500.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (string, error) {
	hash, err := g.store.CredentialByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !VerifyPassword(password, hash) {
		return "", ErrInvalidCredentials
	}
	return email, nil
}
