package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the accounts module.
// The by-email credential lookup used during authentication lives in
// the auth package, which runs its own narrow query.
type Repository interface {
	FindByIDAndEmail(ctx context.Context, id int64, email string) (*Account, error)
	Insert(ctx context.Context, email, passwordHash, code string) (*Account, error)
	ListAll(ctx context.Context) ([]Account, error)
	// Activate flips is_activated for a pending account. It reports
	// false when the row was already activated, so concurrent attempts
	// resolve deterministically without a read-then-write race.
	Activate(ctx context.Context, id int64) (bool, error)
}

// PGRepository implements Repository using PostgreSQL. Each call checks
// out one pooled connection for its duration; pgx returns it on every
// exit path. opTimeout bounds waiting on an exhausted pool so callers
// get an error instead of hanging indefinitely.
type PGRepository struct {
	pool      *pgxpool.Pool
	opTimeout time.Duration
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool, opTimeout time.Duration) *PGRepository {
	return &PGRepository{pool: pool, opTimeout: opTimeout}
}

func (r *PGRepository) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

const accountColumns = "id, email, password_hash, activation_code, is_activated, created_at"

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var createdAt pgtype.Timestamptz
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.ActivationCode, &a.IsActivated, &createdAt); err != nil {
		return nil, err
	}
	a.CreatedAt = createdAt.Time
	return &a, nil
}

// FindByIDAndEmail fetches a record scoped to its owner. A miss means
// either the id does not exist or it belongs to a different email; the
// two cases are indistinguishable on purpose.
func (r *PGRepository) FindByIDAndEmail(ctx context.Context, id int64, email string) (*Account, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 AND email = $2", id, email)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("accounts: find by id and email: %w", err)
	}
	return account, nil
}

// Insert persists a new pending account and returns the stored record.
// Constraint violations come back as typed errors so callers never
// inspect error prose.
func (r *PGRepository) Insert(ctx context.Context, email, passwordHash, code string) (*Account, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (email, password_hash, activation_code)
		 VALUES ($1, $2, $3)
		 RETURNING `+accountColumns, email, passwordHash, code)
	account, err := scanAccount(row)
	if err != nil {
		if typed := classifyInsertError(err); typed != nil {
			return nil, typed
		}
		return nil, fmt.Errorf("accounts: insert: %w", err)
	}
	return account, nil
}

// ListAll returns every account in creation order.
func (r *PGRepository) ListAll(ctx context.Context) ([]Account, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx,
		"SELECT "+accountColumns+" FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("accounts: list: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("accounts: list scan: %w", err)
		}
		out = append(out, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("accounts: list rows: %w", err)
	}
	return out, nil
}

// Activate is a single conditional update; the affected-row count
// distinguishes success from an account that was already activated.
func (r *PGRepository) Activate(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := r.opContext(ctx)
	defer cancel()

	tag, err := r.pool.Exec(ctx,
		"UPDATE accounts SET is_activated = true WHERE id = $1 AND NOT is_activated", id)
	if err != nil {
		return false, fmt.Errorf("accounts: activate: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// PostgreSQL error codes used by classifyInsertError.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgStringTooLong   = "22001"
)

func classifyInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrDuplicateEmail
	case pgStringTooLong:
		return ErrEmailTooLong
	case pgCheckViolation:
		switch pgErr.ConstraintName {
		case "accounts_email_format", "accounts_email_min_length":
			return ErrInvalidEmail
		}
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
