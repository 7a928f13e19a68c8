package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubCredentials struct {
	hash string
	err  error
}

func (s stubCredentials) CredentialByEmail(ctx context.Context, email string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.hash, nil
}

func TestAuthenticateSuccess(t *testing.T) {
	hash, err := HashPassword("testuser")
	require.NoError(t, err)
	gate := NewGate(stubCredentials{hash: hash})

	principal, err := gate.Authenticate(context.Background(), "test@test.com", "testuser")
	require.NoError(t, err)
	require.Equal(t, "test@test.com", principal)
}

func TestAuthenticateCollapsesFailureModes(t *testing.T) {
	hash, err := HashPassword("testuser")
	require.NoError(t, err)

	// Unknown identifier and wrong password are indistinguishable.
	unknown := NewGate(stubCredentials{err: ErrInvalidCredentials})
	_, err = unknown.Authenticate(context.Background(), "nobody@test.com", "testuser")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	known := NewGate(stubCredentials{hash: hash})
	_, err = known.Authenticate(context.Background(), "test@test.com", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticatePassesThroughInfrastructureErrors(t *testing.T) {
	boom := errors.New("connection refused")
	gate := NewGate(stubCredentials{err: boom})

	_, err := gate.Authenticate(context.Background(), "test@test.com", "testuser")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateMalformedStoredHash(t *testing.T) {
	gate := NewGate(stubCredentials{hash: "corrupted"})

	_, err := gate.Authenticate(context.Background(), "test@test.com", "testuser")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
