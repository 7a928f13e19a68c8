package accounts

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/signuphub/signuphub/internal/auth"
)

type stubRepo struct {
	accounts	map[int64]*Account
	insertErr	error
	inserted	*Account
	activateErr	error
	activatedIDs	[]int64
	forceNotFlip	bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{accounts: make(map[int64]*Account)}
}

func (s *stubRepo) FindByIDAndEmail(ctx context.Context, id int64, email string) (*Account, error) {
	if a, ok := s.accounts[id]; ok && a.Email == email {
		copied := *a
		return &copied, nil
	}
	return nil, ErrAccountNotFound
}

func (s *stubRepo) Insert(ctx context.Context, email, passwordHash, code string) (*Account, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	account := &Account{
		ID:             int64(len(s.accounts) + 1),
		Email:          email,
		PasswordHash:   passwordHash,
		ActivationCode: code,
		CreatedAt:      time.Now(),
	}
	s.accounts[account.ID] = account
	s.inserted = account
	return account, nil
}

func (s *stubRepo) ListAll(ctx context.Context) ([]Account, error) {
	out := make([]Account, 0, len(s.accounts))
	for id := int64(1); id <= int64(len(s.accounts)); id++ {
		out = append(out, *s.accounts[id])
	}
	return out, nil
}

func (s *stubRepo) Activate(ctx context.Context, id int64) (bool, error) {
	if s.activateErr != nil {
		return false, s.activateErr
	}
	if s.forceNotFlip {
		// Models a concurrent request winning the conditional update
		// between this call's read and write.
		return false, nil
	}
	s.activatedIDs = append(s.activatedIDs, id)
	a, ok := s.accounts[id]
	if !ok || a.IsActivated {
		return false, nil
	}
	a.IsActivated = true
	return true, nil
}

type stubNotifier struct {
	calls []ActivationEmailCall
	err   error
}

type ActivationEmailCall struct {
	Email string
	Code  string
}

func (n *stubNotifier) NotifyActivationCode(ctx context.Context, email, code string) error {
	n.calls = append(n.calls, ActivationEmailCall{Email: email, Code: code})
	return n.err
}

func newTestService(repo Repository, notifier Notifier) *Service {
	return NewService(repo, notifier, nil, nil, ServiceConfig{
		CodeValidityPeriod: 60 * time.Second,
		PasswordMaxLength:  72,
	})
}

func TestCreateRejectsEmptyPassword(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: "test@test.com", Password: ""})
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: "test@test.com", Password: "uu"})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCreateRejectsOverlongPassword(t *testing.T) {
	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: "test@test.com", Password: string(long)})
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestCreatePasswordChecksPrecedeEmailChecks(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: "not-an-email", Password: ""})
	require.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCreateRejectsMalformedEmail(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: "testtest.fr", Password: "testuser"})
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestCreateRejectsOverlongEmail(t *testing.T) {
	local := make([]byte, 57)
	for i := range local {
		local[i] = 'a'
	}
	svc := newTestService(newStubRepo(), nil)
	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: string(local) + "@test.fr", Password: "testuser"})
	require.ErrorIs(t, err, ErrEmailTooLong)
}

func TestCreateHashesPasswordAndStoresCode(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{}
	svc := newTestService(repo, notifier)

	account, err := svc.Create(context.Background(), CreateAccountRequest{Email: "test@test.com", Password: "testuser"})
	require.NoError(t, err)

	require.NotEqual(t, "testuser", repo.inserted.PasswordHash)
	require.True(t, auth.VerifyPassword("testuser", repo.inserted.PasswordHash))
	require.Regexp(t, regexp.MustCompile(`^[0-9]{4}$`), repo.inserted.ActivationCode)
	require.False(t, account.IsActivated)

	require.Len(t, notifier.calls, 1)
	require.Equal(t, "test@test.com", notifier.calls[0].Email)
	require.Equal(t, repo.inserted.ActivationCode, notifier.calls[0].Code)
}

func TestCreateNotifierFailureDoesNotFailCreation(t *testing.T) {
	repo := newStubRepo()
	notifier := &stubNotifier{err: errors.New("queue down")}
	svc := newTestService(repo, notifier)

	account, err := svc.Create(context.Background(), CreateAccountRequest{Email: "test@test.com", Password: "testuser"})
	require.NoError(t, err)
	require.NotNil(t, account)
}

func TestCreatePropagatesStoreErrors(t *testing.T) {
	repo := newStubRepo()
	repo.insertErr = ErrDuplicateEmail
	svc := newTestService(repo, nil)

	_, err := svc.Create(context.Background(), CreateAccountRequest{Email: "test@test.com", Password: "testuser"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetScopedToOwner(t *testing.T) {
	repo := newStubRepo()
	repo.accounts[1] = &Account{ID: 1, Email: "a@x.com"}
	repo.accounts[2] = &Account{ID: 2, Email: "b@x.com"}
	svc := newTestService(repo, nil)

	account, err := svc.Get(context.Background(), 1, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "a@x.com", account.Email)

	// Someone else's id and a nonexistent id look identical.
	_, err = svc.Get(context.Background(), 2, "a@x.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
	_, err = svc.Get(context.Background(), 99, "a@x.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func pendingAccount(repo *stubRepo, createdAt time.Time) *Account {
	account := &Account{
		ID:             1,
		Email:          "test@test.com",
		ActivationCode: "0042",
		CreatedAt:      createdAt,
	}
	repo.accounts[1] = account
	return account
}

func TestActivateUnknownAccount(t *testing.T) {
	svc := newTestService(newStubRepo(), nil)
	err := svc.Activate(context.Background(), 1, "0042", "test@test.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestActivateWrongOwnerLooksUnknown(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now())
	svc := newTestService(repo, nil)

	err := svc.Activate(context.Background(), 1, "0042", "other@test.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestActivateIncorrectCode(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now())
	svc := newTestService(repo, nil)

	err := svc.Activate(context.Background(), 1, "9999", "test@test.com")
	require.ErrorIs(t, err, ErrIncorrectCode)
}

func TestActivateSucceedsThenReportsAlreadyActivated(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now())
	svc := newTestService(repo, nil)

	require.NoError(t, svc.Activate(context.Background(), 1, "0042", "test@test.com"))
	err := svc.Activate(context.Background(), 1, "0042", "test@test.com")
	require.ErrorIs(t, err, ErrAlreadyActivated)

	// Only the first attempt reached the conditional update; the
	// second stopped at the state check.
	require.Equal(t, []int64{1}, repo.activatedIDs)
}

func TestActivateAlreadyActivatedReportedBeforeExpiry(t *testing.T) {
	repo := newStubRepo()
	account := pendingAccount(repo, time.Now().Add(-time.Hour))
	account.IsActivated = true
	svc := newTestService(repo, nil)

	// An activated user past the window must not see an expiry message.
	err := svc.Activate(context.Background(), 1, "0042", "test@test.com")
	require.ErrorIs(t, err, ErrAlreadyActivated)
}

func TestActivateIncorrectCodeReportedBeforeExpiry(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now().Add(-time.Hour))
	svc := newTestService(repo, nil)

	err := svc.Activate(context.Background(), 1, "9999", "test@test.com")
	require.ErrorIs(t, err, ErrIncorrectCode)
}

func TestActivateExpiryBoundary(t *testing.T) {
	repo := newStubRepo()
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pendingAccount(repo, created)
	svc := newTestService(repo, nil)

	// One tick inside the window succeeds.
	svc.now = func() time.Time { return created.Add(60*time.Second - time.Nanosecond) }
	require.NoError(t, svc.Activate(context.Background(), 1, "0042", "test@test.com"))

	// At exactly the window the never-used code is dead for good.
	repo2 := newStubRepo()
	pendingAccount(repo2, created)
	svc2 := newTestService(repo2, nil)
	svc2.now = func() time.Time { return created.Add(60 * time.Second) }
	err := svc2.Activate(context.Background(), 1, "0042", "test@test.com")
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestActivateLostRaceReportsAlreadyActivated(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now())
	repo.forceNotFlip = true
	svc := newTestService(repo, nil)

	err := svc.Activate(context.Background(), 1, "0042", "test@test.com")
	require.ErrorIs(t, err, ErrAlreadyActivated)
}

type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, accountID int64) (bool, error) {
	return false, nil
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, accountID int64) (bool, error) {
	return false, errors.New("redis down")
}

func TestActivateThrottled(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now())
	svc := newTestService(repo, nil)
	svc.limiter = denyLimiter{}

	err := svc.Activate(context.Background(), 1, "0042", "test@test.com")
	require.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestActivateLimiterFailureDoesNotBlock(t *testing.T) {
	repo := newStubRepo()
	pendingAccount(repo, time.Now())
	svc := newTestService(repo, nil)
	svc.limiter = failingLimiter{}

	require.NoError(t, svc.Activate(context.Background(), 1, "0042", "test@test.com"))
}
