package accounts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/signuphub/signuphub/internal/auth"
)

const passwordMinLength = 8

// Notifier delivers the activation code to a freshly created account.
// Best-effort: delivery failure never fails account creation.
type Notifier interface {
	NotifyActivationCode(ctx context.Context, email, code string) error
}

// AttemptLimiter throttles activation attempts per account.
type AttemptLimiter interface {
	Allow(ctx context.Context, accountID int64) (bool, error)
}

// ServiceConfig carries the tunables of the lifecycle service.
type ServiceConfig struct {
	// CodeValidityPeriod is how long after creation the activation
	// code stays usable.
	CodeValidityPeriod time.Duration
	// PasswordMaxLength bounds plaintext passwords. bcrypt only reads
	// the first 72 bytes, hence the default.
	PasswordMaxLength int
}

// Service orchestrates the account lifecycle: creation, lookup and the
// activation state machine.
type Service struct {
	repo     Repository
	notifier Notifier
	limiter  AttemptLimiter
	logger   *slog.Logger
	cfg      ServiceConfig
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs a Service. notifier and limiter may be nil.
func NewService(repo Repository, notifier Notifier, limiter AttemptLimiter, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.CodeValidityPeriod <= 0 {
		cfg.CodeValidityPeriod = 60 * time.Second
	}
	if cfg.PasswordMaxLength <= 0 {
		cfg.PasswordMaxLength = 72
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		limiter:  limiter,
		logger:   logger,
		cfg:      cfg,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Create registers a pending account and triggers the activation email.
// Password rules apply before any email validation, matching the order
// clients observe when both are wrong. Store failures keep their type
// so the boundary can answer precisely.
func (s *Service) Create(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	if req.Password == "" {
		return nil, ErrEmptyPassword
	}
	if len(req.Password) < passwordMinLength {
		return nil, ErrPasswordTooShort
	}
	if len(req.Password) > s.cfg.PasswordMaxLength {
		return nil, ErrPasswordTooLong
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, classifyValidationError(err)
	}

	code := GenerateCode()
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.Insert(ctx, req.Email, hash, code)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyActivationCode(ctx, account.Email, account.ActivationCode); err != nil {
			s.logger.Error("activation code notification failed",
				slog.String("email", account.Email), slog.Any("error", err))
		}
	}
	return account, nil
}

// Get returns the account with the given id, scoped to the requester.
// Someone else's id and a nonexistent id are the same ErrAccountNotFound.
func (s *Service) Get(ctx context.Context, id int64, principal string) (*Account, error) {
	return s.repo.FindByIDAndEmail(ctx, id, principal)
}

// List returns all accounts in creation order.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.ListAll(ctx)
}

// Activate runs the activation state machine. Checks apply in strict
// order: unknown account, throttle, wrong code, already activated,
// expired code. A correct-but-expired code stays expired forever; an
// already-activated account reports as such even past the window.
func (s *Service) Activate(ctx context.Context, id int64, code, principal string) error {
	account, err := s.repo.FindByIDAndEmail(ctx, id, principal)
	if err != nil {
		return err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, account.ID)
		if err != nil {
			// Throttle storage trouble must not block activation.
			s.logger.Warn("activation throttle unavailable", slog.Any("error", err))
		} else if !allowed {
			return ErrTooManyAttempts
		}
	}

	if account.ActivationCode != code {
		return ErrIncorrectCode
	}
	if account.IsActivated {
		return ErrAlreadyActivated
	}
	if s.now().Sub(account.CreatedAt) >= s.cfg.CodeValidityPeriod {
		return ErrCodeExpired
	}

	activated, err := s.repo.Activate(ctx, account.ID)
	if err != nil {
		return err
	}
	if !activated {
		// Lost a concurrent race; the other attempt won.
		return ErrAlreadyActivated
	}
	return nil
}

// classifyValidationError maps request-level failures onto the same
// typed errors the store constraints produce, max-length first, the
// way the database would report them.
func classifyValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Email" && fe.Tag() == "max" {
				return ErrEmailTooLong
			}
		}
	}
	return ErrInvalidEmail
}
