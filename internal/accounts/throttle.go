package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeAttemptLimiter caps activation attempts per account within a
// rolling window, backed by Redis. A 4-digit code is guessable by
// brute force without it.
type CodeAttemptLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewCodeAttemptLimiter constructs a limiter.
func NewCodeAttemptLimiter(client *redis.Client, maxAttempts int64, window time.Duration) *CodeAttemptLimiter {
	return &CodeAttemptLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// Allow records one attempt and reports whether it is within budget.
func (l *CodeAttemptLimiter) Allow(ctx context.Context, accountID int64) (bool, error) {
	key := fmt.Sprintf("signuphub:activation_attempts:%d", accountID)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("accounts: attempt counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("accounts: attempt expiry: %w", err)
		}
	}
	return count <= l.maxAttempts, nil
}

var _ AttemptLimiter = (*CodeAttemptLimiter)(nil)
