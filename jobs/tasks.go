// Package jobs carries background work: delivering activation codes by
// email, decoupled from the request path through an Asynq queue.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeActivationEmail is the task type for activation-code emails.
	TaskTypeActivationEmail = "mail:activation_code"
)

// ActivationEmailPayload describes an activation-code delivery.
type ActivationEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// NewActivationEmailTask constructs an Asynq task.
func NewActivationEmailTask(payload ActivationEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeActivationEmail, data), nil
}

// Mailer sends a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewActivationEmailHandler processes TaskTypeActivationEmail tasks
// through the given mailer.
func NewActivationEmailHandler(mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ActivationEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("jobs: activation email payload: %v: %w", err, asynq.SkipRetry)
		}
		subject := "Your activation code"
		body := fmt.Sprintf("Your activation code is %s. It expires shortly after signup.", payload.Code)
		if err := mailer.Send(ctx, payload.Email, subject, body); err != nil {
			return err
		}
		logger.Info("activation code email sent", slog.String("email", payload.Email))
		return nil
	}
}
