// Package notify delivers onboarding emails and notification events. Every
// send is best-effort: failures are logged and never propagate back into the
// mutation that triggered them.
package notify

import (
	"context"

	"carepath-portal/internal/domain"
)

// Notifier is the notification surface services call after a successful
// mutation. Implementations must not return errors to the caller.
type Notifier interface {
	SendWelcome(ctx context.Context, user *domain.User)
	SendApproval(ctx context.Context, user *domain.User)
	SendPasswordReset(ctx context.Context, user *domain.User, resetLink string)
	SendEmailVerification(ctx context.Context, user *domain.User, verifyLink string)
}

// Noop discards every notification. Used in tests and CLI contexts.
type Noop struct{}

var _ Notifier = Noop{}

func (Noop) SendWelcome(context.Context, *domain.User)                   {}
func (Noop) SendApproval(context.Context, *domain.User)                  {}
func (Noop) SendPasswordReset(context.Context, *domain.User, string)     {}
func (Noop) SendEmailVerification(context.Context, *domain.User, string) {}
