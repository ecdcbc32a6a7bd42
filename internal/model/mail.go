package model

import "context"

// Notifier sends the account lifecycle emails. Callers treat failures as best-effort.
type Notifier interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
	SendWelcome(ctx context.Context, to, name string) error
}
