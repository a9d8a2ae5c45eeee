package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UserRepository loads and persists the user aggregate. Lookups report
// absence as a nil user with a nil error, persistence failures propagate.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
}

// SecuredCredential is the output of deriving a password hash
type SecuredCredential struct {
	Hash      string
	Salt      string
	ProfileID string
}

// CredentialHasher derives and verifies password hashes
type CredentialHasher interface {
	Hash(plaintext string) (*SecuredCredential, error)
	Verify(plaintext, hash, salt, profileID string) (bool, error)
}

// CodeGenerator produces random security code values
type CodeGenerator interface {
	GenerateAlphaNumeric(length int) string
}

// NotificationSender dispatches templated messages. Handlers await the
// call but do not inspect delivery outcome beyond the returned error.
type NotificationSender interface {
	Send(ctx context.Context, msg NotificationMessage) error
}

// EventPublisher receives account locked events so the notification
// pipeline can pick lockout vs resend-unlock messaging
type EventPublisher interface {
	Publish(ctx context.Context, event AccountLockedEvent) error
}

// Config holds account lifecycle options
type Config interface {
	GetAllowedFailedLoginAttempts() int
	GetSecurityCodeLength() int
	GetAccessCodeTTL() time.Duration
	GetConfirmEmailCodeTTL() time.Duration
	GetPasswordResetCodeTTL() time.Duration
	GetUnlockCodeTTL() time.Duration
	GetPasswordHistoryLimit() int
	GetRegistrationURL() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
