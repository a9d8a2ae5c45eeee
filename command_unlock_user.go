package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type UnlockUserMessage struct {
	Email      string `json:"email"`
	UnlockCode string `json:"unlock_code"`
}

func (m UnlockUserMessage) Type() string { return "user.unlock" }

// Validate will run validation rules
func (m UnlockUserMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.UnlockCode, validation.Required),
	)
}

// ValidateCode is the second validation stage, run once the user has been
// loaded. Keeping the code check here leaves the handler a pure state
// transition.
func (m UnlockUserMessage) ValidateCode(user *User, now time.Time) error {
	if user.FindValidCode(UnlockCode, m.UnlockCode, now) == nil {
		return NewInvalidRequestError(map[string]string{"UnlockCode": "Unlock code is not correct"})
	}
	return nil
}

type UnlockUserHandler struct {
	repo   UserRepository
	logger Logger
	now    func() time.Time
}

// NewUnlockUserHandler creates a handler with sane defaults
func NewUnlockUserHandler(repo UserRepository) *UnlockUserHandler {
	return &UnlockUserHandler{
		repo:   repo,
		logger: defLogger{},
		now:    systemClock,
	}
}

// WithLogger overrides the logger used by the handler
func (h *UnlockUserHandler) WithLogger(logger Logger) *UnlockUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *UnlockUserHandler) WithClock(clock func() time.Time) *UnlockUserHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *UnlockUserHandler) Execute(ctx context.Context, event UnlockUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user unlock")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UnlockUserHandler) execute(ctx context.Context, event UnlockUserMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByEmail(ctx, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for unlock")
	}

	// a missing user is a silent no-op, an error here would confirm which
	// addresses have accounts
	if user == nil {
		return nil
	}

	if err := event.ValidateCode(user, h.now()); err != nil {
		return err
	}

	user.IsLocked = false
	user.FailedLoginAttempts = 0
	user.ExpireSecurityCodesOfType(UnlockCode)

	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user unlock")
	}

	return nil
}
