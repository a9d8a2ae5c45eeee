package identity

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type ResendUnlockCodeMessage struct {
	Email     string `json:"email"`
	ReturnURL string `json:"return_url"`
}

func (m ResendUnlockCodeMessage) Type() string { return "user.resend_unlock_code" }

// Validate will run validation rules
func (m ResendUnlockCodeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
	)
}

// ResendUnlockCodeHandler republishes the account locked event with the
// resend flag set. The notification pipeline re-sends the unlock code, no
// failure counter is touched and nothing is persisted here.
type ResendUnlockCodeHandler struct {
	events EventPublisher
	logger Logger
}

// NewResendUnlockCodeHandler creates a handler with sane defaults
func NewResendUnlockCodeHandler(events EventPublisher) *ResendUnlockCodeHandler {
	return &ResendUnlockCodeHandler{
		events: normalizeEventPublisher(events),
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler
func (h *ResendUnlockCodeHandler) WithLogger(logger Logger) *ResendUnlockCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendUnlockCodeHandler) Execute(ctx context.Context, event ResendUnlockCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during unlock code resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendUnlockCodeHandler) execute(ctx context.Context, event ResendUnlockCodeMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	err := h.events.Publish(ctx, AccountLockedEvent{
		User:             &User{Email: event.Email},
		ReturnURL:        event.ReturnURL,
		ResendUnlockCode: true,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to publish unlock code resend event")
	}

	return nil
}
