package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type RequestChangeEmailMessage struct {
	UserID          string `json:"user_id"`
	NewEmailAddress string `json:"new_email_address"`
	ReturnURL       string `json:"return_url"`
}

func (m RequestChangeEmailMessage) Type() string { return "user.request_change_email" }

// Validate will run validation rules
func (m RequestChangeEmailMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.UserID, validation.Required),
		validation.Field(&m.NewEmailAddress, validation.Required, is.Email),
	)
}

type RequestChangeEmailHandler struct {
	repo     UserRepository
	codes    CodeGenerator
	config   Config
	notifier NotificationSender
	logger   Logger
	now      func() time.Time
}

// NewRequestChangeEmailHandler creates a handler with sane defaults
func NewRequestChangeEmailHandler(repo UserRepository, codes CodeGenerator, config Config) *RequestChangeEmailHandler {
	return &RequestChangeEmailHandler{
		repo:     repo,
		codes:    codes,
		config:   config,
		notifier: noopNotificationSender{},
		logger:   defLogger{},
		now:      systemClock,
	}
}

// WithNotificationSender sets the sender for the confirmation message
func (h *RequestChangeEmailHandler) WithNotificationSender(sender NotificationSender) *RequestChangeEmailHandler {
	h.notifier = normalizeNotificationSender(sender)
	return h
}

// WithLogger overrides the logger used by the handler
func (h *RequestChangeEmailHandler) WithLogger(logger Logger) *RequestChangeEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *RequestChangeEmailHandler) WithClock(clock func() time.Time) *RequestChangeEmailHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *RequestChangeEmailHandler) Execute(ctx context.Context, event RequestChangeEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during change email request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestChangeEmailHandler) execute(ctx context.Context, event RequestChangeEmailMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByID(ctx, event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for email change")
	}

	// unlike the unlock flow a missing user is an explicit failure here,
	// the caller is already authenticated so there is nothing to hide
	if user == nil {
		return NewInvalidRequestError(map[string]string{"": "Cannot find user"})
	}

	code := SecurityCode{
		Code:       h.codes.GenerateAlphaNumeric(h.config.GetSecurityCodeLength()),
		CodeType:   ConfirmEmailCode,
		ExpiryTime: h.now().Add(h.config.GetConfirmEmailCodeTTL()),
		ReturnURL:  event.ReturnURL,
	}

	user.PendingEmail = event.NewEmailAddress
	user.AddSecurityCode(code)

	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist email change request")
	}

	err = h.notifier.Send(ctx, NotificationMessage{
		Kind:          NotificationConfirmEmailChange,
		User:          user,
		Email:         event.NewEmailAddress,
		CorrelationID: uuid.New().String(),
		Data:          map[string]string{"confirm_code": code.Code, "return_url": code.ReturnURL},
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send email change confirmation")
	}

	return nil
}
