package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type RequestPasswordResetCodeMessage struct {
	Email     string `json:"email"`
	ReturnURL string `json:"return_url"`
}

func (m RequestPasswordResetCodeMessage) Type() string { return "user.request_password_reset" }

// Validate will run validation rules
func (m RequestPasswordResetCodeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
	)
}

type RequestPasswordResetCodeHandler struct {
	repo     UserRepository
	codes    CodeGenerator
	config   Config
	notifier NotificationSender
	logger   Logger
	now      func() time.Time
}

// NewRequestPasswordResetCodeHandler creates a handler with sane defaults
func NewRequestPasswordResetCodeHandler(repo UserRepository, codes CodeGenerator, config Config) *RequestPasswordResetCodeHandler {
	return &RequestPasswordResetCodeHandler{
		repo:     repo,
		codes:    codes,
		config:   config,
		notifier: noopNotificationSender{},
		logger:   defLogger{},
		now:      systemClock,
	}
}

// WithNotificationSender sets the sender for reset messaging
func (h *RequestPasswordResetCodeHandler) WithNotificationSender(sender NotificationSender) *RequestPasswordResetCodeHandler {
	h.notifier = normalizeNotificationSender(sender)
	return h
}

// WithLogger overrides the logger used by the handler
func (h *RequestPasswordResetCodeHandler) WithLogger(logger Logger) *RequestPasswordResetCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *RequestPasswordResetCodeHandler) WithClock(clock func() time.Time) *RequestPasswordResetCodeHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *RequestPasswordResetCodeHandler) Execute(ctx context.Context, event RequestPasswordResetCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetCodeHandler) execute(ctx context.Context, event RequestPasswordResetCodeMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByEmail(ctx, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	// the unknown branch sends its own copy and never touches storage, the
	// response shape matches the known branch so accounts cannot be
	// enumerated from this endpoint
	if user == nil {
		err := h.notifier.Send(ctx, NotificationMessage{
			Kind:          NotificationNoAccountPasswordReset,
			Email:         event.Email,
			CorrelationID: uuid.New().String(),
			Data:          map[string]string{"registration_url": h.config.GetRegistrationURL()},
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset notification")
		}
		return nil
	}

	// an in-flight reset keeps its code so already delivered links stay
	// valid, expired entries are ignored rather than purged
	code := user.ValidCodeOfType(PasswordResetCode, h.now())
	if code == nil {
		user.AddSecurityCode(SecurityCode{
			Code:       h.codes.GenerateAlphaNumeric(h.config.GetSecurityCodeLength()),
			CodeType:   PasswordResetCode,
			ExpiryTime: h.now().Add(h.config.GetPasswordResetCodeTTL()),
			ReturnURL:  event.ReturnURL,
		})
		if err := h.repo.Update(ctx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset code")
		}
		code = user.ValidCodeOfType(PasswordResetCode, h.now())
	}

	err = h.notifier.Send(ctx, NotificationMessage{
		Kind:          NotificationPasswordResetCode,
		User:          user,
		CorrelationID: uuid.New().String(),
		Data:          map[string]string{"reset_code": code.Code, "return_url": code.ReturnURL},
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send password reset notification")
	}

	return nil
}
