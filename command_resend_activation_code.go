package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type ResendActivationCodeMessage struct {
	UserID    string `json:"user_id"`
	ReturnURL string `json:"return_url"`
}

func (m ResendActivationCodeMessage) Type() string { return "user.resend_activation_code" }

// Validate will run validation rules
func (m ResendActivationCodeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.UserID, validation.Required),
	)
}

type ResendActivationCodeHandler struct {
	repo     UserRepository
	codes    CodeGenerator
	config   Config
	notifier NotificationSender
	logger   Logger
	now      func() time.Time
}

// NewResendActivationCodeHandler creates a handler with sane defaults
func NewResendActivationCodeHandler(repo UserRepository, codes CodeGenerator, config Config) *ResendActivationCodeHandler {
	return &ResendActivationCodeHandler{
		repo:     repo,
		codes:    codes,
		config:   config,
		notifier: noopNotificationSender{},
		logger:   defLogger{},
		now:      systemClock,
	}
}

// WithNotificationSender sets the sender for the activation message
func (h *ResendActivationCodeHandler) WithNotificationSender(sender NotificationSender) *ResendActivationCodeHandler {
	h.notifier = normalizeNotificationSender(sender)
	return h
}

// WithLogger overrides the logger used by the handler
func (h *ResendActivationCodeHandler) WithLogger(logger Logger) *ResendActivationCodeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *ResendActivationCodeHandler) WithClock(clock func() time.Time) *ResendActivationCodeHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ResendActivationCodeHandler) Execute(ctx context.Context, event ResendActivationCodeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during activation code resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendActivationCodeHandler) execute(ctx context.Context, event ResendActivationCodeMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByID(ctx, event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for activation code resend")
	}

	if user == nil {
		return NewInvalidRequestError(map[string]string{"UserNotFound": "User not found"})
	}

	if user.IsActive {
		return nil
	}

	// an outstanding valid code is re-sent as is so previously delivered
	// links keep working, a fresh one is issued only when none is left
	code := user.ValidCodeOfType(AccessCode, h.now())
	if code == nil {
		user.AddSecurityCode(SecurityCode{
			Code:       h.codes.GenerateAlphaNumeric(h.config.GetSecurityCodeLength()),
			CodeType:   AccessCode,
			ExpiryTime: h.now().Add(h.config.GetAccessCodeTTL()),
			ReturnURL:  event.ReturnURL,
		})
		if err := h.repo.Update(ctx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new activation code")
		}
		code = user.ValidCodeOfType(AccessCode, h.now())
	}

	err = h.notifier.Send(ctx, NotificationMessage{
		Kind:          NotificationResendActivationCode,
		User:          user,
		CorrelationID: uuid.New().String(),
		Data:          map[string]string{"access_code": code.Code, "return_url": code.ReturnURL},
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send activation code notification")
	}

	return nil
}
