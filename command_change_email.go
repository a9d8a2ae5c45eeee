package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

type ChangeEmailMessage struct {
	UserID       string `json:"user_id"`
	SecurityCode string `json:"security_code"`
	Password     string `json:"password"`
	OnResponse   func(resp *ChangeEmailResponse)
}

func (m ChangeEmailMessage) Type() string { return "user.change_email" }

// Validate will run validation rules
func (m ChangeEmailMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.UserID, validation.Required),
		validation.Field(&m.SecurityCode, validation.Required),
		validation.Field(&m.Password, validation.Required),
	)
}

type ChangeEmailResponse struct {
	ReturnURL string
}

type ChangeEmailHandler struct {
	repo   UserRepository
	hasher CredentialHasher
	logger Logger
	now    func() time.Time
}

// NewChangeEmailHandler creates a handler with sane defaults
func NewChangeEmailHandler(repo UserRepository, hasher CredentialHasher) *ChangeEmailHandler {
	return &ChangeEmailHandler{
		repo:   repo,
		hasher: hasher,
		logger: defLogger{},
		now:    systemClock,
	}
}

// WithLogger overrides the logger used by the handler
func (h *ChangeEmailHandler) WithLogger(logger Logger) *ChangeEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *ChangeEmailHandler) WithClock(clock func() time.Time) *ChangeEmailHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ChangeEmailHandler) Execute(ctx context.Context, event ChangeEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email change")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangeEmailHandler) execute(ctx context.Context, event ChangeEmailMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByID(ctx, event.UserID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for email change")
	}

	if user == nil {
		return NewInvalidRequestError(map[string]string{"": "Cannot find user"})
	}

	// the return url must come from the exact entry that matched, not just
	// any valid confirm code on the user
	matched := user.FindValidCode(ConfirmEmailCode, event.SecurityCode, h.now())
	if matched == nil {
		return NewInvalidRequestError(map[string]string{"SecurityCode": "Security code is not correct"})
	}

	ok, err := h.hasher.Verify(event.Password, user.HashedPassword, user.Salt, user.PasswordProfileID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify credentials")
	}
	if !ok {
		return NewInvalidRequestError(map[string]string{"Password": "Password is not correct"})
	}

	resp := &ChangeEmailResponse{ReturnURL: matched.ReturnURL}

	user.Email = user.PendingEmail
	user.PendingEmail = ""
	user.ExpireSecurityCodesOfType(ConfirmEmailCode)

	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist email change")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
