package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type ResetPasswordMessage struct {
	Email             string `json:"email"`
	PasswordResetCode string `json:"password_reset_code"`
	Password          string `json:"password"`
	ConfirmPassword   string `json:"confirm_password"`
}

func (m ResetPasswordMessage) Type() string { return "user.reset_password" }

// Validate will run validation rules
func (m ResetPasswordMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.PasswordResetCode, validation.Required),
		validation.Field(&m.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&m.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(m.Password)),
		),
	)
}

type ResetPasswordHandler struct {
	repo   UserRepository
	hasher CredentialHasher
	config Config
	logger Logger
	now    func() time.Time
}

// NewResetPasswordHandler creates a handler with sane defaults
func NewResetPasswordHandler(repo UserRepository, hasher CredentialHasher, config Config) *ResetPasswordHandler {
	return &ResetPasswordHandler{
		repo:   repo,
		hasher: hasher,
		config: config,
		logger: defLogger{},
		now:    systemClock,
	}
}

// WithLogger overrides the logger used by the handler
func (h *ResetPasswordHandler) WithLogger(logger Logger) *ResetPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *ResetPasswordHandler) WithClock(clock func() time.Time) *ResetPasswordHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ResetPasswordHandler) Execute(ctx context.Context, event ResetPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResetPasswordHandler) execute(ctx context.Context, event ResetPasswordMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByEmail(ctx, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	// a missing account reports the same error as a wrong code so the
	// endpoint does not confirm which addresses exist
	if user == nil || user.FindValidCode(PasswordResetCode, event.PasswordResetCode, h.now()) == nil {
		return NewInvalidRequestError(map[string]string{"PasswordResetCode": "Reset code is not correct"})
	}

	reused, err := h.isHistoricalPassword(user, event.Password)
	if err != nil {
		return err
	}
	if reused {
		return NewInvalidRequestError(map[string]string{"Password": "Password has been used too recently"})
	}

	credential, err := h.hasher.Hash(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user.RetireCredential(h.now())
	user.HashedPassword = credential.Hash
	user.Salt = credential.Salt
	user.PasswordProfileID = credential.ProfileID
	user.RequiresPasswordReset = false
	user.FailedLoginAttempts = 0
	user.ExpireSecurityCodesOfType(PasswordResetCode)

	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password reset")
	}

	return nil
}

// isHistoricalPassword checks the candidate against the current credential
// and the configured window of retired ones
func (h *ResetPasswordHandler) isHistoricalPassword(user *User, candidate string) (bool, error) {
	if user.HashedPassword != "" {
		match, err := h.hasher.Verify(candidate, user.HashedPassword, user.Salt, user.PasswordProfileID)
		if err != nil {
			return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check password history")
		}
		if match {
			return true, nil
		}
	}

	history := user.PasswordHistory
	if limit := h.config.GetPasswordHistoryLimit(); len(history) > limit {
		history = history[len(history)-limit:]
	}

	for _, old := range history {
		match, err := h.hasher.Verify(candidate, old.Hash, old.Salt, old.ProfileID)
		if err != nil {
			return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check password history")
		}
		if match {
			return true, nil
		}
	}

	return false, nil
}
