package identity

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

type AuthenticateUserMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	ReturnURL  string `json:"return_url"`
	OnResponse func(resp *AuthenticateUserResponse)
}

func (m AuthenticateUserMessage) Type() string { return "user.authenticate" }

// Validate will run validation rules
func (m AuthenticateUserMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required),
	)
}

// AuthenticateUserResponse carries the matched user. A nil User means
// unknown account or wrong password, callers must not tell those apart.
type AuthenticateUserResponse struct {
	User *User
}

type AuthenticateUserHandler struct {
	repo   UserRepository
	hasher CredentialHasher
	config Config
	events EventPublisher
	logger Logger
	now    func() time.Time
}

// NewAuthenticateUserHandler creates a handler with sane defaults
func NewAuthenticateUserHandler(repo UserRepository, hasher CredentialHasher, config Config) *AuthenticateUserHandler {
	return &AuthenticateUserHandler{
		repo:   repo,
		hasher: hasher,
		config: config,
		events: noopEventPublisher{},
		logger: defLogger{},
		now:    systemClock,
	}
}

// WithEventPublisher sets the publisher for account locked events
func (h *AuthenticateUserHandler) WithEventPublisher(publisher EventPublisher) *AuthenticateUserHandler {
	h.events = normalizeEventPublisher(publisher)
	return h
}

// WithLogger overrides the logger used by the handler
func (h *AuthenticateUserHandler) WithLogger(logger Logger) *AuthenticateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *AuthenticateUserHandler) WithClock(clock func() time.Time) *AuthenticateUserHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *AuthenticateUserHandler) Execute(ctx context.Context, event AuthenticateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during authentication")
	default:
		return h.execute(ctx, event)
	}
}

func (h *AuthenticateUserHandler) execute(ctx context.Context, event AuthenticateUserMessage) error {
	h.logger.Debug("authenticate user %s", event.Email)

	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	user, err := h.repo.GetByEmail(ctx, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for authentication")
	}

	if user == nil {
		h.respond(event, nil)
		return nil
	}

	// locked accounts short circuit before any hashing work, otherwise a
	// locked user would also accrue another failed attempt here
	if user.IsLocked {
		return NewAccountLockedError(user)
	}

	match, err := h.hasher.Verify(event.Password, user.HashedPassword, user.Salt, user.PasswordProfileID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify credentials")
	}

	if !match {
		if err := h.processFailedLogin(ctx, user, event.ReturnURL); err != nil {
			return err
		}
		h.respond(event, nil)
		return nil
	}

	if user.FailedLoginAttempts > 0 {
		user.FailedLoginAttempts = 0
		if err := h.repo.Update(ctx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reset login attempts")
		}
	}

	h.respond(event, user)

	return nil
}

// processFailedLogin increments the counter and persists, then applies the
// lock in a second write. A crash between the two loses the lock flag but
// never the attempt count.
func (h *AuthenticateUserHandler) processFailedLogin(ctx context.Context, user *User, returnURL string) error {
	user.FailedLoginAttempts++
	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record login attempt")
	}

	if user.FailedLoginAttempts < h.config.GetAllowedFailedLoginAttempts() {
		return nil
	}

	h.logger.Info("locking user %s (id: %s)", user.Email, user.ID)

	user.IsLocked = true
	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist account lock")
	}

	if err := h.events.Publish(ctx, AccountLockedEvent{User: user, ReturnURL: returnURL}); err != nil {
		h.logger.Warn("account locked event publish error: %v", err)
	}

	return NewAccountLockedError(user)
}

func (h *AuthenticateUserHandler) respond(event AuthenticateUserMessage, user *User) {
	if event.OnResponse != nil {
		event.OnResponse(&AuthenticateUserResponse{User: user})
	}
}
