package identity

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ActivateUserMessage struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
	OnResponse func(resp *ActivateUserResponse)
}

func (m ActivateUserMessage) Type() string { return "user.activate" }

// Validate requires either an email on its own (the link-less path) or a
// user id paired with an access code
func (m ActivateUserMessage) Validate() error {
	if m.Email != "" && m.UserID == "" && m.AccessCode == "" {
		return nil
	}

	fields := map[string]string{}
	if m.UserID == "" {
		fields["UserId"] = "User id is required"
	}
	if m.AccessCode == "" {
		fields["AccessCode"] = "Access code is required"
	}

	if len(fields) > 0 {
		return NewInvalidRequestError(fields)
	}

	return nil
}

type ActivateUserResponse struct {
	ReturnURL string
}

type ActivateUserHandler struct {
	repo   UserRepository
	logger Logger
	now    func() time.Time
}

// NewActivateUserHandler creates a handler with sane defaults
func NewActivateUserHandler(repo UserRepository) *ActivateUserHandler {
	return &ActivateUserHandler{
		repo:   repo,
		logger: defLogger{},
		now:    systemClock,
	}
}

// WithLogger overrides the logger used by the handler
func (h *ActivateUserHandler) WithLogger(logger Logger) *ActivateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *ActivateUserHandler) WithClock(clock func() time.Time) *ActivateUserHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *ActivateUserHandler) Execute(ctx context.Context, event ActivateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user activation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateUserHandler) execute(ctx context.Context, event ActivateUserMessage) error {
	h.logger.Debug("activate user id=%s email=%s", event.UserID, event.Email)

	if err := event.Validate(); err != nil {
		return err
	}

	// the email-only lookup supports activation without a link and has to
	// stay even though it is the weaker path
	var user *User
	var err error
	if event.Email != "" && event.UserID == "" && event.AccessCode == "" {
		user, err = h.repo.GetByEmail(ctx, event.Email)
	} else {
		user, err = h.repo.GetByID(ctx, event.UserID)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for activation")
	}

	if user == nil {
		return NewInvalidRequestError(map[string]string{"": "Cannot find user"})
	}

	// the return url travels back even when activation already happened
	resp := &ActivateUserResponse{}
	matched := user.FindValidCode(AccessCode, event.AccessCode, h.now())
	if matched != nil {
		resp.ReturnURL = matched.ReturnURL
	}

	// re-activation is idempotent, any access code yields the same success
	if user.IsActive {
		h.respond(event, resp)
		return nil
	}

	if event.AccessCode != "" && matched == nil {
		return NewInvalidRequestError(map[string]string{"AccessCode": "Access code is not correct"})
	}

	user.IsActive = true
	user.ExpireSecurityCodesOfType(AccessCode)

	if err := h.repo.Update(ctx, user); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user activation")
	}

	h.respond(event, resp)

	return nil
}

func (h *ActivateUserHandler) respond(event ActivateUserMessage, resp *ActivateUserResponse) {
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}
}
