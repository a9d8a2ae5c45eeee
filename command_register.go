package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

type RegisterUserMessage struct {
	ID              string `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ReturnURL       string `json:"return_url"`
	OnResponse      func(resp *RegisterUserResponse)
}

func (m RegisterUserMessage) Type() string { return "user.register" }

// Validate will run validation rules
func (m RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&m.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(m.Password)),
		),
	)
}

type RegisterUserResponse struct {
	User *User
}

type RegisterUserHandler struct {
	repo     UserRepository
	hasher   CredentialHasher
	codes    CodeGenerator
	config   Config
	notifier NotificationSender
	logger   Logger
	now      func() time.Time
}

// NewRegisterUserHandler creates a handler with sane defaults
func NewRegisterUserHandler(repo UserRepository, hasher CredentialHasher, codes CodeGenerator, config Config) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:     repo,
		hasher:   hasher,
		codes:    codes,
		config:   config,
		notifier: noopNotificationSender{},
		logger:   defLogger{},
		now:      systemClock,
	}
}

// WithNotificationSender sets the sender for the registration message
func (h *RegisterUserHandler) WithNotificationSender(sender NotificationSender) *RegisterUserHandler {
	h.notifier = normalizeNotificationSender(sender)
	return h
}

// WithLogger overrides the logger used by the handler
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock injects a custom clock (useful for tests)
func (h *RegisterUserHandler) WithClock(clock func() time.Time) *RegisterUserHandler {
	if clock != nil {
		h.now = clock
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during user registration")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return invalidRequestFromValidation(err)
	}

	credential, err := h.hasher.Hash(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		ID:                event.ID,
		Email:             event.Email,
		FirstName:         event.FirstName,
		LastName:          event.LastName,
		HashedPassword:    credential.Hash,
		Salt:              credential.Salt,
		PasswordProfileID: credential.ProfileID,
	}

	if user.ID == "" {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			user.ID = id.String()
		} else {
			user.ID = uuid.New().String()
		}
	}

	accessCode := SecurityCode{
		Code:       h.codes.GenerateAlphaNumeric(h.config.GetSecurityCodeLength()),
		CodeType:   AccessCode,
		ExpiryTime: h.now().Add(h.config.GetAccessCodeTTL()),
		ReturnURL:  event.ReturnURL,
	}
	user.AddSecurityCode(accessCode)

	// persistence and the registration notification run concurrently and
	// both must finish before returning, there is no compensating rollback
	// when only one of them fails
	var wg sync.WaitGroup
	var createErr, notifyErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		createErr = h.repo.Create(ctx, user)
	}()
	go func() {
		defer wg.Done()
		notifyErr = h.notifier.Send(ctx, NotificationMessage{
			Kind:          NotificationUserRegistration,
			User:          user,
			CorrelationID: uuid.New().String(),
			Data:          map[string]string{"access_code": accessCode.Code, "return_url": accessCode.ReturnURL},
		})
	}()
	wg.Wait()

	if createErr != nil {
		return goerrors.Wrap(createErr, goerrors.CategoryConflict, "could not create user")
	}
	if notifyErr != nil {
		return goerrors.Wrap(notifyErr, goerrors.CategoryInternal, "failed to send registration notification")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{User: user})
	}

	return nil
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
