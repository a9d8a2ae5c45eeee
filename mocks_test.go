package identity_test

import (
	"context"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/mock"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockUserRepository implements identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	args := m.Called(ctx, id)
	var user *identity.User
	if v := args.Get(0); v != nil {
		user = v.(*identity.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	var user *identity.User
	if v := args.Get(0); v != nil {
		user = v.(*identity.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockCredentialHasher implements identity.CredentialHasher
type MockCredentialHasher struct {
	mock.Mock
}

func (m *MockCredentialHasher) Hash(plaintext string) (*identity.SecuredCredential, error) {
	args := m.Called(plaintext)
	var cred *identity.SecuredCredential
	if v := args.Get(0); v != nil {
		cred = v.(*identity.SecuredCredential)
	}
	return cred, args.Error(1)
}

func (m *MockCredentialHasher) Verify(plaintext, hash, salt, profileID string) (bool, error) {
	args := m.Called(plaintext, hash, salt, profileID)
	return args.Bool(0), args.Error(1)
}

// MockCodeGenerator implements identity.CodeGenerator
type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) GenerateAlphaNumeric(length int) string {
	args := m.Called(length)
	return args.String(0)
}

// MockNotificationSender implements identity.NotificationSender
type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) Send(ctx context.Context, msg identity.NotificationMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockEventPublisher implements identity.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event identity.AccountLockedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
