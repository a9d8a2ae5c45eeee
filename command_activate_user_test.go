package identity_test

import (
	"context"
	"testing"
	"time"

	identity "github.com/goliatone/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivateUserWithAccessCode(t *testing.T) {
	repo := &MockUserRepository{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	handler := identity.NewActivateUserHandler(repo).
		WithLogger(testLogger{}).
		WithClock(func() time.Time { return now })

	user := &identity.User{
		ID: "u1",
		SecurityCodes: []identity.SecurityCode{
			{Code: "ABC123", CodeType: identity.AccessCode, ExpiryTime: now.Add(time.Hour), ReturnURL: "http://return.here"},
			{Code: "KEEPME", CodeType: identity.PasswordResetCode, ExpiryTime: now.Add(time.Hour)},
		},
	}

	repo.On("GetByID", mock.Anything, "u1").Return(user, nil).Once()
	repo.On("Update", mock.Anything, user).Return(nil).Once()

	var resp *identity.ActivateUserResponse
	err := handler.Execute(context.Background(), identity.ActivateUserMessage{
		UserID:     "u1",
		AccessCode: "abc123",
		OnResponse: func(r *identity.ActivateUserResponse) { resp = r },
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "http://return.here", resp.ReturnURL)
	assert.True(t, user.IsActive)

	// all access codes are consumed, other types stay
	require.Len(t, user.SecurityCodes, 1)
	assert.Equal(t, identity.PasswordResetCode, user.SecurityCodes[0].CodeType)

	repo.AssertExpectations(t)
}

func TestActivateUserIsIdempotentWhenAlreadyActive(t *testing.T) {
	repo := &MockUserRepository{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	handler := identity.NewActivateUserHandler(repo).
		WithLogger(testLogger{}).
		WithClock(func() time.Time { return now })

	user := &identity.User{
		ID:       "u1",
		IsActive: true,
		SecurityCodes: []identity.SecurityCode{
			{Code: "ABC123", CodeType: identity.AccessCode, ExpiryTime: now.Add(time.Hour), ReturnURL: "http://return.here"},
		},
	}

	repo.On("GetByID", mock.Anything, "u1").Return(user, nil).Twice()

	for i := 0; i < 2; i++ {
		var resp *identity.ActivateUserResponse
		err := handler.Execute(context.Background(), identity.ActivateUserMessage{
			UserID:     "u1",
			AccessCode: "ABC123",
			OnResponse: func(r *identity.ActivateUserResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, "http://return.here", resp.ReturnURL)
	}

	assert.Len(t, user.SecurityCodes, 1)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestActivateUserByEmailOnly(t *testing.T) {
	repo := &MockUserRepository{}

	handler := identity.NewActivateUserHandler(repo).WithLogger(testLogger{})

	user := &identity.User{ID: "u1", Email: "user@test.local"}
	repo.On("GetByEmail", mock.Anything, "user@test.local").Return(user, nil).Once()
	repo.On("Update", mock.Anything, user).Return(nil).Once()

	err := handler.Execute(context.Background(), identity.ActivateUserMessage{
		Email: "user@test.local",
	})

	require.NoError(t, err)
	assert.True(t, user.IsActive)

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestActivateUserWrongCode(t *testing.T) {
	repo := &MockUserRepository{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	handler := identity.NewActivateUserHandler(repo).
		WithLogger(testLogger{}).
		WithClock(func() time.Time { return now })

	user := &identity.User{
		ID: "u1",
		SecurityCodes: []identity.SecurityCode{
			{Code: "ABC123", CodeType: identity.AccessCode, ExpiryTime: now.Add(time.Hour)},
		},
	}

	repo.On("GetByID", mock.Anything, "u1").Return(user, nil).Once()

	err := handler.Execute(context.Background(), identity.ActivateUserMessage{
		UserID:     "u1",
		AccessCode: "NOPE99",
	})

	require.Error(t, err)
	assert.True(t, identity.IsInvalidRequest(err))
	assert.False(t, user.IsActive)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestActivateUserValidation(t *testing.T) {
	repo := &MockUserRepository{}
	handler := identity.NewActivateUserHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), identity.ActivateUserMessage{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, identity.IsInvalidRequest(err))

	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestActivateUserNotFound(t *testing.T) {
	repo := &MockUserRepository{}
	handler := identity.NewActivateUserHandler(repo).WithLogger(testLogger{})

	repo.On("GetByID", mock.Anything, "ghost").Return(nil, nil).Once()

	err := handler.Execute(context.Background(), identity.ActivateUserMessage{
		UserID:     "ghost",
		AccessCode: "ABC123",
	})

	require.Error(t, err)
	assert.True(t, identity.IsInvalidRequest(err))
}
