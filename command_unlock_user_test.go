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

func TestUnlockUserClearsLockState(t *testing.T) {
	repo := &MockUserRepository{}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	handler := identity.NewUnlockUserHandler(repo).
		WithLogger(testLogger{}).
		WithClock(func() time.Time { return now })

	user := &identity.User{
		ID:                  "u1",
		Email:               "locked@test.local",
		IsLocked:            true,
		FailedLoginAttempts: 5,
		SecurityCodes: []identity.SecurityCode{
			{Code: "UNL001", CodeType: identity.UnlockCode, ExpiryTime: now.Add(time.Hour)},
			{Code: "RST001", CodeType: identity.PasswordResetCode, ExpiryTime: now.Add(time.Hour)},
		},
	}

	repo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
	repo.On("Update", mock.Anything, user).Return(nil).Once()

	err := handler.Execute(context.Background(), identity.UnlockUserMessage{
		Email:      user.Email,
		UnlockCode: "unl001",
	})

	require.NoError(t, err)
	assert.False(t, user.IsLocked)
	assert.Equal(t, 0, user.FailedLoginAttempts)

	// unlock codes are consumed, unrelated codes survive
	require.Len(t, user.SecurityCodes, 1)
	assert.Equal(t, identity.PasswordResetCode, user.SecurityCodes[0].CodeType)

	repo.AssertExpectations(t)
}

func TestUnlockUserWrongCode(t *testing.T) {
	repo := &MockUserRepository{}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	handler := identity.NewUnlockUserHandler(repo).
		WithLogger(testLogger{}).
		WithClock(func() time.Time { return now })

	user := &identity.User{
		ID:       "u1",
		Email:    "locked@test.local",
		IsLocked: true,
		SecurityCodes: []identity.SecurityCode{
			{Code: "UNL001", CodeType: identity.UnlockCode, ExpiryTime: now.Add(-time.Hour)},
		},
	}
	repo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

	err := handler.Execute(context.Background(), identity.UnlockUserMessage{
		Email:      user.Email,
		UnlockCode: "UNL001",
	})

	require.Error(t, err)
	assert.True(t, identity.IsInvalidRequest(err))
	assert.True(t, user.IsLocked)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUnlockUserUnknownAccountIsSilent(t *testing.T) {
	repo := &MockUserRepository{}

	handler := identity.NewUnlockUserHandler(repo).WithLogger(testLogger{})

	repo.On("GetByEmail", mock.Anything, "ghost@test.local").Return(nil, nil).Once()

	err := handler.Execute(context.Background(), identity.UnlockUserMessage{
		Email:      "ghost@test.local",
		UnlockCode: "UNL001",
	})

	// indistinguishable from a successful unlock
	require.NoError(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUnlockUserValidation(t *testing.T) {
	repo := &MockUserRepository{}
	handler := identity.NewUnlockUserHandler(repo).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), identity.UnlockUserMessage{Email: "user@test.local"})
	require.Error(t, err)
	assert.True(t, identity.IsInvalidRequest(err))

	repo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestResendUnlockCodePublishesEvent(t *testing.T) {
	events := &MockEventPublisher{}

	handler := identity.NewResendUnlockCodeHandler(events).WithLogger(testLogger{})

	events.On("Publish", mock.Anything, mock.MatchedBy(func(evt identity.AccountLockedEvent) bool {
		return evt.User != nil &&
			evt.User.Email == "locked@test.local" &&
			evt.ReturnURL == "http://return.here" &&
			evt.ResendUnlockCode
	})).Return(nil).Once()

	err := handler.Execute(context.Background(), identity.ResendUnlockCodeMessage{
		Email:     "locked@test.local",
		ReturnURL: "http://return.here",
	})

	require.NoError(t, err)
	events.AssertExpectations(t)
}

func TestResendUnlockCodeInvalidRequest(t *testing.T) {
	events := &MockEventPublisher{}

	handler := identity.NewResendUnlockCodeHandler(events).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), identity.ResendUnlockCodeMessage{Email: "nope"})
	require.Error(t, err)
	assert.True(t, identity.IsInvalidRequest(err))

	events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
