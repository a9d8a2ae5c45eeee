package identity

import "context"

// AccountLockedEvent is published when a lockout happens or an unlock
// code needs to be re-sent. The notification pipeline uses the resend
// flag to choose between lockout and resend messaging.
type AccountLockedEvent struct {
	User             *User
	ReturnURL        string
	ResendUnlockCode bool
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(context.Context, AccountLockedEvent) error { return nil }

func normalizeEventPublisher(publisher EventPublisher) EventPublisher {
	if publisher == nil {
		return noopEventPublisher{}
	}
	return publisher
}

// EventPublisherFunc adapts a function to the EventPublisher interface
type EventPublisherFunc func(ctx context.Context, event AccountLockedEvent) error

func (f EventPublisherFunc) Publish(ctx context.Context, event AccountLockedEvent) error {
	return f(ctx, event)
}
