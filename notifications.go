package identity

import "context"

// NotificationKind selects the message template
type NotificationKind = string

const (
	// NotificationUserRegistration carries the activation code after sign up
	NotificationUserRegistration NotificationKind = "user_registration"
	// NotificationResendActivationCode re-sends the activation code
	NotificationResendActivationCode NotificationKind = "resend_activation_code"
	// NotificationConfirmEmailChange carries the confirm email code
	NotificationConfirmEmailChange NotificationKind = "confirm_email_change"
	// NotificationPasswordResetCode carries the password reset code
	NotificationPasswordResetCode NotificationKind = "password_reset_code"
	// NotificationNoAccountPasswordReset is the distinct copy sent when a
	// reset is requested for an unknown email, includes a registration link
	NotificationNoAccountPasswordReset NotificationKind = "no_account_password_reset"
)

// NotificationMessage is the payload handed to the NotificationSender.
// Either User or Email identifies the recipient.
type NotificationMessage struct {
	Kind          NotificationKind
	User          *User
	Email         string
	CorrelationID string
	Data          map[string]string
}

type noopNotificationSender struct{}

func (noopNotificationSender) Send(context.Context, NotificationMessage) error { return nil }

func normalizeNotificationSender(sender NotificationSender) NotificationSender {
	if sender == nil {
		return noopNotificationSender{}
	}
	return sender
}
