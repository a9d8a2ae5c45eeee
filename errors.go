package identity

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidRequest marks validation failures, raised before any mutation
	TextCodeInvalidRequest = "INVALID_REQUEST"
	// TextCodeAccountLocked marks authentication against a locked account
	TextCodeAccountLocked = "ACCOUNT_LOCKED"
	// TextCodeUserNotFound marks the flows that surface a missing user explicitly
	TextCodeUserNotFound = "USER_NOT_FOUND"
	// TextCodeEmptyPassword marks an empty plaintext handed to the hasher
	TextCodeEmptyPassword = "EMPTY_PASSWORD"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password cannot be an empty string", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// NewInvalidRequestError builds the validation error every handler raises
// before touching storage. The field to message map rides in metadata.
func NewInvalidRequestError(fields map[string]string) *goerrors.Error {
	meta := make(map[string]any, len(fields))
	for field, msg := range fields {
		meta[field] = msg
	}

	return goerrors.New("request failed validation", goerrors.CategoryValidation).
		WithTextCode(TextCodeInvalidRequest).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(meta)
}

// NewAccountLockedError is raised instead of a negative result so callers
// can trigger lockout messaging for the affected user
func NewAccountLockedError(user *User) *goerrors.Error {
	meta := map[string]any{}
	if user != nil {
		meta["user_id"] = user.ID
		meta["email"] = user.Email
	}

	return goerrors.New("account is locked", goerrors.CategoryAuth).
		WithTextCode(TextCodeAccountLocked).
		WithCode(goerrors.CodeConflict).
		WithMetadata(meta)
}

// NewUserNotFoundError is used by the flows where a missing user is an
// explicit error rather than a silent no-op
func NewUserNotFoundError(identifier string) *goerrors.Error {
	return goerrors.New("user not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeUserNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{"identifier": identifier})
}

// IsInvalidRequest checks for a validation failure
func IsInvalidRequest(err error) bool {
	return hasTextCode(err, TextCodeInvalidRequest)
}

// IsAccountLocked checks for the account locked error
func IsAccountLocked(err error) bool {
	return hasTextCode(err, TextCodeAccountLocked)
}

// IsUserNotFound checks for the explicit missing user error
func IsUserNotFound(err error) bool {
	return hasTextCode(err, TextCodeUserNotFound)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}

	return false
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out[""] = err.Error()
	return out
}

// invalidRequestFromValidation wraps a failed message Validate() call
func invalidRequestFromValidation(err error) error {
	if err == nil {
		return nil
	}
	return NewInvalidRequestError(FormatValidationErrorToMap(err))
}
