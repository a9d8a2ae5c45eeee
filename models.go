package identity

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// SecurityCodeType is the purpose a security code was issued for
type SecurityCodeType = string

const (
	// AccessCode activates a newly registered account
	AccessCode SecurityCodeType = "access_code"
	// ConfirmEmailCode confirms a pending email change
	ConfirmEmailCode SecurityCodeType = "confirm_email_code"
	// PasswordResetCode authorizes a password reset
	PasswordResetCode SecurityCodeType = "password_reset_code"
	// UnlockCode clears an account lockout
	UnlockCode SecurityCodeType = "unlock_code"
)

// SecurityCode is a short lived, single purpose code bound to a user.
// Once the action it guards succeeds every code of that type is removed,
// a code never becomes valid again after expiry.
type SecurityCode struct {
	bun.BaseModel `bun:"table:security_codes,alias:sc"`
	UserID        string           `bun:"user_id,notnull" json:"user_id,omitempty"`
	Code          string           `bun:"code,notnull" json:"code,omitempty"`
	CodeType      SecurityCodeType `bun:"code_type,notnull" json:"code_type,omitempty"`
	ExpiryTime    time.Time        `bun:"expiry_time,notnull" json:"expiry_time,omitempty"`
	ReturnURL     string           `bun:"return_url" json:"return_url,omitempty"`
}

// IsValid reports whether the code is still usable at the given instant
func (c SecurityCode) IsValid(now time.Time) bool {
	return now.Before(c.ExpiryTime)
}

// HistoricalPassword is a previously used credential, kept so a reset
// cannot reuse a recent password
type HistoricalPassword struct {
	bun.BaseModel `bun:"table:password_history,alias:pwh"`
	UserID        string     `bun:"user_id,notnull" json:"user_id,omitempty"`
	Hash          string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	Salt          string     `bun:"salt" json:"salt,omitempty"`
	ProfileID     string     `bun:"password_profile_id" json:"password_profile_id,omitempty"`
	RetiredAt     *time.Time `bun:"retired_at,nullzero" json:"retired_at,omitempty"`
}

// User is the identity aggregate: the user record plus the security codes
// and password history it owns, always loaded and persisted as a unit
type User struct {
	bun.BaseModel         `bun:"table:users,alias:usr"`
	ID                    string               `bun:"id,pk" json:"id,omitempty"`
	FirstName             string               `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName              string               `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email                 string               `bun:"email,notnull,unique" json:"email,omitempty"`
	PendingEmail          string               `bun:"pending_email" json:"pending_email,omitempty"`
	HashedPassword        string               `bun:"password_hash" json:"password_hash,omitempty"`
	Salt                  string               `bun:"salt" json:"salt,omitempty"`
	PasswordProfileID     string               `bun:"password_profile_id" json:"password_profile_id,omitempty"`
	IsActive              bool                 `bun:"is_active" json:"is_active,omitempty"`
	IsLocked              bool                 `bun:"is_locked" json:"is_locked,omitempty"`
	FailedLoginAttempts   int                  `bun:"failed_login_attempts" json:"failed_login_attempts,omitempty"`
	RequiresPasswordReset bool                 `bun:"requires_password_reset" json:"requires_password_reset,omitempty"`
	SecurityCodes         []SecurityCode       `bun:"rel:has-many,join:id=user_id" json:"security_codes,omitempty"`
	PasswordHistory       []HistoricalPassword `bun:"rel:has-many,join:id=user_id" json:"password_history,omitempty"`
	CreatedAt             *time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt             *time.Time           `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AddSecurityCode appends a code to the aggregate. It does not
// deduplicate, resend flows check for an outstanding code before adding.
func (u *User) AddSecurityCode(code SecurityCode) *User {
	code.UserID = u.ID
	u.SecurityCodes = append(u.SecurityCodes, code)
	return u
}

// ExpireSecurityCodesOfType removes every code of the given type.
// Safe to call when none exist.
func (u *User) ExpireSecurityCodesOfType(codeType SecurityCodeType) *User {
	if len(u.SecurityCodes) == 0 {
		return u
	}

	kept := u.SecurityCodes[:0]
	for _, sc := range u.SecurityCodes {
		if sc.CodeType != codeType {
			kept = append(kept, sc)
		}
	}
	u.SecurityCodes = kept

	return u
}

// FindValidCode returns the first unexpired code of the given type whose
// value matches case insensitively, or nil when there is none. Duplicates
// should not happen with random generation, insertion order breaks ties.
func (u *User) FindValidCode(codeType SecurityCodeType, code string, now time.Time) *SecurityCode {
	if code == "" {
		return nil
	}

	for i := range u.SecurityCodes {
		sc := &u.SecurityCodes[i]
		if sc.CodeType != codeType {
			continue
		}
		if !strings.EqualFold(sc.Code, code) {
			continue
		}
		if sc.IsValid(now) {
			return sc
		}
	}

	return nil
}

// ValidCodeOfType returns the first unexpired code of the given type
// regardless of value, used by resend flows to keep in-flight links stable
func (u *User) ValidCodeOfType(codeType SecurityCodeType, now time.Time) *SecurityCode {
	for i := range u.SecurityCodes {
		sc := &u.SecurityCodes[i]
		if sc.CodeType == codeType && sc.IsValid(now) {
			return sc
		}
	}
	return nil
}

// RetireCredential moves the current credential into the password history
// before a new one is applied
func (u *User) RetireCredential(now time.Time) *User {
	if u.HashedPassword == "" {
		return u
	}

	retired := now
	u.PasswordHistory = append(u.PasswordHistory, HistoricalPassword{
		UserID:    u.ID,
		Hash:      u.HashedPassword,
		Salt:      u.Salt,
		ProfileID: u.PasswordProfileID,
		RetiredAt: &retired,
	})

	return u
}
