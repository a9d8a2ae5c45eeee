package identity

import "time"

const (
	// DefaultSecurityCodeLength matches the original issuance length
	DefaultSecurityCodeLength = 6
	// DefaultAllowedFailedLoginAttempts is the lockout threshold
	DefaultAllowedFailedLoginAttempts = 5
	// DefaultCodeTTL applies to every code type unless overridden
	DefaultCodeTTL = 24 * time.Hour
	// DefaultPasswordHistoryLimit bounds the reuse prevention window
	DefaultPasswordHistoryLimit = 5
)

// StaticConfig is the plain struct Config implementation
type StaticConfig struct {
	AllowedFailedLoginAttempts int
	SecurityCodeLength         int
	AccessCodeTTL              time.Duration
	ConfirmEmailCodeTTL        time.Duration
	PasswordResetCodeTTL       time.Duration
	UnlockCodeTTL              time.Duration
	PasswordHistoryLimit       int
	RegistrationURL            string
}

// NewStaticConfig returns a config with the stock thresholds and TTLs
func NewStaticConfig() *StaticConfig {
	return &StaticConfig{
		AllowedFailedLoginAttempts: DefaultAllowedFailedLoginAttempts,
		SecurityCodeLength:         DefaultSecurityCodeLength,
		AccessCodeTTL:              DefaultCodeTTL,
		ConfirmEmailCodeTTL:        DefaultCodeTTL,
		PasswordResetCodeTTL:       DefaultCodeTTL,
		UnlockCodeTTL:              DefaultCodeTTL,
		PasswordHistoryLimit:       DefaultPasswordHistoryLimit,
	}
}

func (c *StaticConfig) GetAllowedFailedLoginAttempts() int {
	if c.AllowedFailedLoginAttempts <= 0 {
		return DefaultAllowedFailedLoginAttempts
	}
	return c.AllowedFailedLoginAttempts
}

func (c *StaticConfig) GetSecurityCodeLength() int {
	if c.SecurityCodeLength <= 0 {
		return DefaultSecurityCodeLength
	}
	return c.SecurityCodeLength
}

func (c *StaticConfig) GetAccessCodeTTL() time.Duration {
	return ttlOrDefault(c.AccessCodeTTL)
}

func (c *StaticConfig) GetConfirmEmailCodeTTL() time.Duration {
	return ttlOrDefault(c.ConfirmEmailCodeTTL)
}

func (c *StaticConfig) GetPasswordResetCodeTTL() time.Duration {
	return ttlOrDefault(c.PasswordResetCodeTTL)
}

func (c *StaticConfig) GetUnlockCodeTTL() time.Duration {
	return ttlOrDefault(c.UnlockCodeTTL)
}

func (c *StaticConfig) GetPasswordHistoryLimit() int {
	if c.PasswordHistoryLimit <= 0 {
		return DefaultPasswordHistoryLimit
	}
	return c.PasswordHistoryLimit
}

func (c *StaticConfig) GetRegistrationURL() string {
	return c.RegistrationURL
}

func ttlOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultCodeTTL
	}
	return d
}
