package identity

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptProfileID identifies bcrypt derived credentials. The salt is
// embedded in the hash, the Salt column stays empty for this profile.
const BcryptProfileID = "bcrypt.v1"

// BcryptHasher is the default CredentialHasher
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher, cost falls back to bcrypt.DefaultCost
// when out of range
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(plaintext string) (*SecuredCredential, error) {
	if plaintext == "" {
		return nil, ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	return &SecuredCredential{
		Hash:      string(h),
		ProfileID: BcryptProfileID,
	}, nil
}

func (b *BcryptHasher) Verify(plaintext, hash, salt, profileID string) (bool, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify password")
	}
	return true, nil
}
