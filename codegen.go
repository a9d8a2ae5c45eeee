package identity

import (
	"crypto/rand"
	"math/big"
)

const alphaNumericCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// AlphaNumericGenerator is the default CodeGenerator. Codes are matched
// case insensitively so the charset is uppercase only.
type AlphaNumericGenerator struct{}

func (AlphaNumericGenerator) GenerateAlphaNumeric(length int) string {
	if length <= 0 {
		length = DefaultSecurityCodeLength
	}

	max := big.NewInt(int64(len(alphaNumericCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform source is broken
			panic(err)
		}
		out[i] = alphaNumericCharset[n.Int64()]
	}

	return string(out)
}
