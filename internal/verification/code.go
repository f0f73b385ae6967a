// Package verification generates the one-time codes that flip an account to
// verified. Delivery to the account's mobile number is a separate concern.
package verification

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var codeSpace = big.NewInt(1000000)

// NewCode returns a 6-digit numeric code, zero-padded.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
