// Package money converts between caller-facing decimal amount strings and
// the int64 minor units stored on accounts.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

func ParseMinor(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, ErrInvalidAmount
	}
	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := parsed.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrTooManyDecimals
	}
	if !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

func FormatMinor(value int64) string {
	return decimal.New(value, -2).StringFixed(2)
}
