package validator

import (
	"errors"
	"regexp"
)

var (
	ErrInvalidMobile      = errors.New("invalid mobile number")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidPassword    = errors.New("invalid password")
)

var (
	mobileRegex      = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	displayNameRegex = regexp.MustCompile(`^[\p{L}0-9][\p{L}0-9 .'-]{1,49}$`)
)

func ValidateMobile(mobile string) error {
	if !mobileRegex.MatchString(mobile) {
		return ErrInvalidMobile
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if !displayNameRegex.MatchString(name) {
		return ErrInvalidDisplayName
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}
