package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{3,30}$`)
	phonePattern    = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
)

// ValidateName validates profile name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if utf8.RuneCountInString(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

// ValidateGoalTitle expects an already trimmed title.
func ValidateGoalTitle(title string) error {
	if title == "" {
		return errors.New("title is required")
	}

	if utf8.RuneCountInString(title) > 200 {
		return errors.New("title is too long (max 200 characters)")
	}

	return nil
}

func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}

	if !usernamePattern.MatchString(username) {
		return errors.New("username must be 3-30 letters, digits, '_' or '.'")
	}

	return nil
}

// ValidatePhoneNumber accepts E.164 numbers such as +14155550123.
func ValidatePhoneNumber(phone string) error {
	if !phonePattern.MatchString(phone) {
		return errors.New("phone number must be in E.164 format")
	}
	return nil
}
