package core

import (
	"errors"
	"strings"
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidTheme     = errors.New("invalid theme")
	ErrEmptyName        = errors.New("empty name")
	ErrProtectedEntry   = errors.New("entry is protected and cannot be removed")
	ErrDuplicateEntry   = errors.New("entry already exists")
	ErrUnknownEntry     = errors.New("entry does not exist")
	ErrTooFewUsers      = errors.New("at least two users are required")
	ErrImageTooLarge    = errors.New("image too large")
	ErrImageType        = errors.New("unsupported image type")
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned when a record fails validation. It is a user
// error: callers report it inline and keep going.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsValidation reports whether err was caused by bad user input rather than
// an infrastructure failure.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return true
	}
	for _, target := range []error{
		ErrInvalidAmount, ErrInvalidMonth, ErrInvalidYear, ErrInvalidFrequency, ErrInvalidTheme,
		ErrEmptyName, ErrProtectedEntry, ErrDuplicateEntry, ErrUnknownEntry, ErrTooFewUsers,
		ErrImageTooLarge, ErrImageType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
