package config

import (
	"unicode"

	"tenantsync/internal/scheduler"

	"github.com/go-playground/validator/v10"
)

var (
	// Shared dependencies used across handlers.
	Validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("hhmmwindow", func(fl validator.FieldLevel) bool {
		return scheduler.ValidWindow(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return v
}

// StrongPassword requires at least 8 characters with an upper case letter,
// a lower case letter and a digit.
func StrongPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
