// Package validator accumulates field-level form validation errors.
package validator

import (
	"regexp"
	"strings"
)

// EmailRX is a compiled regular expression for basic email validation.
var EmailRX = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Validator holds a map of field names to their validation error messages.
// A Validator with an empty Errors map is considered valid.
type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing with message. The first failure for a
// field wins.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key only when ok is false:
//
//	v.Check(NotBlank(title), "title", "must be provided")
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// NotBlank reports whether value has any non-whitespace content.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxChars reports whether value is at most n bytes long.
func MaxChars(value string, n int) bool {
	return len(value) <= n
}

// In returns true if value is present in list.
func In[T comparable](value T, list ...T) bool {
	for _, item := range list {
		if value == item {
			return true
		}
	}
	return false
}

// Matches returns true if value matches rx.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}
