package catalog

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("a member with this email is already registered")
	ErrDuplicateCode  = errors.New("a book with this code already exists")
)

// ValidationError lists the form fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
