package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptyCandidateSet is returned when no enabled question can be drawn.
var ErrEmptyCandidateSet = errors.New("no enabled questions available")

// ValidationError reports malformed input or an empty required field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError reports an unknown id chosen by the user.
type NotFoundError struct {
	Kind string
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ParseInt parses user input as an integer.
func ParseInt(s, field string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: s, Reason: "not a number"}
	}
	return n, nil
}

// RequireText trims s and rejects it when empty.
func RequireText(s, field string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: field, Reason: "can not be empty"}
	}
	return s, nil
}
