package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateField     = errors.New("duplicate field")
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrInvalidItemType    = errors.New("item type must be lost or found")
	ErrInvalidAction      = errors.New("action must be favorite or unfavorite")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrSelfMessage        = errors.New("cannot send a message to yourself")
	ErrForbidden          = errors.New("access to this conversation is not allowed")
	ErrAIService          = errors.New("ai service unavailable")
)

// ValidationError carries field-level detail for a rejected request.
// MissingFields lists absent required fields in form order; Fields maps a
// field name to what is wrong with it.
type ValidationError struct {
	Message       string
	MissingFields []string
	Fields        map[string]string
	cause         error
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.MissingFields) > 0 {
		return "missing required fields: " + strings.Join(e.MissingFields, ", ")
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid fields: " + strings.Join(keys, ", ")
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func missingFields(fields ...string) *ValidationError {
	return &ValidationError{MissingFields: fields}
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Message: reason, Fields: map[string]string{field: reason}}
}

func duplicateFields(fields map[string]string) *ValidationError {
	return &ValidationError{Message: "registration failed, please check the form", Fields: fields, cause: ErrDuplicateField}
}
