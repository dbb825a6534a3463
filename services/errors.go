package services

import (
	"errors"
	"sort"
	"strings"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	ErrPlayerNotFound       = errors.New("player not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrCoachNotFound        = errors.New("coach not found")
	ErrNewsNotFound         = errors.New("news not found")
	ErrMediaNotFound        = errors.New("media object not found")

	ErrValidationFailed = errors.New("validation failed")

	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAdminNotConfigured   = errors.New("admin account is not configured")

	ErrUploadsDisabled      = errors.New("media uploads are not configured")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file is too large")
)

// ValidationError описывает ошибки по полям. errors.Is(err, ErrValidationFailed) == true.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Check(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil возвращает nil, если ошибок нет.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
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
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func fieldError(field, message string) error {
	v := NewValidationError()
	v.Add(field, message)
	return v
}
