package api

import (
	"errors"

	"flashmind-student/internal/domain"
)

// UserMessage picks the text shown to the user for err: the validation
// message, the backend's own message, or fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
