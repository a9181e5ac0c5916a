package flight

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	ErrorCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrorCodeProviderAuth    ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrorCodeProviderSearch  ErrorCode = "PROVIDER_SEARCH_FAILED"
	ErrorCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrorCodeInternalFailure ErrorCode = "INTERNAL_FAILURE"
)

var (
	ErrValidation     = errors.New("validation failed")
	ErrProviderAuth   = errors.New("provider authentication failed")
	ErrProviderSearch = errors.New("provider search failed")
	ErrNormalization  = errors.New("itinerary normalization failed")
	ErrPersistence    = errors.New("persistence failed")
	ErrNotFound       = errors.New("not found")
)

// AppError is an error with a fixed HTTP mapping.
type AppError struct {
	Status  int
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ToAppError classifies err by its sentinel. Unclassified errors become a 500.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidDuration):
		return &AppError{Status: http.StatusBadRequest, Code: ErrorCodeValidation, Message: err.Error(), Err: err}
	case errors.Is(err, ErrNotFound):
		return &AppError{Status: http.StatusNotFound, Code: ErrorCodeNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, ErrProviderAuth):
		return &AppError{Status: http.StatusBadGateway, Code: ErrorCodeProviderAuth, Message: "pricing provider rejected credentials", Err: err}
	case errors.Is(err, ErrProviderSearch):
		return &AppError{Status: http.StatusBadGateway, Code: ErrorCodeProviderSearch, Message: "pricing provider search failed", Err: err}
	default:
		return &AppError{Status: http.StatusInternalServerError, Code: ErrorCodeInternalFailure, Message: "Internal Server Error", Err: err}
	}
}
