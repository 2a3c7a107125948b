package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried by AppError.
const (
	CodeInputTooLarge     = "INPUT_TOO_LARGE"
	CodeDuplicateContent  = "DUPLICATE_CONTENT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeExtractionFailure = "EXTRACTION_FAILURE"
	CodeThumbnailFailure  = "THUMBNAIL_FAILURE"
	CodeFetchFailure      = "FETCH_FAILURE"
	CodeStorageIO         = "STORAGE_IO"
	CodeAIUnavailable     = "AI_UNAVAILABLE"
	CodeConfig            = "CONFIG_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidInput      = "INVALID_INPUT"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	ErrInputTooLarge     = errors.New("input too large")
	ErrDuplicateContent  = errors.New("duplicate content")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtractionFailure = errors.New("extraction failed")
	ErrThumbnailFailure  = errors.New("thumbnail generation failed")
	ErrFetchFailure      = errors.New("fetch failed")
	ErrStorageIO         = errors.New("storage i/o failure")
	ErrAIUnavailable     = errors.New("ai unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StorageError wraps an I/O failure of the content store.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewAppError(CodeStorageIO, op, errors.Join(ErrStorageIO, err))
}

// StatusCode maps an error onto the closest gRPC status code.
func StatusCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrDuplicateContent):
		return codes.AlreadyExists
	case errors.Is(err, ErrInputTooLarge):
		return codes.ResourceExhausted
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation), errors.Is(err, ErrUnsupportedFormat):
		return codes.InvalidArgument
	case errors.Is(err, ErrFetchFailure), errors.Is(err, ErrAIUnavailable):
		return codes.Unavailable
	case errors.Is(err, ErrStorageIO), errors.Is(err, ErrDatabase):
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// ExitCode turns an error into a process exit status for the CLI.
func ExitCode(err error) int {
	switch StatusCode(err) {
	case codes.OK:
		return 0
	case codes.InvalidArgument, codes.AlreadyExists, codes.ResourceExhausted, codes.NotFound:
		return 2
	case codes.Unavailable:
		return 3
	default:
		return 1
	}
}
