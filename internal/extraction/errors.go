package extraction

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for outbound calls.
type ErrorCategory string

const (
	// CategoryTransport covers connection failures and cancellation.
	CategoryTransport ErrorCategory = "transport"
	// CategoryTimeout means the call exceeded its deadline.
	CategoryTimeout ErrorCategory = "timeout"
	// CategoryBadStatus means the service answered with a non-2xx status.
	CategoryBadStatus ErrorCategory = "bad_status"
	// CategoryBadData means the body could not be decoded.
	CategoryBadData ErrorCategory = "bad_data"
	// CategoryEmpty means the service answered but found nothing usable.
	CategoryEmpty ErrorCategory = "empty"
	// CategoryUnsupportedMedia means the upload is not a PNG or JPEG image.
	CategoryUnsupportedMedia ErrorCategory = "unsupported_media"
)

var (
	// ErrExtractionEmpty is wrapped by identity extractions that yield
	// neither a name nor a number.
	ErrExtractionEmpty = errors.New("no fields extracted")
	// ErrUnsupportedMedia is wrapped when an upload is rejected before any call.
	ErrUnsupportedMedia = errors.New("only png and jpg images are accepted")
)

// Error wraps an outbound failure with its category and endpoint.
type Error struct {
	Category   ErrorCategory
	Endpoint   string
	Message    string
	StatusCode int
	Underlying error
	// Retryable is informational; nothing in this module retries.
	Retryable bool
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("extraction %s [%s]: %s: %v", e.Endpoint, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("extraction %s [%s]: %s", e.Endpoint, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func newError(category ErrorCategory, endpoint, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Endpoint:   endpoint,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == CategoryTransport || category == CategoryTimeout,
	}
}

// CategoryOf extracts the category from err, or "" when err is not an *Error.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}
