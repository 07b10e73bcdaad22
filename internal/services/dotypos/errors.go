package dotypos

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingConfiguration is returned when no cloud id is configured.
	ErrMissingConfiguration = errors.New("cloud id is missing")

	// ErrMissingAuthorization is returned when the deployment has never been
	// connected (no refresh token stored).
	ErrMissingAuthorization = errors.New("not connected: refresh token is missing")

	// ErrDecryptionFailed is returned when the stored refresh token cannot be
	// decrypted.
	ErrDecryptionFailed = errors.New("failed to decrypt refresh token")

	// ErrInvalidResponse is returned when the token endpoint answers 2xx but
	// without an access token.
	ErrInvalidResponse = errors.New("invalid response from token API")

	// ErrInvalidData is returned when a product page is neither an array nor
	// a data envelope.
	ErrInvalidData = errors.New("invalid data received from API")

	// ErrMissingID marks an item with no resolvable identifier. Per-item,
	// non-fatal: callers skip the item without logging.
	ErrMissingID = errors.New("product id missing")
)

// APIError is a non-2xx answer from the remote API. The body is truncated so
// it stays displayable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.Body)
}

const maxErrorBody = 200

func newAPIError(statusCode int, body []byte) *APIError {
	s := string(body)
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return &APIError{StatusCode: statusCode, Body: s}
}
