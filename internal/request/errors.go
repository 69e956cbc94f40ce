package request

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const DefaultCancelMessage = "operation canceled by the user"

var ErrClosed = errors.New("fetcher closed")

// CanceledError marks a call that was aborted through its cancellation
// handle. It is a terminal outcome, not a failure.
type CanceledError struct {
	Message string
}

func (e *CanceledError) Error() string {
	if e.Message == "" {
		return "canceled"
	}
	return "canceled: " + e.Message
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Response   *Response
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	if body == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, body)
}

func IsCancel(err error) bool {
	var ce *CanceledError
	return errors.As(err, &ce)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is nil
// or did not come from an HTTP response.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
