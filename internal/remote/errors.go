package remote

import (
	"fmt"
	"io"
	"net/http"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// StatusError reports a non-success response from a remote service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, Truncate(e.Body, 200))
}

// CheckResponse returns nil when resp carries one of the accepted status
// codes. 429 and 5xx become a *RetryableError, anything else a *StatusError.
// The body is read (bounded) only on failure.
func CheckResponse(op string, resp *http.Response, accepted ...int) error {
	for _, code := range accepted {
		if resp.StatusCode == code {
			return nil
		}
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: op + ": " + string(body)}
	}
	return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
}

// Truncate shortens s to at most n bytes, marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
