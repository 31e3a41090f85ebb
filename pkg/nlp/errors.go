package nlp

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyResponse indicates the backend returned no usable content.
var ErrEmptyResponse = errors.New("the model returned an empty response")

// TransientError wraps a gateway failure that a bounded-backoff retry may
// resolve: rate limits, timeouts, 5xx responses, broken connections.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient gateway error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// Is implements errors.Is support for TransientError.
func (e *TransientError) Is(target error) bool {
	_, ok := target.(*TransientError)
	return ok
}

// FatalError wraps a gateway failure that retrying cannot fix: invalid
// credentials, malformed requests, unknown models. It propagates immediately.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal gateway error: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error { return e.Err }

// Is implements errors.Is support for FatalError.
func (e *FatalError) Is(target error) bool {
	_, ok := target.(*FatalError)
	return ok
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// retryablePatterns are substrings of error messages that indicate a
// transient backend condition when no structured status code is available.
var retryablePatterns = []string{
	"500", "internal server error",
	"502", "bad gateway",
	"503", "service unavailable",
	"504", "gateway timeout",
	"timeout",
	"connection reset",
	"connection refused",
	"temporary failure",
	"rate limit",
	"too many requests",
	"429",
}

// Classify wraps a raw backend error as TransientError or FatalError.
// Already-classified errors and context cancellation pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	var fe *FatalError
	if errors.As(err, &te) || errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode >= http.StatusInternalServerError ||
			apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return &TransientError{Err: err}
		}
		return &FatalError{Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return &TransientError{Err: err}
		}
	}

	return &FatalError{Err: err}
}
