package bls

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuotaExhausted signals the upstream daily query threshold was hit.
	// It is never retried; the run must continue on the next calendar day.
	ErrQuotaExhausted = errors.New("bls: daily query threshold reached")

	// ErrRateLimited signals a short-window rate-limit response (HTTP 429).
	// Retried with exponential backoff up to the attempt ceiling.
	ErrRateLimited = errors.New("bls: rate limited")

	// ErrTransient signals a server-side or network error worth retrying.
	ErrTransient = errors.New("bls: transient upstream error")
)

// APIError reports a request the API accepted but refused to process
// (status REQUEST_FAILED or REQUEST_NOT_PROCESSED). Not retried.
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bls: upstream rejected request: %s: %s", e.Status, e.Message)
}

// quotaPhrase is the fragment the API embeds in its message when the
// registered key's daily request threshold has been consumed.
const quotaPhrase = "daily threshold"

func isQuotaMessage(msg string) bool {
	return strings.Contains(strings.ToLower(msg), quotaPhrase)
}
