package models

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rickchristie/agentdoc"
)

// ErrUnknownProvider is wrapped by calls naming a provider the router does not know.
var ErrUnknownProvider = errors.New("unknown provider")

// digestLength is the number of hex characters kept from the query hash.
const digestLength = 12

// ModelError is returned by Router.Call when a model call failed for good.
type ModelError struct {
	Provider string
	// QueryDigest is a truncated SHA-256 of the query, enough to correlate log lines
	// without echoing the document.
	QueryDigest string
	Attempts    int
	Err         error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model call to %s failed after %d attempt(s) (query %s): %v",
		e.Provider, e.Attempts, e.QueryDigest, e.Err)
}

// Unwrap returns both the cause and agentdoc.ErrModel.
func (e *ModelError) Unwrap() []error {
	return []error{agentdoc.ErrModel, e.Err}
}

// QueryDigest returns the truncated digest of query.
func QueryDigest(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:digestLength]
}

// TransientError marks a failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err, or any error it wraps, is retryable.
func IsTransient(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) {
		return temporary.Temporary()
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}
	return false
}
