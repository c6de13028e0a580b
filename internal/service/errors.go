package service

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/creatorpulse/internal/vault"
)

// Error taxonomy for the ingestion core. Synchronous entry points let these
// bubble to the caller; batch jobs record them per account and keep going.
var (
	// ErrValidation covers malformed identifiers or inputs, rejected
	// before any external call is made.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the target profile does not exist or is private.
	ErrNotFound = errors.New("profile not found")

	// ErrForbidden means the caller's role or ownership does not allow
	// the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRefreshFailed means the provider rejected a refresh token. It is
	// never propagated as a process error; the affected account gets
	// deactivated instead.
	ErrRefreshFailed = vault.ErrRefreshFailed
)

// UpstreamError wraps a failure from the scraping platform or an OAuth
// provider, keeping the platform and operation for logs and batch reports.
type UpstreamError struct {
	Platform string
	Op       string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s %s: %v", e.Platform, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(platform, op string, err error) error {
	return &UpstreamError{Platform: platform, Op: op, Err: err}
}
