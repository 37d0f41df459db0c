package core

import (
	"errors"
	"fmt"
)

var (
	// ErrGeoRestricted is returned when the backend refuses service in the
	// user's jurisdiction (HTTP 403). Never retried and never a reason to
	// fall back to sign-up.
	ErrGeoRestricted = errors.New("service not available in this country")

	// ErrUnknownIdentity is returned when the backend does not know the
	// address (HTTP 404). The negotiator consumes it as the sign-up
	// trigger; callers of the session manager never see it on success.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrUnauthorized is returned when a presumed-valid token is rejected
	// by the backend (HTTP 401 on an authenticated call).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupportedWalletKind is returned when no authentication strategy
	// exists for a wallet's kind.
	ErrUnsupportedWalletKind = errors.New("unsupported wallet kind")

	// ErrNoAddress is returned when a wallet has no resolvable address.
	ErrNoAddress = errors.New("wallet address is not defined")
)

// APIError carries the HTTP status reported by the backend so callers can
// tell 401 (invalidate), 403 (geo-restricted) and 404 (unknown identity)
// apart from generic connectivity failures.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// Is maps well-known statuses onto the sentinel errors above, so
// errors.Is(err, ErrGeoRestricted) works on a raw transport error.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == 401
	case ErrGeoRestricted:
		return e.Status == 403
	case ErrUnknownIdentity:
		return e.Status == 404
	}
	return false
}

// NetworkError wraps timeouts, connectivity failures and 5xx responses.
// It is terminal for the current attempt; retrying is the UI's decision.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SigningError wraps a wallet's refusal or failure to produce a signature.
type SigningError struct {
	Address string
	Err     error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed for %s: %v", e.Address, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
