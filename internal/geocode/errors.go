package geocode

import (
	"errors"
	"fmt"
)

// ErrAddressNotFound is the provider's permanent "address not
// resolvable" signal. It is cached so the provider is never asked the
// same hopeless question twice.
var ErrAddressNotFound = errors.New("address not resolvable")

// ErrRateLimited is the provider's throttle signal. It is transient and
// retried with backoff.
var ErrRateLimited = errors.New("geocoding provider rate limited")

// ErrEmptyAddress rejects lookups whose address normalizes to nothing.
var ErrEmptyAddress = errors.New("empty address")

// GeocodeUnavailableError means every bounded retry failed for
// infrastructure reasons. Nothing is cached, so a later lookup starts
// fresh.
type GeocodeUnavailableError struct {
	Address  string
	Attempts int
	Err      error
}

func (e *GeocodeUnavailableError) Error() string {
	return fmt.Sprintf("geocoding unavailable for %q after %d attempts: %v", e.Address, e.Attempts, e.Err)
}

func (e *GeocodeUnavailableError) Unwrap() error { return e.Err }
