package geocoding

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure classes shared by every provider. The fallback resolver drives
// its decisions off these:
//
//   - ErrNoResult: the service answered but knows nothing about the
//     address; the next provider in the chain gets a chance.
//   - ErrMalformedResponse: the service answered garbage; handled exactly
//     like ErrNoResult.
//   - ErrQuotaExceeded: the provider is out of calls for the rest of the
//     run.
//   - NetworkError: transient transport trouble; the same provider is
//     worth retrying after a backoff.
var (
	ErrNoResult          = errors.New("no result for address")
	ErrMalformedResponse = errors.New("malformed provider response")
	ErrQuotaExceeded     = errors.New("provider quota exceeded")
)

// NetworkError wraps a transient transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a retryable transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsNoResult reports whether err means the address is unknown to the
// provider. Malformed responses count: a service talking nonsense has
// nothing usable for this address either.
func IsNoResult(err error) bool {
	return errors.Is(err, ErrNoResult) || errors.Is(err, ErrMalformedResponse)
}

// retryableStatus reports whether an HTTP status is transient. Timeouts,
// throttling and server-side failures qualify.
func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= http.StatusInternalServerError
}
