package payment

import (
	"errors"
	"net"
	"syscall"
)

// IsRetryable classifies a gateway failure. Retryable failures roll the
// payment back to pending so a later call can try again; everything else is
// treated as unrecoverable for this payment.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrGatewayUnavailable) {
		return true
	}
	if errors.Is(err, ErrSessionInvalid) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return false
}
