package translate

import (
	"context"
	"errors"
	"net"
	"net/url"
	"syscall"
)

// IsNetworkError reports whether err matches network-failure signatures:
// DNS resolution failure, connection refused or reset, timeout, or an
// unreachable host. In auto mode these short-circuit straight to the offline
// backend instead of burning the remaining retries against a dead network.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrNetworkUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		// url.Error wraps the transport failure; a timeout or any net-level
		// cause counts.
		if urlErr.Timeout() {
			return true
		}
		return IsNetworkError(urlErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
