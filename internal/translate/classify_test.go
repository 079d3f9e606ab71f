package translate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
)

func TestIsNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "example.com"}, true},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, true},
		{"connection refused errno", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"host unreachable errno", fmt.Errorf("dial: %w", syscall.EHOSTUNREACH), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"url wrapping dns", &url.Error{Op: "Get", URL: "https://x", Err: &net.DNSError{Err: "no such host"}}, true},
		{"sentinel", fmt.Errorf("wrapped: %w", ErrNetworkUnavailable), true},
		{"rate limit", errors.New("status 429: too many requests"), false},
		{"bad payload", errors.New("decode response: unexpected end of JSON input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
