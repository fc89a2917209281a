// Package netutil classifies transport errors from Telegram API calls.
package netutil

import (
	"errors"
	"net"
)

// IsDialError reports whether err happened before a connection was made,
// meaning the request never reached Telegram.
func IsDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// IsTimeout reports whether err is a network timeout.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ShouldRetry reports whether a failed call may be repeated. Dial failures
// are always safe. Timeouts are retried only for idempotent calls since the
// request may already have been applied.
func ShouldRetry(err error, idempotent bool) bool {
	if err == nil {
		return false
	}
	if IsDialError(err) {
		return true
	}
	return idempotent && IsTimeout(err)
}
