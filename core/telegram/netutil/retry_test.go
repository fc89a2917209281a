package netutil

import (
	"errors"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	dns := &net.DNSError{Err: "no such host", Name: "api.telegram.org"}
	timeout := &url.Error{Op: "Post", URL: "https://api.telegram.org", Err: timeoutErr{}}
	read := &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset")}

	cases := []struct {
		name       string
		err        error
		idempotent bool
		want       bool
	}{
		{"nil", nil, true, false},
		{"dial", dial, false, true},
		{"dns", dns, false, true},
		{"timeout send", timeout, false, false},
		{"timeout poll", timeout, true, true},
		{"reset", read, true, false},
		{"plain", errors.New("bad request"), true, false},
	}
	for _, tc := range cases {
		if got := ShouldRetry(tc.err, tc.idempotent); got != tc.want {
			t.Fatalf("%s: ShouldRetry = %v, want %v", tc.name, got, tc.want)
		}
	}
}
