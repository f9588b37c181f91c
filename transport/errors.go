package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	ErrNotConnected      = errors.New("not connected")
	ErrConnectionRefused = errors.New("connection refused")
	ErrConnectionReset   = errors.New("connection reset")
	ErrTimeout           = errors.New("timed out")
	ErrDNSFailure        = errors.New("dns lookup failed")
)

// classifyDialError maps the stdlib's dial failures onto our taxonomy so
// callers can distinguish them with errors.Is instead of string matching.
func classifyDialError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrDNSFailure, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %v", ErrConnectionRefused, err)
	}

	return err
}

// classifyIOError maps mid-exchange failures. A peer that hangs up shows
// up as ECONNRESET, EPIPE or a bare EOF depending on timing; all of them
// mean the same thing to the caller.
func classifyIOError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrConnectionReset, err)
	}

	return err
}
