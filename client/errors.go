package client

import (
	"errors"

	"github.com/smoldb/smoldb-go/protocol"
	"github.com/smoldb/smoldb-go/transport"
)

var (
	// ErrAuthenticationMissing is returned by data operations invoked
	// before SetKey. No network traffic happens in that case.
	ErrAuthenticationMissing = errors.New("authentication key not set")

	// ErrAlreadyEncrypted is returned by SetupEncryption when the current
	// connection already negotiated a sealed channel.
	ErrAlreadyEncrypted = errors.New("encryption already negotiated on this connection")

	// ErrNegotiationFailed wraps any failure while establishing the
	// sealed channel.
	ErrNegotiationFailed = errors.New("encryption negotiation failed")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("client closed")
)

// Re-exported so callers matching on failure kinds only need this package.
var (
	ErrNotConnected      = transport.ErrNotConnected
	ErrConnectionRefused = transport.ErrConnectionRefused
	ErrConnectionReset   = transport.ErrConnectionReset
	ErrTimeout           = transport.ErrTimeout
	ErrDNSFailure        = transport.ErrDNSFailure
	ErrDataNotFound      = protocol.ErrDataNotFound
)
