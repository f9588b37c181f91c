package client

import (
	"time"

	"go.uber.org/zap"
)

type Option func(*Client)

// WithLogger attaches a logger. Without it the client is silent.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithTimeout bounds a single request/response exchange.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.ioTimeout = d
	}
}

// WithDialTimeout bounds a single connect attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// WithRequireEncryption makes the sealed channel a requirement rather
// than an upgrade: the client negotiates automatically on every fresh
// connection before any data operation goes out.
func WithRequireEncryption() Option {
	return func(c *Client) {
		c.requireEncryption = true
	}
}

// WithTransport swaps the connection layer. Used by tests to observe or
// fake the wire.
func WithTransport(tr Transport) Option {
	return func(c *Client) {
		c.tr = tr
	}
}
