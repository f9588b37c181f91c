package transport

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultDialTimeout = 5 * time.Second
	DefaultIOTimeout   = 5 * time.Second
)

type Options struct {
	// Addr is the host:port of the SmolDB server
	Addr string

	// DialTimeout bounds how long a single connect attempt may block
	DialTimeout time.Duration

	// IOTimeout bounds a single request/response exchange
	IOTimeout time.Duration

	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.DialTimeout <= 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.IOTimeout <= 0 {
		o.IOTimeout = DefaultIOTimeout
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}
