package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smoldb/smoldb-go/protocol"
)

// Conn owns at most one socket to a fixed SmolDB server address. All
// state changes and exchanges happen under one mutex, so a reconnect can
// never interleave with an in-flight round trip and a caller never
// observes a half-torn-down socket.
type Conn struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	conn   net.Conn
	secure *protocol.SecureChannel
}

func New(opts Options) *Conn {
	opts = opts.withDefaults()

	return &Conn{
		opts: opts,
		log:  opts.Log.Named("transport"),
	}
}

// Connect dials the server. A no-op when a live socket already exists.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	return c.dialLocked(ctx)
}

// Disconnect closes the socket. Returns ErrNotConnected when there is
// nothing to close, consistently, so callers can treat a double
// disconnect as the no-op it is.
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	err := c.conn.Close()
	c.conn = nil
	c.secure = nil

	c.log.Info("Disconnected", zap.String("addr", c.opts.Addr))
	return err
}

// Reconnect replaces the socket: a best-effort close of whatever is there
// followed by a fresh dial. The close half never fails the operation, the
// goal is a fresh connection regardless of prior state. Any negotiated
// encryption dies with the old socket.
func (c *Conn) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log.Warn("Ignoring close error during reconnect", zap.Error(err))
		}
		c.conn = nil
	}
	c.secure = nil

	return c.dialLocked(ctx)
}

// Connected reports whether a live socket exists. Purely advisory: the
// socket can die between this call and the next exchange.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

// SetSecure installs (or with nil, removes) the sealed channel wrapping
// every subsequent exchange on the current socket.
func (c *Conn) SetSecure(ch *protocol.SecureChannel) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.secure = ch
}

// Secured reports whether exchanges on the current socket are sealed.
func (c *Conn) Secured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.secure != nil
}

// RoundTrip performs one framed request/response exchange. The mutex
// makes the pair atomic: two concurrent callers can never interleave
// their frames on the wire. A transport-level failure invalidates the
// socket so the next operation starts from a clean reconnect.
func (c *Conn) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	deadline := time.Now().Add(c.opts.IOTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if c.secure != nil {
		sealed, err := c.secure.Seal(payload)
		if err != nil {
			return nil, err
		}
		payload = sealed
	}

	if err := protocol.WriteFrame(c.conn, payload); err != nil {
		c.invalidateLocked()
		return nil, classifyIOError(err)
	}

	reply, err := protocol.ReadFrame(c.conn)
	if err != nil {
		c.invalidateLocked()
		return nil, classifyIOError(err)
	}

	if c.secure != nil {
		reply, err = c.secure.Open(reply)
		if err != nil {
			c.invalidateLocked()
			return nil, err
		}
	}

	return reply, nil
}

func (c *Conn) dialLocked(ctx context.Context) error {
	dialer := net.Dialer{Timeout: c.opts.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.opts.Addr)
	if err != nil {
		c.log.Warn("Failed to connect", zap.String("addr", c.opts.Addr), zap.Error(err))
		return classifyDialError(err)
	}

	c.conn = conn
	c.log.Info("Connected", zap.String("addr", c.opts.Addr))
	return nil
}

func (c *Conn) invalidateLocked() {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log.Warn("Failed to close broken connection", zap.Error(err))
		}
		c.conn = nil
	}
	c.secure = nil
}
