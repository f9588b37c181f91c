package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/smoldb/smoldb-go/protocol"
	"github.com/smoldb/smoldb-go/transport"
)

// Locator identifies a record on the server: the database it lives in and
// the location within that database. No uniqueness is enforced client
// side, the server owns correctness.
type Locator struct {
	Name     string
	Location string
}

// Transport is the connection layer the client drives. *transport.Conn is
// the real one; tests substitute spies and fakes.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Reconnect(ctx context.Context) error
	RoundTrip(ctx context.Context, payload []byte) ([]byte, error)
	Connected() bool
	SetSecure(ch *protocol.SecureChannel)
	Secured() bool
}

var _ Transport = (*transport.Conn)(nil)

// Client is one logical session with a SmolDB server, independent of any
// single connection's lifetime. Safe for concurrent use: one internal
// mutex serializes operations so two requests never interleave on the
// wire.
type Client struct {
	addr string
	log  *zap.Logger

	dialTimeout       time.Duration
	ioTimeout         time.Duration
	requireEncryption bool

	mu        sync.Mutex
	tr        Transport
	key       string
	hasKey    bool
	encrypted bool
	closed    bool
}

// New creates a client bound to addr. It does not connect; the first
// operation (or an explicit Connect) establishes the connection. Fails
// only on malformed address syntax.
func New(addr string, opts ...Option) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", addr, err)
	}

	c := &Client{
		addr: addr,
		log:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.log = c.log.Named("smoldb")

	if c.tr == nil {
		c.tr = transport.New(transport.Options{
			Addr:        addr,
			DialTimeout: c.dialTimeout,
			IOTimeout:   c.ioTimeout,
			Log:         c.log,
		})
	}

	return c, nil
}

// SetKey stores the access key sent with every data operation. Local
// only, no network effect. Calling it again with the same value is a
// no-op; a different value overwrites.
func (c *Client) SetKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasKey && c.key == key {
		return
	}

	c.key = key
	c.hasKey = true
}

// Connect establishes the connection eagerly. Optional: data operations
// connect on demand.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	return c.tr.Connect(ctx)
}

// Disconnect closes the connection. A second call reports
// ErrNotConnected and never panics.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.encrypted = false
	return c.tr.Disconnect()
}

// Reconnect replaces the connection with a fresh one. Encryption is
// connection-scoped, so the sealed channel is always cleared here; see
// SetupEncryption for how it comes back.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.encrypted = false
	return c.tr.Reconnect(ctx)
}

// SetupEncryption upgrades the current connection to a sealed channel.
// Must run before the first data operation on that connection, and
// requires a live connection: it never dials on its own. Clients built
// WithRequireEncryption renegotiate automatically after any reconnect;
// everyone else stays in plaintext until they call this again.
func (c *Client) SetupEncryption(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.tr.Connected() {
		return ErrNotConnected
	}
	if c.encrypted {
		return ErrAlreadyEncrypted
	}

	return c.negotiateLocked(ctx)
}

// Read retrieves the record at loc. Returns ErrDataNotFound when the
// locator has never been written.
func (c *Client) Read(ctx context.Context, loc Locator) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.doLocked(ctx, protocol.NewRead(loc.Name, loc.Location, c.key))
}

// Write stores data at loc, overwriting whatever was there.
func (c *Client) Write(ctx context.Context, loc Locator, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.doLocked(ctx, protocol.NewWrite(loc.Name, loc.Location, data, c.key))
	return err
}

// Delete removes the record at loc.
func (c *Client) Delete(ctx context.Context, loc Locator) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.doLocked(ctx, protocol.NewDelete(loc.Name, loc.Location, c.key))
	return err
}

// CreateDB creates a named database on the server.
func (c *Client) CreateDB(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.doLocked(ctx, protocol.NewCreateDB(name, c.key))
	return err
}

// DropDB deletes a named database and everything in it.
func (c *Client) DropDB(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.doLocked(ctx, protocol.NewDropDB(name, c.key))
	return err
}

// ListDB returns the names of the databases on the server.
func (c *Client) ListDB(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := c.doLocked(ctx, protocol.NewListDB(c.key))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0)
	for _, r := range gjson.ParseBytes(payload).Array() {
		names = append(names, r.String())
	}

	return names, nil
}

// Connected reports whether a live connection exists right now.
func (c *Client) Connected() bool {
	return c.tr.Connected()
}

// EncryptionEnabled reports whether the current connection is sealed.
func (c *Client) EncryptionEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.encrypted
}

// Close tears the session down, disconnecting if connected. Idempotent:
// safe to call any number of times.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.encrypted = false

	var err error
	if c.tr.Connected() {
		err = multierr.Append(err, c.tr.Disconnect())
	}

	return err
}

// doLocked is the shared request path: authentication gate, lazy
// reconnect, encryption policy, then one round trip.
func (c *Client) doLocked(ctx context.Context, req *protocol.Request) ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}

	// The key gate comes before anything touches the network.
	if !c.hasKey {
		return nil, ErrAuthenticationMissing
	}

	// Lazy connect: a single reconnect attempt, then fail.
	if !c.tr.Connected() {
		if err := c.tr.Reconnect(ctx); err != nil {
			return nil, err
		}
		c.encrypted = false
	}

	if c.requireEncryption && !c.encrypted {
		if err := c.negotiateLocked(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := req.Marshal()
	if err != nil {
		return nil, err
	}

	reply, err := c.tr.RoundTrip(ctx, payload)
	if err != nil {
		c.encrypted = false
		return nil, err
	}

	resp, err := protocol.UnmarshalResponse(reply)
	if err != nil {
		return nil, err
	}

	return protocol.MapResponse(resp)
}

func (c *Client) negotiateLocked(ctx context.Context) error {
	pub, priv, err := protocol.GenerateKeyPair()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
	}

	payload, err := protocol.NewNegotiate(pub[:]).Marshal()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
	}

	reply, err := c.tr.RoundTrip(ctx, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
	}

	resp, err := protocol.UnmarshalResponse(reply)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
	}

	serverPub, err := protocol.MapResponse(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
	}

	if len(serverPub) != protocol.PublicKeySize {
		return fmt.Errorf("%w: server public key is %d bytes", ErrNegotiationFailed, len(serverPub))
	}

	var peer [32]byte
	copy(peer[:], serverPub)

	c.tr.SetSecure(protocol.NewSecureChannel(&peer, priv))
	c.encrypted = true

	c.log.Info("Encryption negotiated")
	return nil
}
