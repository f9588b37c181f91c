package client_test

import (
	"context"
	"sync"

	"github.com/smoldb/smoldb-go/client"
	"github.com/smoldb/smoldb-go/protocol"
	"github.com/smoldb/smoldb-go/transport"
)

// spyTransport records every call so tests can assert on exactly what
// touched the wire. The handler fakes the server side.
type spyTransport struct {
	mu sync.Mutex

	connected bool
	secure    *protocol.SecureChannel

	connectCalls    int
	reconnectCalls  int
	disconnectCalls int

	// requests seen by RoundTrip, in order
	requests [][]byte

	// handler produces the reply payload for a request
	handler func(payload []byte) []byte
}

var _ client.Transport = (*spyTransport)(nil)

func newSpyTransport(handler func(payload []byte) []byte) *spyTransport {
	return &spyTransport{handler: handler}
}

// okHandler replies status 0 to everything.
func okHandler(payload []byte) []byte {
	raw, _ := (&protocol.Response{Status: protocol.StatusOK}).Marshal()
	return raw
}

func (s *spyTransport) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connectCalls++
	s.connected = true
	return nil
}

func (s *spyTransport) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disconnectCalls++
	if !s.connected {
		return transport.ErrNotConnected
	}
	s.connected = false
	s.secure = nil
	return nil
}

func (s *spyTransport) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reconnectCalls++
	s.connected = true
	s.secure = nil
	return nil
}

func (s *spyTransport) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, transport.ErrNotConnected
	}

	s.requests = append(s.requests, payload)
	return s.handler(payload), nil
}

func (s *spyTransport) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

func (s *spyTransport) SetSecure(ch *protocol.SecureChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.secure = ch
}

func (s *spyTransport) Secured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.secure != nil
}

func (s *spyTransport) networkCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connectCalls + s.reconnectCalls + len(s.requests)
}
