package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
)

var testLogger = zerolog.New(io.Discard)

type fakeConn struct {
	mu      sync.Mutex
	name    string
	sent    [][]byte
	sendErr error
	closed  bool
}

func newFakeConn(name string) *fakeConn {
	return &fakeConn{name: name}
}

func (c *fakeConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	if c.closed {
		return errConnClosed
	}
	c.sent = append(c.sent, append([]byte(nil), payload...))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeConn) Messages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.sent...)
}

func (c *fakeConn) IsClosed() bool {
	return !c.Alive()
}

func (c *fakeConn) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// stubVerifier resolves fixed tokens.
type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (*auth.Principal, error) {
	switch token {
	case "alice-token":
		p := auth.NewPrincipal("alice", "employee")
		return &p, nil
	case "bob-token":
		p := auth.NewPrincipal("bob", "admin")
		return &p, nil
	case "nouser-token":
		p := auth.NewPrincipal("", "employee")
		return &p, nil
	case "broken-token":
		return nil, errors.New("identity provider unreachable")
	case "panic-token":
		panic("verifier exploded")
	default:
		return nil, fmt.Errorf("%w: unknown token", auth.ErrInvalidToken)
	}
}
