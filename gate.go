package cblite

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// State is the state of a Gate.
type State int

// Gate states. Resolved and Rejected are terminal.
const (
	StateUnstarted State = iota
	StateAwaitingBridgeEvent
	StateAwaitingURL
	StateResolved
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateAwaitingBridgeEvent:
		return "awaiting bridge event"
	case StateAwaitingURL:
		return "awaiting url"
	case StateResolved:
		return "resolved"
	case StateRejected:
		return "rejected"
	}
	return "unknown"
}

// Gate is a one-shot barrier which resolves to the server Connection once the
// host environment is ready and the native bridge has reported the server
// URL. The outcome, success or failure, is replayed to every caller of Await,
// before or after it happens.
type Gate struct {
	bridge Bridge
	log    hclog.Logger

	mu    sync.Mutex
	state State
	done  chan struct{}
	conn  *Connection
	err   error
}

// NewGate returns an unstarted gate. Call Listen once the host's readiness
// notification is routed to Notify. A nil logger discards log output.
func NewGate(bridge Bridge, logger hclog.Logger) *Gate {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Gate{
		bridge: bridge,
		log:    logger,
		state:  StateUnstarted,
		done:   make(chan struct{}),
	}
}

// Listen marks the gate as waiting for the host's readiness notification.
// It has no effect once the gate has started.
func (g *Gate) Listen() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateUnstarted {
		g.state = StateAwaitingBridgeEvent
	}
}

// State returns the current state of the gate.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Notify tells the gate that the host environment is ready, and asks the
// bridge for the server URL. It returns ErrBridgeMissing, without changing
// state, if there is no bridge, ErrNotListening before Listen, and
// ErrAlreadyInitialized on any call after the first successful one.
func (g *Gate) Notify() error {
	g.mu.Lock()
	if g.bridge == nil {
		g.mu.Unlock()
		g.log.Error("native bridge not found")
		return ErrBridgeMissing
	}
	if a, ok := g.bridge.(availabler); ok && !a.Available() {
		g.mu.Unlock()
		g.log.Error("native bridge not found")
		return ErrBridgeMissing
	}
	switch g.state {
	case StateUnstarted:
		g.mu.Unlock()
		return ErrNotListening
	case StateAwaitingBridgeEvent:
	default:
		g.mu.Unlock()
		return ErrAlreadyInitialized
	}
	g.state = StateAwaitingURL
	g.mu.Unlock()

	g.log.Debug("device ready, requesting server URL")
	g.bridge.GetURL(g.settle)
	return nil
}

// settle records the bridge's answer. Only the first answer counts.
func (g *Gate) settle(raw string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateAwaitingURL {
		return
	}
	if err == nil {
		g.conn, err = ParseConnection(raw)
	}
	if err != nil {
		g.err = &BridgeError{Err: err}
		g.state = StateRejected
		g.log.Error("unable to connect to server", "error", err)
	} else {
		g.state = StateResolved
		g.log.Info("server running", "url", g.conn.String())
	}
	close(g.done)
}

// Await blocks until the gate settles, then returns its connection or its
// error. Cancelling ctx abandons this wait only; the gate itself is unaffected.
func (g *Gate) Await(ctx context.Context) (*Connection, error) {
	select {
	case <-g.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conn, g.err
}
