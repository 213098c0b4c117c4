package cblite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"gitlab.com/flimzy/testy"
)

type unavailableBridge struct {
	Bridge
}

func (unavailableBridge) Available() bool { return false }

// listeningGate returns a gate ready for Notify.
func listeningGate(bridge Bridge, logger hclog.Logger) *Gate {
	g := NewGate(bridge, logger)
	g.Listen()
	return g
}

func TestGateListen(t *testing.T) {
	g := NewGate(StaticBridge(testDSN), nil)
	if state := g.State(); state != StateUnstarted {
		t.Errorf("Unexpected state: %s", state)
	}
	err := g.Notify()
	if !errors.Is(err, ErrNotListening) {
		t.Errorf("Unexpected error: %v", err)
	}
	if state := g.State(); state != StateUnstarted {
		t.Errorf("Unexpected state after early notify: %s", state)
	}
	g.Listen()
	if state := g.State(); state != StateAwaitingBridgeEvent {
		t.Errorf("Unexpected state: %s", state)
	}
	if err := g.Notify(); err != nil {
		t.Fatal(err)
	}
	g.Listen()
	if state := g.State(); state == StateUnstarted || state == StateAwaitingBridgeEvent {
		t.Errorf("Listen changed a started gate: %s", state)
	}
}

func TestGateNotify(t *testing.T) {
	tests := []struct {
		name   string
		bridge Bridge
		state  State
		err    string
	}{
		{
			name:  "nil bridge",
			state: StateAwaitingBridgeEvent,
			err:   "cblite: native bridge not found",
		},
		{
			name:   "unavailable bridge",
			bridge: unavailableBridge{StaticBridge(testDSN)},
			state:  StateAwaitingBridgeEvent,
			err:    "cblite: native bridge not found",
		},
		{
			name:   "success",
			bridge: BridgeFunc(func(func(string, error)) {}),
			state:  StateAwaitingURL,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := listeningGate(test.bridge, nil)
			err := g.Notify()
			if state := g.State(); state != test.state {
				t.Errorf("Unexpected state: %s", state)
			}
			testy.Error(t, test.err, err)
		})
	}
}

func TestGateNotifyTwice(t *testing.T) {
	g := listeningGate(StaticBridge(testDSN), nil)
	if err := g.Notify(); err != nil {
		t.Fatal(err)
	}
	err := g.Notify()
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestGateAwait(t *testing.T) {
	t.Run("resolved", func(t *testing.T) {
		g := listeningGate(StaticBridge(testDSN), nil)
		if err := g.Notify(); err != nil {
			t.Fatal(err)
		}
		conn, err := g.Await(context.Background())
		testy.Error(t, "", err)
		if conn.String() != "http://my.couchbase.lite/" {
			t.Errorf("Unexpected URL: %s", conn)
		}
		if state := g.State(); state != StateResolved {
			t.Errorf("Unexpected state: %s", state)
		}
	})
	t.Run("bridge error", func(t *testing.T) {
		g := listeningGate(FailingBridge(errors.New("no server")), nil)
		if err := g.Notify(); err != nil {
			t.Fatal(err)
		}
		_, err := g.Await(context.Background())
		var bridgeErr *BridgeError
		if !errors.As(err, &bridgeErr) {
			t.Errorf("Expected a *BridgeError, got %T", err)
		}
		if state := g.State(); state != StateRejected {
			t.Errorf("Unexpected state: %s", state)
		}
		testy.Error(t, "cblite: unable to connect: no server", err)
	})
	t.Run("invalid URL", func(t *testing.T) {
		g := listeningGate(StaticBridge("localhost"), nil)
		if err := g.Notify(); err != nil {
			t.Fatal(err)
		}
		_, err := g.Await(context.Background())
		testy.Error(t, "cblite: unable to connect: cblite: invalid connection URL 'localhost': scheme and host required", err)
	})
	t.Run("context cancelled", func(t *testing.T) {
		g := listeningGate(StaticBridge(testDSN), nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Await(ctx)
		if state := g.State(); state != StateAwaitingBridgeEvent {
			t.Errorf("Unexpected state: %s", state)
		}
		testy.Error(t, "context canceled", err)
	})
}

func TestGateBroadcast(t *testing.T) {
	var answer func(string, error)
	called := make(chan struct{})
	g := listeningGate(BridgeFunc(func(cb func(string, error)) {
		answer = cb
		close(called)
	}), nil)

	const waiters = 10
	conns := make([]*Connection, waiters)
	errs := make([]error, waiters)
	wg := sync.WaitGroup{}
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			conns[i], errs[i] = g.Await(ctx)
		}(i)
	}
	if err := g.Notify(); err != nil {
		t.Fatal(err)
	}
	<-called
	answer(testDSN, nil)
	// A second answer must not change the outcome.
	answer("http://other.host/", errors.New("ignored"))
	wg.Wait()

	late, err := g.Await(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Errorf("waiter %d: unexpected error: %s", i, errs[i])
		}
		if conns[i] != late {
			t.Errorf("waiter %d: got a different connection", i)
		}
	}
	if late.AuthToken != "dXNlcm5hbWU6cGFzc3dvcmQ=" {
		t.Errorf("Unexpected token: %s", late.AuthToken)
	}
}

func TestStateString(t *testing.T) {
	for state, expected := range map[State]string{
		StateUnstarted:           "unstarted",
		StateAwaitingBridgeEvent: "awaiting bridge event",
		StateAwaitingURL:         "awaiting url",
		StateResolved:            "resolved",
		StateRejected:            "rejected",
		State(99):                "unknown",
	} {
		if got := state.String(); got != expected {
			t.Errorf("%d: expected %q, got %q", state, expected, got)
		}
	}
}
