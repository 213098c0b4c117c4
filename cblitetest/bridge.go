package cblitetest

import (
	"sync"

	"github.com/go-kivik/cblite"
)

// Bridge is a native bridge whose answer is given by the test, so that code
// can be observed while the gate is still waiting for the server URL.
type Bridge struct {
	mu        sync.Mutex
	callbacks []func(string, error)
	asked     chan struct{}
	missing   bool
}

var _ cblite.Bridge = &Bridge{}

// NewBridge returns a bridge which has not been asked for a URL yet.
func NewBridge() *Bridge {
	return &Bridge{asked: make(chan struct{})}
}

// MissingBridge returns a bridge which reports the native side as absent.
func MissingBridge() *Bridge {
	b := NewBridge()
	b.missing = true
	return b
}

// Available reports whether the native side is present.
func (b *Bridge) Available() bool {
	return !b.missing
}

// GetURL records callback for a later Answer.
func (b *Bridge) GetURL(callback func(url string, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, callback)
	if len(b.callbacks) == 1 {
		close(b.asked)
	}
}

// Asked is closed once the bridge has been asked for a URL.
func (b *Bridge) Asked() <-chan struct{} {
	return b.asked
}

// Calls returns the number of times the bridge was asked for a URL.
func (b *Bridge) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.callbacks)
}

// Answer passes url and err to every recorded callback. It returns false if
// the bridge has not been asked yet.
func (b *Bridge) Answer(url string, err error) bool {
	b.mu.Lock()
	callbacks := append(([]func(string, error))(nil), b.callbacks...)
	b.mu.Unlock()
	for _, cb := range callbacks {
		cb(url, err)
	}
	return len(callbacks) > 0
}
