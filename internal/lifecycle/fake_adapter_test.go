package lifecycle

import (
	"context"
	"sync"

	"github.com/dkovac/wagate/internal/domain"
)

// fakeAdapter is an in-memory ClientAdapter whose lifecycle events the
// tests fire by hand.
type fakeAdapter struct {
	mu       sync.Mutex
	handlers domain.EventHandlers

	connectErr error
	sendErr    error
	stateErr   error
	connected  bool

	sent      []sentMessage
	loggedOut bool
	closed    bool
}

type sentMessage struct {
	number, text string
}

func (f *fakeAdapter) Connect(_ context.Context, handlers domain.EventHandlers) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	f.handlers = handlers
	return nil
}

func (f *fakeAdapter) SendText(_ context.Context, number, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMessage{number: number, text: text})
	return nil
}

func (f *fakeAdapter) IsConnected(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected, f.stateErr
}

func (f *fakeAdapter) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = true
	f.connected = false
	return nil
}

func (f *fakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeAdapter) fireQR(code string) {
	f.mu.Lock()
	h := f.handlers
	f.mu.Unlock()
	if h.OnQR != nil {
		h.OnQR(code)
	}
}

func (f *fakeAdapter) fireReady() {
	f.mu.Lock()
	h := f.handlers
	f.connected = true
	f.mu.Unlock()
	if h.OnReady != nil {
		h.OnReady()
	}
}

func (f *fakeAdapter) fireDisconnected(reason string) {
	f.mu.Lock()
	h := f.handlers
	f.connected = false
	f.mu.Unlock()
	if h.OnDisconnected != nil {
		h.OnDisconnected(reason)
	}
}

func (f *fakeAdapter) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

var _ domain.ClientAdapter = (*fakeAdapter)(nil)

// fakeFactory hands out one fakeAdapter per session name and remembers
// them for inspection.
type fakeFactory struct {
	mu       sync.Mutex
	adapters map[string]*fakeAdapter
	err      error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{adapters: make(map[string]*fakeAdapter)}
}

func (f *fakeFactory) factory(name string) (domain.ClientAdapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a := &fakeAdapter{}
	f.adapters[name] = a
	return a, nil
}

func (f *fakeFactory) adapter(name string) *fakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adapters[name]
}
