package domain

import "context"

// EventHandlers receives lifecycle events from a ClientAdapter. Each
// adapter instance delivers events to exactly one handler set; handlers
// for one session are never invoked concurrently with each other.
type EventHandlers struct {
	// OnQR is called when the remote network issues a QR challenge.
	OnQR func(code string)
	// OnReady is called when the session is authenticated and chatting.
	OnReady func()
	// OnDisconnected is called when the connection is lost, with a
	// human-readable reason.
	OnDisconnected func(reason string)
}

// ClientAdapter wraps one authenticated connection to the remote chat
// network. Implementations own the underlying client exclusively;
// callers interact only through this interface.
type ClientAdapter interface {
	// Connect registers the handlers and starts connecting. Handlers
	// may fire any time after Connect returns. Calling Connect twice is
	// an error.
	Connect(ctx context.Context, handlers EventHandlers) error

	// SendText delivers a text message to the given phone number.
	// Returns ErrNotConnected when the session is not authenticated and
	// ErrNumberNotRegistered when the number is unknown to the network.
	SendText(ctx context.Context, number, text string) error

	// IsConnected reports whether the underlying client currently holds
	// a live, authenticated connection. The error is non-nil only when
	// the client cannot be queried at all.
	IsConnected(ctx context.Context) (bool, error)

	// Logout terminates the session on the remote side and releases the
	// connection. The adapter is unusable afterwards.
	Logout(ctx context.Context) error

	// Close releases the local connection without logging out remotely,
	// so the session can be recovered after a restart.
	Close() error
}

// AdapterFactory builds a ClientAdapter for a session name. The
// registry and recovery paths use it so tests can substitute fakes.
type AdapterFactory func(name string) (ClientAdapter, error)
