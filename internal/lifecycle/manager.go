package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkovac/wagate/internal/domain"
	"github.com/dkovac/wagate/internal/registry"
)

// Manager is the entry point the request layer uses to start, query,
// and tear down sessions. It owns adapter construction through the
// injected factory and wires one Controller per adapter.
type Manager struct {
	reg     *registry.Registry
	factory domain.AdapterFactory
	logger  *zap.Logger
}

// NewManager builds a Manager.
func NewManager(reg *registry.Registry, factory domain.AdapterFactory, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{reg: reg, factory: factory, logger: logger}
}

// Registry exposes the session registry for read paths.
func (m *Manager) Registry() *registry.Registry { return m.reg }

// StartSession creates the named session if it does not exist and
// begins connecting its client. Starting an existing session returns
// its current record unchanged.
func (m *Manager) StartSession(ctx context.Context, name string) (domain.SessionRecord, bool, error) {
	h, created, err := m.reg.GetOrCreate(ctx, name)
	if err != nil {
		// Checkpoint write failed; the in-memory session stands, so the
		// caller still gets a usable record.
		m.logger.Warn("session started without durable checkpoint",
			zap.String("session", name), zap.Error(err))
	}
	if !created {
		return h.Record(), false, nil
	}

	adapter, err := m.factory(name)
	if err != nil {
		return h.Record(), true, fmt.Errorf("create client for %s: %w", name, err)
	}
	h.SetAdapter(adapter)

	ctl := NewController(name, m.reg, m.logger)
	if err := adapter.Connect(ctx, ctl.Handlers()); err != nil {
		return h.Record(), true, fmt.Errorf("connect %s: %w", name, err)
	}
	m.logger.Info("session starting", zap.String("session", name))
	return h.Record(), true, nil
}

// ConnectionStatus returns the session's record, corrected by a live
// check against the adapter: a session that claims to be chatting but
// whose client is no longer connected is transitioned to disconnected
// before reporting.
func (m *Manager) ConnectionStatus(ctx context.Context, name string) (domain.SessionRecord, error) {
	h, ok := m.reg.Get(name)
	if !ok {
		return domain.SessionRecord{}, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	rec := h.Record()
	adapter := h.Adapter()
	if adapter == nil || rec.Status != domain.StatusInChat {
		return rec, nil
	}
	connected, err := adapter.IsConnected(ctx)
	if err != nil {
		return rec, fmt.Errorf("query client state for %s: %w", name, err)
	}
	if !connected {
		if err := m.reg.ApplyTransition(ctx, name, domain.StatusDisconnected, ""); err != nil {
			m.logger.Warn("stale status correction failed",
				zap.String("session", name), zap.Error(err))
		}
		rec = h.Record()
	}
	return rec, nil
}

// SendText sends a text message through the named session. The session
// must exist and be in the chatting state.
func (m *Manager) SendText(ctx context.Context, name, number, text string) error {
	h, ok := m.reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	rec := h.Record()
	if rec.Status != domain.StatusInChat {
		return fmt.Errorf("%w: %s is %s", domain.ErrNotConnected, name, rec.Status)
	}
	adapter := h.Adapter()
	if adapter == nil {
		return fmt.Errorf("%w: %s has no client", domain.ErrNotConnected, name)
	}
	return adapter.SendText(ctx, number, text)
}

// DisconnectSession logs the session out on the remote side, evicts it
// from the registry, and removes its checkpoint.
func (m *Manager) DisconnectSession(ctx context.Context, name string) error {
	h, ok := m.reg.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if adapter := h.Adapter(); adapter != nil {
		if err := adapter.Logout(ctx); err != nil {
			return fmt.Errorf("logout %s: %w", name, err)
		}
	}
	if err := m.reg.Remove(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	m.logger.Info("session removed", zap.String("session", name))
	return nil
}
