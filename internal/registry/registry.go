// Package registry owns the live session handles: the in-memory map
// from session name to handle, per-session transition serialization,
// and write-through persistence of every transition.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/dkovac/wagate/internal/domain"
	"github.com/dkovac/wagate/internal/store"
)

// Handle pairs a session's record with its client adapter. The registry
// exclusively owns all handles; the handle mutex serializes transitions
// for one session without blocking any other session.
type Handle struct {
	mu      sync.Mutex
	rec     domain.SessionRecord
	adapter domain.ClientAdapter
}

// Record returns a copy of the last fully-applied record.
func (h *Handle) Record() domain.SessionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rec
}

// Adapter returns the session's client adapter.
func (h *Handle) Adapter() domain.ClientAdapter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.adapter
}

// SetAdapter attaches the client adapter after construction. Recovery
// seeds handles before their adapters exist.
func (h *Handle) SetAdapter(a domain.ClientAdapter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.adapter = a
}

// Registry is the session registry. The map mutex guards only the map
// itself; record mutations take the per-handle mutex.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handle

	store  store.Store
	logger *zap.Logger
}

// New builds an empty registry writing through to st.
func New(st store.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Handle),
		store:    st,
		logger:   logger,
	}
}

// GetOrCreate returns the handle for name, creating and persisting a
// Starting record first if none exists. created reports whether this
// call made the session. Starting an existing session is a no-op.
func (r *Registry) GetOrCreate(ctx context.Context, name string) (*Handle, bool, error) {
	r.mu.Lock()
	if h, ok := r.sessions[name]; ok {
		r.mu.Unlock()
		return h, false, nil
	}
	h := &Handle{rec: domain.SessionRecord{
		Name:      name,
		Status:    domain.StatusStarting,
		UpdatedAt: time.Now().UTC(),
	}}
	r.sessions[name] = h
	r.mu.Unlock()

	if err := r.store.Save(ctx, h.Record()); err != nil {
		r.logger.Error("checkpoint write failed",
			zap.String("session", name), zap.Error(err))
		return h, true, fmt.Errorf("persist session %s: %w", name, err)
	}
	return h, true, nil
}

// Seed inserts a handle with a previously persisted record, used by
// recovery. It does not write the checkpoint back. Returns the existing
// handle unchanged if the name is already registered.
func (r *Registry) Seed(rec domain.SessionRecord) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.sessions[rec.Name]; ok {
		return h
	}
	h := &Handle{rec: rec}
	r.sessions[rec.Name] = h
	return h
}

// Get returns the handle for name, or ok=false.
func (r *Registry) Get(name string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[name]
	return h, ok
}

// ApplyTransition moves the named session to status, updating the QR
// payload and persisting the result. Transitions for one session are
// serialized on its handle; the checkpoint write happens inside that
// critical section so no two writers ever race on one session's file.
// A persist failure keeps the in-memory transition and returns the
// error; durability lags until the next successful write.
func (r *Registry) ApplyTransition(ctx context.Context, name string, status domain.Status, qr string) error {
	h, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !domain.CanTransition(h.rec.Status, status) {
		return fmt.Errorf("%w: %s -> %s (session %s)",
			domain.ErrInvalidTransition, h.rec.Status, status, name)
	}
	h.rec.Status = status
	if status == domain.StatusWaitingQR {
		h.rec.QRCode = qr
	} else {
		h.rec.QRCode = ""
	}
	h.rec.UpdatedAt = time.Now().UTC()

	if err := r.store.Save(ctx, h.rec); err != nil {
		r.logger.Error("checkpoint write failed",
			zap.String("session", name),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("persist session %s: %w", name, err)
	}
	r.logger.Debug("session transition",
		zap.String("session", name), zap.String("status", string(status)))
	return nil
}

// Remove evicts the handle and deletes its checkpoint.
func (r *Registry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	_, ok := r.sessions[name]
	delete(r.sessions, name)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	return r.store.Delete(ctx, name)
}

// List returns a snapshot of every session's last fully-applied record,
// ordered by name.
func (r *Registry) List() []domain.SessionRecord {
	r.mu.RLock()
	handles := lo.Values(r.sessions)
	r.mu.RUnlock()

	recs := lo.Map(handles, func(h *Handle, _ int) domain.SessionRecord {
		return h.Record()
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
