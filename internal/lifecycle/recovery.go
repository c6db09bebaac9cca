package lifecycle

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkovac/wagate/internal/domain"
	"github.com/dkovac/wagate/internal/registry"
	"github.com/dkovac/wagate/internal/store"
)

// Recovery rebuilds the session registry from persisted checkpoints at
// process start. Each recovered session is seeded with its last known
// status rather than Starting: re-authentication of the underlying
// client can take minutes, and callers should not see a previously
// chatting session report "starting" in the meantime. The seeded status
// stays until an adapter event or an explicit status query corrects it.
type Recovery struct {
	st      store.Store
	reg     *registry.Registry
	factory domain.AdapterFactory
	logger  *zap.Logger
}

// NewRecovery builds a Recovery.
func NewRecovery(st store.Store, reg *registry.Registry, factory domain.AdapterFactory, logger *zap.Logger) *Recovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recovery{st: st, reg: reg, factory: factory, logger: logger}
}

// Run enumerates every checkpoint, seeds the registry, and starts a
// fresh adapter plus controller per session. A session whose client
// cannot be rebuilt or reconnected keeps its seeded status; the failure
// is logged, never fatal. Returns the number of sessions recovered into
// the registry.
func (r *Recovery) Run(ctx context.Context) (int, error) {
	recs, err := r.st.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, rec := range recs {
		// A checkpoint may predate the QR-clearing fix; enforce the
		// invariant that only waiting_qr carries a payload. A stale
		// waiting_qr code is kept until the fresh client reissues one.
		if rec.Status != domain.StatusWaitingQR {
			rec.QRCode = ""
		}
		h := r.reg.Seed(rec)
		recovered++

		adapter, err := r.factory(rec.Name)
		if err != nil {
			r.logger.Warn("recovery: client rebuild failed",
				zap.String("session", rec.Name), zap.Error(err))
			continue
		}
		h.SetAdapter(adapter)

		ctl := NewController(rec.Name, r.reg, r.logger)
		if err := adapter.Connect(ctx, ctl.Handlers()); err != nil {
			r.logger.Warn("recovery: reconnect failed",
				zap.String("session", rec.Name), zap.Error(err))
			continue
		}
		r.logger.Info("session recovered",
			zap.String("session", rec.Name),
			zap.String("status", string(rec.Status)))
	}
	return recovered, nil
}
