// Package qrwait waits, with a bounded number of attempts, for a
// session's QR challenge to become available.
package qrwait

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dkovac/wagate/internal/registry"
	"github.com/dkovac/wagate/internal/store"
)

// Poller repeatedly checks the live registry and then the checkpoint
// store for a session's QR payload. The wait between attempts runs on
// an injected clock so tests never sleep for real.
type Poller struct {
	reg   *registry.Registry
	st    store.Store
	clock clock.Clock
}

// New builds a poller on the real clock.
func New(reg *registry.Registry, st store.Store) *Poller {
	return NewWithClock(reg, st, clock.New())
}

// NewWithClock builds a poller on the given clock.
func NewWithClock(reg *registry.Registry, st store.Store, clk clock.Clock) *Poller {
	return &Poller{reg: reg, st: st, clock: clk}
}

// Await polls up to maxAttempts times, interval apart, for a non-empty
// QR payload. Returns the payload and ok=true on the first hit. Running
// out of attempts is not an error: ok=false tells the caller the code
// is simply not available yet. Only the calling goroutine waits; a
// cancelled ctx ends the wait early.
func (p *Poller) Await(ctx context.Context, name string, maxAttempts int, interval time.Duration) (string, bool, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			timer := p.clock.Timer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", false, ctx.Err()
			case <-timer.C:
			}
		}

		if h, ok := p.reg.Get(name); ok {
			if qr := h.Record().QRCode; qr != "" {
				return qr, true, nil
			}
		}
		rec, ok, err := p.st.Load(ctx, name)
		if err != nil {
			return "", false, err
		}
		if ok && rec.QRCode != "" {
			return rec.QRCode, true, nil
		}
	}
	return "", false, nil
}
