package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dkovac/wagate/internal/adapter"
	"github.com/dkovac/wagate/internal/auth"
	"github.com/dkovac/wagate/internal/lifecycle"
	"github.com/dkovac/wagate/internal/qrwait"
	"github.com/dkovac/wagate/internal/registry"
	"github.com/dkovac/wagate/internal/server"
	"github.com/dkovac/wagate/internal/store"
)

// ServeCmd runs the gateway: recover persisted sessions, then serve
// HTTP until interrupted.
type ServeCmd struct {
	Port        int    `short:"p" help:"Listen port (overrides config)"`
	SessionsDir string `help:"Checkpoint directory (overrides config)"`
	StoreDir    string `help:"Device store directory (overrides config)"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if c.Port > 0 {
		cfg.Port = c.Port
	}
	if c.SessionsDir != "" {
		cfg.SessionsDir = c.SessionsDir
	}
	if c.StoreDir != "" {
		cfg.StoreDir = c.StoreDir
	}
	if cfg.APIKey == "" {
		return errors.New("api_key is required (set WAGATE_API_KEY or api_key in config)")
	}

	logger := newLogger(globals.Verbose)
	defer logger.Sync()

	st, err := store.NewFileStore(cfg.SessionsDir)
	if err != nil {
		return err
	}
	factory, err := adapter.NewFactory(cfg.StoreDir, logger)
	if err != nil {
		return err
	}

	reg := registry.New(st, logger)
	mgr := lifecycle.NewManager(reg, factory, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	recovered, err := lifecycle.NewRecovery(st, reg, factory, logger).Run(ctx)
	if err != nil {
		return fmt.Errorf("recovery: %w", err)
	}
	logger.Info("recovery complete", zap.Int("sessions", recovered))

	srv := server.New(server.Options{
		Guard:         auth.NewGuard(cfg.APIKey),
		Mgr:           mgr,
		Poller:        qrwait.New(reg, st),
		Logger:        logger,
		QRMaxAttempts: cfg.QR.MaxAttempts,
		QRInterval:    cfg.QR.PollInterval(),
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", zap.Int("port", cfg.Port))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	// Close client connections locally; checkpoints stay for recovery.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	for _, rec := range reg.List() {
		if h, ok := reg.Get(rec.Name); ok {
			if a := h.Adapter(); a != nil {
				if err := a.Close(); err != nil {
					logger.Warn("client close", zap.String("session", rec.Name), zap.Error(err))
				}
			}
		}
	}
	logger.Info("gateway stopped")
	return nil
}
