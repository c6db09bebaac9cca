// Package adapter implements the chat-network client adapter on top of
// whatsmeow, one client and one sqlite device store per session.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/dkovac/wagate/internal/domain"
)

// WhatsmeowAdapter wraps one whatsmeow client. It satisfies
// domain.ClientAdapter; nothing outside this package touches the client
// directly.
type WhatsmeowAdapter struct {
	name   string
	dbPath string
	logger *zap.Logger

	mu        sync.Mutex
	client    *whatsmeow.Client
	container *sqlstore.Container
	connected bool
}

// NewFactory returns an AdapterFactory that stores each session's
// device credentials in storeDir/<name>.db.
func NewFactory(storeDir string, logger *zap.Logger) (domain.AdapterFactory, error) {
	if err := os.MkdirAll(storeDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(name string) (domain.ClientAdapter, error) {
		safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
		return &WhatsmeowAdapter{
			name:   name,
			dbPath: filepath.Join(storeDir, safe+".db"),
			logger: logger.With(zap.String("session", name)),
		}, nil
	}, nil
}

// Connect implements domain.ClientAdapter. QR codes are streamed from
// the client's QR channel; connection state events arrive through the
// client's event handler. Both outlive ctx: the adapter's event flow
// belongs to the session, not to the request that started it.
func (a *WhatsmeowAdapter) Connect(ctx context.Context, handlers domain.EventHandlers) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connected {
		return fmt.Errorf("session %s: already connected", a.name)
	}

	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", a.dbPath), waLog.Noop)
	if err != nil {
		return fmt.Errorf("open device store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("load device: %w", err)
	}

	client := whatsmeow.NewClient(device, waLog.Noop)
	client.AddEventHandler(func(evt interface{}) {
		switch e := evt.(type) {
		case *events.Connected:
			if handlers.OnReady != nil {
				handlers.OnReady()
			}
		case *events.Disconnected:
			if handlers.OnDisconnected != nil {
				handlers.OnDisconnected("connection lost")
			}
		case *events.LoggedOut:
			if handlers.OnDisconnected != nil {
				handlers.OnDisconnected(fmt.Sprintf("logged out: %s", e.Reason))
			}
		}
	})

	if client.Store.ID == nil {
		// Never paired: a QR challenge is coming. The channel must be
		// requested before Connect and lives as long as the session.
		qrChan, err := client.GetQRChannel(context.Background())
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" && handlers.OnQR != nil {
					handlers.OnQR(evt.Code)
				}
			}
		}()
	} else {
		if err := client.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
	}

	a.client = client
	a.container = container
	a.connected = true
	a.logger.Debug("client connecting", zap.String("db", a.dbPath))
	return nil
}

// SendText implements domain.ClientAdapter. The number is normalized to
// digits and verified against the network before sending.
func (a *WhatsmeowAdapter) SendText(ctx context.Context, number, text string) error {
	client := a.currentClient()
	if client == nil || !client.IsLoggedIn() {
		return domain.ErrNotConnected
	}

	digits := normalizeNumber(number)
	if digits == "" {
		return errors.New("invalid recipient number")
	}

	resp, err := client.IsOnWhatsApp([]string{"+" + digits})
	if err != nil {
		return fmt.Errorf("verify number: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("%w: %s", domain.ErrNumberNotRegistered, number)
	}
	jid := resp[0].JID
	if jid.IsEmpty() {
		jid = types.NewJID(digits, types.DefaultUserServer)
	}

	_, err = client.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)})
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// IsConnected implements domain.ClientAdapter.
func (a *WhatsmeowAdapter) IsConnected(context.Context) (bool, error) {
	client := a.currentClient()
	if client == nil {
		return false, errors.New("client not initialized")
	}
	return client.IsConnected() && client.IsLoggedIn(), nil
}

// Logout implements domain.ClientAdapter. The device store file is
// removed too so a later fresh start pairs from scratch.
func (a *WhatsmeowAdapter) Logout(ctx context.Context) error {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.connected = false
	a.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	client.Disconnect()
	if err := os.Remove(a.dbPath); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("device store not removed", zap.Error(err))
	}
	return nil
}

// Close implements domain.ClientAdapter.
func (a *WhatsmeowAdapter) Close() error {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.connected = false
	a.mu.Unlock()

	if client != nil {
		client.Disconnect()
	}
	return nil
}

func (a *WhatsmeowAdapter) currentClient() *whatsmeow.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// normalizeNumber strips everything but digits.
func normalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var _ domain.ClientAdapter = (*WhatsmeowAdapter)(nil)
