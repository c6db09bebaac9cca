package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovac/wagate/internal/domain"
	"github.com/dkovac/wagate/internal/registry"
	"github.com/dkovac/wagate/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *fakeFactory, *store.FileStore) {
	t.Helper()
	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	reg := registry.New(st, nil)
	ff := newFakeFactory()
	return NewManager(reg, ff.factory, nil), ff, st
}

func TestStartSessionConnectsClient(t *testing.T) {
	mgr, ff, st := newTestManager(t)
	ctx := context.Background()

	rec, created, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, domain.StatusStarting, rec.Status)
	require.NotNil(t, ff.adapter("alice"))

	// The Starting checkpoint exists before any event arrives.
	saved, ok, err := st.Load(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusStarting, saved.Status)
}

func TestStartSessionIdempotent(t *testing.T) {
	mgr, ff, _ := newTestManager(t)
	ctx := context.Background()

	_, created, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	require.True(t, created)
	first := ff.adapter("alice")

	ff.adapter("alice").fireQR("QR1")

	rec, created, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, domain.StatusWaitingQR, rec.Status)
	assert.Same(t, first, ff.adapter("alice"))
}

func TestControllerDrivesStateMachine(t *testing.T) {
	mgr, ff, _ := newTestManager(t)
	ctx := context.Background()

	_, _, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	a := ff.adapter("alice")

	a.fireQR("ABC123")
	rec, err := mgr.ConnectionStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaitingQR, rec.Status)
	assert.Equal(t, "ABC123", rec.QRCode)

	a.fireReady()
	rec, err = mgr.ConnectionStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInChat, rec.Status)
	assert.Empty(t, rec.QRCode)

	a.fireDisconnected("network down")
	rec, err = mgr.ConnectionStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisconnected, rec.Status)
}

func TestConnectionStatusUnknownSession(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	_, err := mgr.ConnectionStatus(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConnectionStatusCorrectsStaleInChat(t *testing.T) {
	mgr, ff, _ := newTestManager(t)
	ctx := context.Background()

	_, _, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	a := ff.adapter("alice")
	a.fireReady()

	// Drop the connection without delivering the disconnect event, as a
	// silently failed reconnect would.
	a.mu.Lock()
	a.connected = false
	a.mu.Unlock()

	rec, err := mgr.ConnectionStatus(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisconnected, rec.Status)
}

func TestConnectionStatusAdapterQueryError(t *testing.T) {
	mgr, ff, _ := newTestManager(t)
	ctx := context.Background()

	_, _, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	a := ff.adapter("alice")
	a.fireReady()

	a.mu.Lock()
	a.stateErr = errors.New("client gone")
	a.mu.Unlock()

	_, err = mgr.ConnectionStatus(ctx, "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestSendText(t *testing.T) {
	mgr, ff, _ := newTestManager(t)
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		err := mgr.SendText(ctx, "ghost", "5511999999999", "hi")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	_, _, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	a := ff.adapter("alice")

	t.Run("not connected", func(t *testing.T) {
		err := mgr.SendText(ctx, "alice", "5511999999999", "hi")
		require.ErrorIs(t, err, domain.ErrNotConnected)
		assert.Empty(t, a.sentMessages())
	})

	t.Run("delivers when chatting", func(t *testing.T) {
		a.fireReady()
		require.NoError(t, mgr.SendText(ctx, "alice", "5511999999999", "hi"))
		sent := a.sentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "5511999999999", sent[0].number)
		assert.Equal(t, "hi", sent[0].text)
	})

	t.Run("upstream failure propagates", func(t *testing.T) {
		a.mu.Lock()
		a.sendErr = errors.New("send blew up")
		a.mu.Unlock()
		err := mgr.SendText(ctx, "alice", "5511999999999", "hi")
		require.Error(t, err)
	})
}

func TestDisconnectSessionRemovesEverything(t *testing.T) {
	mgr, ff, st := newTestManager(t)
	ctx := context.Background()

	_, _, err := mgr.StartSession(ctx, "alice")
	require.NoError(t, err)
	ff.adapter("alice").fireReady()

	require.NoError(t, mgr.DisconnectSession(ctx, "alice"))
	assert.True(t, ff.adapter("alice").loggedOut)

	_, ok := mgr.Registry().Get("alice")
	assert.False(t, ok)
	_, ok, err = st.Load(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.ErrorIs(t, mgr.DisconnectSession(ctx, "alice"), domain.ErrNotFound)
}
