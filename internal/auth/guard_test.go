package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCredential(t *testing.T) {
	g := NewGuard("s3cret")

	t.Run("missing", func(t *testing.T) {
		require.ErrorIs(t, g.CheckCredential(""), ErrMissingCredential)
		require.ErrorIs(t, g.CheckCredential("   "), ErrMissingCredential)
	})

	t.Run("mismatch", func(t *testing.T) {
		require.ErrorIs(t, g.CheckCredential("wrong"), ErrBadCredential)
		require.ErrorIs(t, g.CheckCredential("s3cret "), ErrBadCredential)
	})

	t.Run("match", func(t *testing.T) {
		require.NoError(t, g.CheckCredential("s3cret"))
	})
}

func TestSessionFromPrecedence(t *testing.T) {
	g := NewGuard("k")

	cases := []struct {
		name                string
		header, body, query string
		want                string
		wantErr             bool
	}{
		{name: "header wins", header: "h", body: "b", query: "q", want: "h"},
		{name: "body over query", body: "b", query: "q", want: "b"},
		{name: "query last", query: "q", want: "q"},
		{name: "blank header skipped", header: "  ", body: "b", want: "b"},
		{name: "all empty", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := g.SessionFrom(tc.header, tc.body, tc.query)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrNoSession)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckSessionKey(t *testing.T) {
	g := NewGuard("k")
	require.NoError(t, g.CheckSessionKey("alice", "alice"))
	require.ErrorIs(t, g.CheckSessionKey("bob", "alice"), ErrSessionKeyMismatch)
	require.ErrorIs(t, g.CheckSessionKey("", "alice"), ErrSessionKeyMismatch)
}
