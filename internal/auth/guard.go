// Package auth gates gateway operations: a process-wide API credential
// for administrative calls and a per-request session identity for
// session-scoped calls.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// Sentinel errors the request layer maps to HTTP statuses.
var (
	// ErrMissingCredential means no API key was supplied at all.
	ErrMissingCredential = errors.New("missing api key")
	// ErrBadCredential means an API key was supplied but did not match.
	ErrBadCredential = errors.New("invalid api key")
	// ErrNoSession means no session identifier was found in the header,
	// body, or query.
	ErrNoSession = errors.New("missing session identifier")
	// ErrSessionKeyMismatch means the sessionkey header named a
	// different session than the request targeted.
	ErrSessionKeyMismatch = errors.New("sessionkey does not match session")
)

// Guard validates credentials and session identities.
type Guard struct {
	apiKey string
}

// NewGuard builds a guard around the process-wide secret.
func NewGuard(apiKey string) *Guard {
	return &Guard{apiKey: apiKey}
}

// CheckCredential validates the supplied API key against the secret.
// The comparison is constant-time.
func (g *Guard) CheckCredential(supplied string) error {
	if strings.TrimSpace(supplied) == "" {
		return ErrMissingCredential
	}
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(g.apiKey)) != 1 {
		return ErrBadCredential
	}
	return nil
}

// SessionFrom picks the session identifier from the candidate sources.
// Precedence is header, then body, then query; the first non-empty
// value wins.
func (g *Guard) SessionFrom(header, body, query string) (string, error) {
	for _, v := range []string{header, body, query} {
		if s := strings.TrimSpace(v); s != "" {
			return s, nil
		}
	}
	return "", ErrNoSession
}

// CheckSessionKey enforces that the sessionkey header equals the target
// session name, for operations that require proof of session ownership.
func (g *Guard) CheckSessionKey(sessionKey, session string) error {
	if sessionKey != session {
		return ErrSessionKeyMismatch
	}
	return nil
}
