package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dkovac/wagate/internal/auth"
	"github.com/dkovac/wagate/internal/domain"
)

// Request/response shapes. Field spellings are the gateway's public
// contract; existing clients already parse them.

type sessionRequest struct {
	Session string `json:"session"`
}

type sendTextRequest struct {
	Session string `json:"session"`
	Number  string `json:"number"`
	Text    string `json:"text"`
}

type sessionSummary struct {
	Name   string        `json:"name"`
	Status domain.Status `json:"status"`
}

const (
	headerAPIKey     = "apikey"
	headerSession    = "session"
	headerSessionKey = "sessionkey"
)

// decodeBody tolerates an empty body so the session identifier can
// still come from the header or query.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// sessionFromRequest applies the header > body > query precedence.
func (s *Server) sessionFromRequest(r *http.Request, bodySession string) (string, error) {
	return s.guard.SessionFrom(
		r.Header.Get(headerSession),
		bodySession,
		r.URL.Query().Get(headerSession),
	)
}

func (s *Server) requireCredential(w http.ResponseWriter, r *http.Request) bool {
	switch err := s.guard.CheckCredential(r.Header.Get(headerAPIKey)); {
	case errors.Is(err, auth.ErrMissingCredential):
		writeError(w, http.StatusUnauthorized, "missing api key")
		return false
	case errors.Is(err, auth.ErrBadCredential):
		writeError(w, http.StatusForbidden, "invalid api key")
		return false
	}
	return true
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !s.requireCredential(w, r) {
		return
	}
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Session == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	if _, _, err := s.mgr.StartSession(r.Context(), req.Session); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": req.Session,
		"status":  "started",
	})
}

func (s *Server) handleGetQRCode(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessionFromRequest(r, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	qr, ok, err := s.poller.Await(r.Context(), session, s.qrMaxAttempts, s.qrInterval)
	if err != nil {
		// Caller went away or the store failed; either way nothing to show.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "QR Code not available")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"status":  domain.StatusWaitingQR,
		"qrCode":  qr,
	})
}

func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.sessionFromRequest(r, req.Session)
	if err != nil {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	rec, err := s.mgr.ConnectionStatus(r.Context(), session)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var qrcode any
	if rec.QRCode != "" {
		qrcode = rec.QRCode
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session": session,
		"status":  rec.Status,
		"qrcode":  qrcode,
	})
}

func (s *Server) handleSendText(w http.ResponseWriter, r *http.Request) {
	var req sendTextRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.sessionFromRequest(r, req.Session)
	if err != nil {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}
	if err := s.guard.CheckSessionKey(r.Header.Get(headerSessionKey), session); err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if req.Number == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "number and text are required")
		return
	}

	err = s.mgr.SendText(r.Context(), session, req.Number, req.Text)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, domain.ErrNotConnected):
		writeError(w, http.StatusBadRequest, "session not connected")
	case errors.Is(err, domain.ErrNumberNotRegistered):
		writeError(w, http.StatusNotFound, "number not registered")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"status": "sent"})
	}
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := s.sessionFromRequest(r, req.Session)
	if err != nil {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	err = s.mgr.DisconnectSession(r.Context(), session)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireCredential(w, r) {
		return
	}
	recs := s.mgr.Registry().List()
	sessions := make([]sessionSummary, 0, len(recs))
	for _, rec := range recs {
		sessions = append(sessions, sessionSummary{Name: rec.Name, Status: rec.Status})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(sessions),
		"sessions": sessions,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"instance":       s.instanceID,
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"sessions":       s.mgr.Registry().Len(),
	})
}
