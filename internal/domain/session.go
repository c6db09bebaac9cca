package domain

import "time"

// Status is the lifecycle state of a session. The wire spellings match
// what clients of the original gateway already parse.
type Status string

const (
	StatusStarting     Status = "starting"
	StatusWaitingQR    Status = "waiting_qr"
	StatusInChat       Status = "inChat"
	StatusDisconnected Status = "disconnected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusStarting, StatusWaitingQR, StatusInChat, StatusDisconnected:
		return true
	}
	return false
}

// SessionRecord is the durable and observable unit of a session: its
// name, lifecycle status, and the pending QR challenge if any. QRCode
// is non-empty only while Status is StatusWaitingQR.
type SessionRecord struct {
	Name      string    `json:"name"`
	Status    Status    `json:"status"`
	QRCode    string    `json:"qr_code,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanTransition reports whether moving from from to next is a legal
// edge of the session state machine. Disconnection is reachable from
// any state; a QR challenge may be re-issued from inChat
// (re-authentication); a disconnected session may be restarted.
func CanTransition(from, to Status) bool {
	if to == StatusDisconnected {
		return true
	}
	switch from {
	case StatusStarting:
		return to == StatusWaitingQR || to == StatusInChat
	case StatusWaitingQR:
		return to == StatusInChat || to == StatusWaitingQR
	case StatusInChat:
		return to == StatusWaitingQR
	case StatusDisconnected:
		return to == StatusStarting
	}
	return false
}
