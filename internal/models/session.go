package models

import "time"

type Status string

const (
	StatusOnline    Status = "online"
	StatusAway      Status = "away"
	StatusBusy      Status = "busy"
	StatusInvisible Status = "invisible"
	StatusOffline   Status = "offline"
)

// ValidStatus reports whether s is one of the known presence statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy, StatusInvisible, StatusOffline:
		return true
	}
	return false
}

// Session is the transient, connection-scoped identity of an authenticated
// client. It is owned exclusively by the presence table: created on
// successful authentication, destroyed on disconnect. The durable Account
// for Username persists independently.
type Session struct {
	// ID is the opaque connection identifier assigned by the transport.
	ID            string
	Username      string
	Avatar        string
	Status        Status
	StatusMessage string
	LastSeen      time.Time

	// Blocked holds connection ids this client has blocked. It is never
	// broadcast; the owning client applies it as a local filter.
	Blocked map[string]struct{}
	// Archived holds group ids this client has archived.
	Archived map[string]struct{}
	// Rooms holds group ids this connection has joined. It is the audience
	// substrate for group-scoped fan-out.
	Rooms map[string]struct{}
}

func NewSession(connID, username, avatar string, status Status) *Session {
	if !ValidStatus(status) || status == "" {
		status = StatusOnline
	}
	return &Session{
		ID:       connID,
		Username: username,
		Avatar:   avatar,
		Status:   status,
		LastSeen: time.Now().UTC(),
		Blocked:  make(map[string]struct{}),
		Archived: make(map[string]struct{}),
		Rooms:    make(map[string]struct{}),
	}
}

// SessionResponse is the wire form of a session. Blocked, Archived and Rooms
// stay server-side.
type SessionResponse struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar"`
	Status        Status    `json:"status"`
	StatusMessage string    `json:"statusMessage,omitempty"`
	LastSeen      time.Time `json:"lastSeen"`
}

func (s *Session) ToResponse() SessionResponse {
	return SessionResponse{
		ID:            s.ID,
		Username:      s.Username,
		Avatar:        s.Avatar,
		Status:        s.Status,
		StatusMessage: s.StatusMessage,
		LastSeen:      s.LastSeen,
	}
}

func (s *Session) InRoom(groupID string) bool {
	_, ok := s.Rooms[groupID]
	return ok
}
