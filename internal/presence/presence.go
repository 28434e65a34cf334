// Package presence tracks everything connection-scoped: live sessions, the
// rooms each connection has joined, and per-group typing sets. All of it is
// transient and rebuilt empty on every process start.
package presence

import (
	"sync"
	"time"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

type Table struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	order    []string
	// typing maps group id → connection id → time the typing signal arrived.
	// The timestamp only matters when the optional expiry sweeper runs.
	typing map[string]map[string]time.Time
}

func NewTable() *Table {
	return &Table{
		sessions: make(map[string]*models.Session),
		typing:   make(map[string]map[string]time.Time),
	}
}

func (t *Table) Register(sess *models.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[sess.ID]; !ok {
		t.order = append(t.order, sess.ID)
	}
	t.sessions[sess.ID] = sess
}

// Remove destroys the session for connID and returns it, or (nil, false)
// when the connection never authenticated.
func (t *Table) Remove(connID string) (*models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[connID]
	if !ok {
		return nil, false
	}
	delete(t.sessions, connID)
	for i, id := range t.order {
		if id == connID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return sess, true
}

func (t *Table) Get(connID string) (*models.Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sess, ok := t.sessions[connID]
	return sess, ok
}

// OnlineSnapshot returns the live sessions in connection insertion order;
// used to populate newly joined clients.
func (t *Table) OnlineSnapshot() []*models.Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*models.Session, 0, len(t.order))
	for _, id := range t.order {
		if sess, ok := t.sessions[id]; ok {
			out = append(out, sess)
		}
	}
	return out
}

func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

func (t *Table) JoinRoom(connID, groupID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sess, ok := t.sessions[connID]; ok {
		sess.Rooms[groupID] = struct{}{}
	}
}

func (t *Table) LeaveRoom(connID, groupID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if sess, ok := t.sessions[connID]; ok {
		delete(sess.Rooms, groupID)
	}
}

// RoomConns returns the connection ids currently joined to a group's room,
// in connection insertion order.
func (t *Table) RoomConns(groupID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0)
	for _, id := range t.order {
		if sess, ok := t.sessions[id]; ok && sess.InRoom(groupID) {
			out = append(out, id)
		}
	}
	return out
}

// SetTyping marks connID as typing in a group. Idempotent; reports whether
// the set grew.
func (t *Table) SetTyping(groupID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.typing[groupID]
	if !ok {
		set = make(map[string]time.Time)
		t.typing[groupID] = set
	}
	_, already := set[connID]
	set[connID] = time.Now()
	return !already
}

// ClearTyping removes connID from a group's typing set. Clearing the last
// typist drops the group entry entirely. Reports whether an entry was
// removed.
func (t *Table) ClearTyping(groupID, connID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clearTypingLocked(groupID, connID)
}

func (t *Table) clearTypingLocked(groupID, connID string) bool {
	set, ok := t.typing[groupID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) == 0 {
		delete(t.typing, groupID)
	}
	return true
}

// ClearAllTyping removes connID from every typing set and returns the group
// ids affected; called on disconnect so stop-typing notices can go out.
func (t *Table) ClearAllTyping(connID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	affected := make([]string, 0)
	for groupID := range t.typing {
		if t.clearTypingLocked(groupID, connID) {
			affected = append(affected, groupID)
		}
	}
	return affected
}

// TypingConns returns the connections currently typing in a group.
func (t *Table) TypingConns(groupID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0)
	for connID := range t.typing[groupID] {
		out = append(out, connID)
	}
	return out
}

// ExpireTyping drops typing entries older than maxAge and returns the
// expired connections per group. The protocol is client-driven
// (explicit stop events); this backstop only runs when the server-side
// timeout is configured.
func (t *Table) ExpireTyping(maxAge time.Duration) map[string][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	expired := make(map[string][]string)
	for groupID, set := range t.typing {
		for connID, at := range set {
			if at.Before(cutoff) {
				delete(set, connID)
				expired[groupID] = append(expired[groupID], connID)
			}
		}
		if len(set) == 0 {
			delete(t.typing, groupID)
		}
	}
	return expired
}

// UpdateStatus mutates the session in place. Unknown connections are a
// silent no-op; the returned bool tells the caller whether anything
// user-visible happened.
func (t *Table) UpdateStatus(connID string, status models.Status, statusMessage string) (*models.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[connID]
	if !ok {
		return nil, false
	}
	sess.Status = status
	sess.StatusMessage = statusMessage
	sess.LastSeen = time.Now().UTC()
	return sess, true
}
