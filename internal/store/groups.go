package store

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrMessageNotFound = errors.New("message not found")
	// ErrUnauthorized: the acting connection did not author the message.
	ErrUnauthorized = errors.New("not the message author")
	// ErrNoContent: the message violates the body-or-attachment invariant.
	ErrNoContent = errors.New("message has no body or attachment")
)

const (
	DefaultGroupID   = "general"
	defaultGroupName = "General"
)

// GroupStore holds the durable conversational state: groups, membership,
// ordered message history and per-message read tracking. Durable mutations
// are write-through via the flusher; flush failures are logged, never rolled
// back.
type GroupStore struct {
	mu      sync.RWMutex
	groups  map[string]*models.Group
	order   []string
	flusher GroupFlusher
}

func NewGroupStore(groups map[string]*models.Group, flusher GroupFlusher) *GroupStore {
	if groups == nil {
		groups = make(map[string]*models.Group)
	}
	s := &GroupStore{groups: groups, flusher: flusher}

	// Rebuild a stable listing order from the snapshot: the default group
	// first, the rest by creation time then name.
	rest := make([]string, 0, len(groups))
	for id := range groups {
		if id != DefaultGroupID {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		a, b := groups[rest[i]], groups[rest[j]]
		switch {
		case a.CreatedAt == nil:
			return b.CreatedAt != nil || a.Name < b.Name
		case b.CreatedAt == nil:
			return false
		case !a.CreatedAt.Equal(*b.CreatedAt):
			return a.CreatedAt.Before(*b.CreatedAt)
		default:
			return a.Name < b.Name
		}
	})
	if _, ok := groups[DefaultGroupID]; ok {
		s.order = append(s.order, DefaultGroupID)
	}
	s.order = append(s.order, rest...)
	return s
}

// EnsureDefaultGroup bootstraps the well-known "general" group. Idempotent.
func (s *GroupStore) EnsureDefaultGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[DefaultGroupID]; ok {
		return
	}
	s.groups[DefaultGroupID] = &models.Group{
		ID:       DefaultGroupID,
		Name:     defaultGroupName,
		Messages: []*models.Message{},
		Members:  []string{},
	}
	s.order = append([]string{DefaultGroupID}, s.order...)
	s.flushLocked()
}

func (s *GroupStore) Get(groupID string) (*models.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	return g, ok
}

// List returns all groups in listing order: default group first, then
// creation order.
func (s *GroupStore) List() []*models.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Group, 0, len(s.order))
	for _, id := range s.order {
		if g, ok := s.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// CreateGroup mints a fresh group with the creator as its only member.
func (s *GroupStore) CreateGroup(name, creatorUsername string) *models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	g := &models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		Messages:  []*models.Message{},
		Members:   []string{creatorUsername},
		Creator:   creatorUsername,
		CreatedAt: &now,
	}
	s.groups[g.ID] = g
	s.order = append(s.order, g.ID)
	s.flushLocked()
	return g
}

// JoinGroup adds username to the member set. Idempotent; flushes only when
// membership actually changed, so repeated joins trigger persistence at most
// once.
func (s *GroupStore) JoinGroup(groupID, username string) (*models.Group, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, false, ErrGroupNotFound
	}
	if g.HasMember(username) {
		return g, false, nil
	}
	g.Members = append(g.Members, username)
	s.flushLocked()
	return g, true, nil
}

// LeaveGroup removes username from the member set. Removal matches on the
// resolved username, never on a connection id.
func (s *GroupStore) LeaveGroup(groupID, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, ErrGroupNotFound
	}
	for i, m := range g.Members {
		if m == username {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			s.flushLocked()
			return true, nil
		}
	}
	return false, nil
}

// AppendMessage appends to the end of the group's ordered history. Messages
// with neither body nor attachment are rejected.
func (s *GroupStore) AppendMessage(groupID string, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	if !msg.HasContent() {
		return ErrNoContent
	}
	g.Messages = append(g.Messages, msg)
	s.flushLocked()
	return nil
}

// ReplaceMessage swaps the message with the given id for a new one, keeping
// its position. Used for edit-via-resend, where the client resends the edited
// message under the original identifier. The replacement is held to the same
// body-or-attachment invariant as AppendMessage. Reports whether the message
// was replaced.
func (s *GroupStore) ReplaceMessage(groupID, messageID string, msg *models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false
	}
	if !msg.HasContent() {
		return false
	}
	_, i := g.FindMessage(messageID)
	if i < 0 {
		return false
	}
	g.Messages[i] = msg
	s.flushLocked()
	return true
}

// EditMessageText rewrites the body of a message in place. Only the
// connection that originated the message may edit it; a reconnected author
// (new connection id) loses that right. Known limitation of conn-scoped
// authorship.
func (s *GroupStore) EditMessageText(groupID, messageID, newText, byConnID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	m, _ := g.FindMessage(messageID)
	if m == nil {
		return nil, ErrMessageNotFound
	}
	if m.User.ID != byConnID {
		return nil, ErrUnauthorized
	}
	now := time.Now().UTC()
	m.Body = newText
	m.IsEdited = true
	m.EditedAt = &now
	s.flushLocked()
	return m, nil
}

// DeleteMessage removes a message and its read tracking. Same
// author-connection authorization as EditMessageText. Reports whether a
// message was removed.
func (s *GroupStore) DeleteMessage(groupID, messageID, byConnID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false
	}
	m, i := g.FindMessage(messageID)
	if m == nil || m.User.ID != byConnID {
		return false
	}
	g.Messages = append(g.Messages[:i], g.Messages[i+1:]...)
	s.flushLocked()
	return true
}

// TogglePin flips the pinned flag. Any member may toggle; there is no
// authorship check.
func (s *GroupStore) TogglePin(groupID, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, ErrGroupNotFound
	}
	m, _ := g.FindMessage(messageID)
	if m == nil {
		return false, ErrMessageNotFound
	}
	m.IsPinned = !m.IsPinned
	s.flushLocked()
	return m.IsPinned, nil
}

// MarkRead adds connID to the message's read-by set. Idempotent; the set only
// grows. Reports whether it grew (duplicates skip the flush).
func (s *GroupStore) MarkRead(groupID, messageID, connID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return false, ErrGroupNotFound
	}
	m, _ := g.FindMessage(messageID)
	if m == nil {
		return false, ErrMessageNotFound
	}
	if !m.MarkReadBy(connID) {
		return false, nil
	}
	s.flushLocked()
	return true, nil
}

// Search returns messages whose body or author username contains the query,
// case-insensitively, in original order. No ranking.
func (s *GroupStore) Search(groupID, query string) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	q := strings.ToLower(query)
	results := make([]*models.Message, 0)
	for _, m := range g.Messages {
		if strings.Contains(strings.ToLower(m.Body), q) ||
			strings.Contains(strings.ToLower(m.User.Username), q) {
			results = append(results, m)
		}
	}
	return results, nil
}

// Flush forces a write of the collection; used for the final flush at
// shutdown.
func (s *GroupStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *GroupStore) flushLocked() {
	if s.flusher == nil {
		return
	}
	if err := s.flusher.FlushGroups(s.groups); err != nil {
		log.Printf("Error flushing groups: %v", err)
	}
}
