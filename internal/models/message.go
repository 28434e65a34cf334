package models

import (
	"strings"
	"time"
)

// Attachment is an opaque blob-store reference embedded in a message. The
// core never inspects payload bytes.
type Attachment struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Message is owned by exactly one group. User is a snapshot of the authoring
// session at send time; User.ID (the connection id) is what edit/delete
// authorization checks against.
type Message struct {
	ID         string          `json:"id"`
	User       SessionResponse `json:"user"`
	Body       string          `json:"message"`
	Attachment *Attachment     `json:"attachment"`
	Timestamp  time.Time       `json:"timestamp"`
	GroupID    string          `json:"groupId"`
	IsEdited   bool            `json:"isEdited"`
	EditedAt   *time.Time      `json:"editedAt"`
	IsPinned   bool            `json:"isPinned"`
	// ReadBy is the ordered set of connection ids that have acknowledged
	// the message. It only grows until the message is deleted.
	ReadBy []string `json:"readBy"`
}

// HasContent reports whether the message satisfies the body-or-attachment
// invariant: non-empty body text or a non-nil attachment.
func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Body) != "" || m.Attachment != nil
}

// ReadByConn reports whether connID already acknowledged the message.
func (m *Message) ReadByConn(connID string) bool {
	for _, id := range m.ReadBy {
		if id == connID {
			return true
		}
	}
	return false
}

// MarkReadBy adds connID to the read-by set. It is idempotent and reports
// whether the set actually grew.
func (m *Message) MarkReadBy(connID string) bool {
	if m.ReadByConn(connID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, connID)
	return true
}
