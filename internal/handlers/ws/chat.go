package ws

import (
	"time"

	"github.com/google/uuid"

	"github.com/noteduco342/wavechat-backend/internal/models"
	"github.com/noteduco342/wavechat-backend/internal/validation"
)

// EventSendMessage carries a new message. When IsEdited is set it is an
// edit-via-resend that replaces the message stored under OriginalMessageID.
type EventSendMessage struct {
	GroupID           string             `json:"groupId"`
	Message           string             `json:"message"`
	Attachment        *models.Attachment `json:"attachment"`
	IsEdited          bool               `json:"isEdited"`
	OriginalMessageID string             `json:"originalMessageId"`
}

func (ev *EventSendMessage) EventType() string { return "send_message" }

func (ev *EventSendMessage) Process(ctx *Context) error {
	if _, ok := ctx.Groups.Get(ev.GroupID); !ok {
		return nil
	}

	// An outgoing message implicitly ends the sender's typing signal.
	if ctx.Presence.ClearTyping(ev.GroupID, ctx.ConnID) {
		ctx.sendToRoomPeers(ev.GroupID, "typing_stop", TypingNotice{
			UserID:  ctx.ConnID,
			GroupID: ev.GroupID,
		})
	}

	id := ev.OriginalMessageID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	msg := &models.Message{
		ID:         id,
		User:       ctx.Session.ToResponse(),
		Body:       validation.TrimAndLimit(ev.Message, validation.MaxMessageLength()),
		Attachment: ev.Attachment,
		Timestamp:  now,
		GroupID:    ev.GroupID,
		IsEdited:   ev.IsEdited,
		// The sender has read its own message.
		ReadBy: []string{ctx.ConnID},
	}
	if ev.IsEdited {
		msg.EditedAt = &now
	}

	if ev.IsEdited {
		if !ctx.Groups.ReplaceMessage(ev.GroupID, ev.OriginalMessageID, msg) {
			return nil
		}
	} else {
		if err := ctx.Groups.AppendMessage(ev.GroupID, msg); err != nil {
			// Content-less or raced-away group: absorbed, nothing observable.
			return nil
		}
		ctx.Accounts.RecordMessageSent(ctx.Session.Username)
	}

	ctx.sendToRoom(ev.GroupID, "new_message", msg)
	return nil
}

type EventEditMessage struct {
	MessageID  string `json:"messageId"`
	NewMessage string `json:"newMessage"`
	GroupID    string `json:"groupId"`
}

func (ev *EventEditMessage) EventType() string { return "edit_message" }

type messageEditedPayload struct {
	MessageID  string     `json:"messageId"`
	NewMessage string     `json:"newMessage"`
	EditedAt   *time.Time `json:"editedAt"`
}

func (ev *EventEditMessage) Process(ctx *Context) error {
	text := validation.TrimAndLimit(ev.NewMessage, validation.MaxMessageLength())
	msg, err := ctx.Groups.EditMessageText(ev.GroupID, ev.MessageID, text, ctx.ConnID)
	if err != nil {
		// Unknown group/message or a non-author connection: silent no-op.
		return nil
	}
	ctx.sendToRoom(ev.GroupID, "message_edited", messageEditedPayload{
		MessageID:  ev.MessageID,
		NewMessage: msg.Body,
		EditedAt:   msg.EditedAt,
	})
	return nil
}

type EventDeleteMessage struct {
	MessageID string `json:"messageId"`
	GroupID   string `json:"groupId"`
}

func (ev *EventDeleteMessage) EventType() string { return "delete_message" }

func (ev *EventDeleteMessage) Process(ctx *Context) error {
	if !ctx.Groups.DeleteMessage(ev.GroupID, ev.MessageID, ctx.ConnID) {
		return nil
	}
	ctx.sendToRoom(ev.GroupID, "message_deleted", map[string]string{"messageId": ev.MessageID})
	return nil
}

type EventTogglePinMessage struct {
	MessageID string `json:"messageId"`
	GroupID   string `json:"groupId"`
}

func (ev *EventTogglePinMessage) EventType() string { return "toggle_pin_message" }

type pinToggledPayload struct {
	MessageID string `json:"messageId"`
	IsPinned  bool   `json:"isPinned"`
}

func (ev *EventTogglePinMessage) Process(ctx *Context) error {
	pinned, err := ctx.Groups.TogglePin(ev.GroupID, ev.MessageID)
	if err != nil {
		return nil
	}
	ctx.sendToRoom(ev.GroupID, "message_pin_toggled", pinToggledPayload{
		MessageID: ev.MessageID,
		IsPinned:  pinned,
	})
	return nil
}

type EventMarkMessageRead struct {
	MessageID string `json:"messageId"`
	GroupID   string `json:"groupId"`
}

func (ev *EventMarkMessageRead) EventType() string { return "mark_message_read" }

type messageReadPayload struct {
	MessageID string                 `json:"messageId"`
	UserID    string                 `json:"userId"`
	User      models.SessionResponse `json:"user"`
}

func (ev *EventMarkMessageRead) Process(ctx *Context) error {
	// Idempotent: a repeat read skips the flush but still notifies, so the
	// author sees the receipt even if the first notice was missed.
	if _, err := ctx.Groups.MarkRead(ev.GroupID, ev.MessageID, ctx.ConnID); err != nil {
		return nil
	}
	ctx.sendToRoom(ev.GroupID, "message_read", messageReadPayload{
		MessageID: ev.MessageID,
		UserID:    ctx.ConnID,
		User:      ctx.Session.ToResponse(),
	})
	return nil
}

type EventSearchMessages struct {
	Query   string `json:"query"`
	GroupID string `json:"groupId"`
}

func (ev *EventSearchMessages) EventType() string { return "search_messages" }

type searchResultsPayload struct {
	Results []*models.Message `json:"results"`
	Query   string            `json:"query"`
}

func (ev *EventSearchMessages) Process(ctx *Context) error {
	results, err := ctx.Groups.Search(ev.GroupID, ev.Query)
	if err != nil {
		return nil
	}
	ctx.sendToSender("search_results", searchResultsPayload{Results: results, Query: ev.Query})
	return nil
}
