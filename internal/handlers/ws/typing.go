package ws

import "github.com/noteduco342/wavechat-backend/internal/models"

// TypingNotice is the outbound shape for both typing_start and typing_stop;
// start notices also carry the session snapshot.
type TypingNotice struct {
	UserID  string                  `json:"userId"`
	User    *models.SessionResponse `json:"user,omitempty"`
	GroupID string                  `json:"groupId"`
}

type EventTypingStart struct {
	GroupID string `json:"groupId"`
}

func (ev *EventTypingStart) EventType() string { return "typing_start" }

func (ev *EventTypingStart) Process(ctx *Context) error {
	// Idempotent on the set; a repeated start may re-notify peers, which is
	// harmless.
	ctx.Presence.SetTyping(ev.GroupID, ctx.ConnID)
	user := ctx.Session.ToResponse()
	ctx.sendToRoomPeers(ev.GroupID, "typing_start", TypingNotice{
		UserID:  ctx.ConnID,
		User:    &user,
		GroupID: ev.GroupID,
	})
	return nil
}

type EventTypingStop struct {
	GroupID string `json:"groupId"`
}

func (ev *EventTypingStop) EventType() string { return "typing_stop" }

func (ev *EventTypingStop) Process(ctx *Context) error {
	ctx.Presence.ClearTyping(ev.GroupID, ctx.ConnID)
	ctx.sendToRoomPeers(ev.GroupID, "typing_stop", TypingNotice{
		UserID:  ctx.ConnID,
		GroupID: ev.GroupID,
	})
	return nil
}
