package ws

import (
	"log"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

type EventUpdateStatus struct {
	Status        models.Status `json:"status"`
	StatusMessage string        `json:"statusMessage"`
}

func (ev *EventUpdateStatus) EventType() string { return "update_status" }

func (ev *EventUpdateStatus) Process(ctx *Context) error {
	if !models.ValidStatus(ev.Status) {
		return nil
	}
	sess, ok := ctx.Presence.UpdateStatus(ctx.ConnID, ev.Status, ev.StatusMessage)
	if !ok {
		return nil
	}
	if err := ctx.Cache.SetOnline(sess); err != nil {
		log.Printf("Error refreshing presence cache for connection %s: %v", ctx.ConnID, err)
	}
	ctx.broadcast("user_status_change", StatusChange{
		UserID:        ctx.ConnID,
		Status:        ev.Status,
		StatusMessage: ev.StatusMessage,
		User:          sess.ToResponse(),
	})
	return nil
}

type EventBlockUser struct {
	TargetUserID string `json:"targetUserId"`
}

func (ev *EventBlockUser) EventType() string { return "block_user" }

func (ev *EventBlockUser) Process(ctx *Context) error {
	// Block state is never broadcast: it is a local filter the blocking
	// client applies, so only the sender hears back.
	if _, ok := ctx.Presence.Get(ev.TargetUserID); !ok {
		return nil
	}
	ctx.Session.Blocked[ev.TargetUserID] = struct{}{}
	ctx.sendToSender("user_blocked", map[string]string{"userId": ev.TargetUserID})
	return nil
}

type EventUnblockUser struct {
	TargetUserID string `json:"targetUserId"`
}

func (ev *EventUnblockUser) EventType() string { return "unblock_user" }

func (ev *EventUnblockUser) Process(ctx *Context) error {
	delete(ctx.Session.Blocked, ev.TargetUserID)
	ctx.sendToSender("user_unblocked", map[string]string{"userId": ev.TargetUserID})
	return nil
}

type EventArchiveChat struct {
	GroupID string `json:"groupId"`
}

func (ev *EventArchiveChat) EventType() string { return "archive_chat" }

func (ev *EventArchiveChat) Process(ctx *Context) error {
	ctx.Session.Archived[ev.GroupID] = struct{}{}
	ctx.sendToSender("chat_archived", map[string]string{"groupId": ev.GroupID})
	return nil
}

type EventUnarchiveChat struct {
	GroupID string `json:"groupId"`
}

func (ev *EventUnarchiveChat) EventType() string { return "unarchive_chat" }

func (ev *EventUnarchiveChat) Process(ctx *Context) error {
	delete(ctx.Session.Archived, ev.GroupID)
	ctx.sendToSender("chat_unarchived", map[string]string{"groupId": ev.GroupID})
	return nil
}
