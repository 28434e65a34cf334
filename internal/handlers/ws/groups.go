package ws

import (
	"github.com/noteduco342/wavechat-backend/internal/models"
	"github.com/noteduco342/wavechat-backend/internal/validation"
)

type EventCreateGroup struct {
	GroupName string `json:"groupName"`
}

func (ev *EventCreateGroup) EventType() string { return "create_group" }

type groupCreatedPayload struct {
	GroupID string        `json:"groupId"`
	Group   *models.Group `json:"group"`
}

func (ev *EventCreateGroup) Process(ctx *Context) error {
	name := validation.TrimAndLimit(ev.GroupName, validation.MaxGroupNameLength)
	if name == "" {
		return nil
	}

	group := ctx.Groups.CreateGroup(name, ctx.Session.Username)
	ctx.Presence.JoinRoom(ctx.ConnID, group.ID)

	// Every client refreshes its group list; only the creator gets the
	// confirmation.
	ctx.broadcast("groups_list", ctx.Groups.List())
	ctx.sendToSender("group_created", groupCreatedPayload{GroupID: group.ID, Group: group})
	return nil
}

type EventJoinGroup struct {
	GroupID string `json:"groupId"`
}

func (ev *EventJoinGroup) EventType() string { return "join_group" }

func (ev *EventJoinGroup) Process(ctx *Context) error {
	group, _, err := ctx.Groups.JoinGroup(ev.GroupID, ctx.Session.Username)
	if err != nil {
		return nil
	}
	ctx.Presence.JoinRoom(ctx.ConnID, ev.GroupID)

	ctx.sendToSender("messages_history", historyPayload{
		GroupID:  ev.GroupID,
		Messages: group.Messages,
	})
	ctx.sendToRoomPeers(ev.GroupID, "user_joined", memberNotice{
		User:    ctx.Session.ToResponse(),
		GroupID: ev.GroupID,
	})
	return nil
}

type EventLeaveGroup struct {
	GroupID string `json:"groupId"`
}

func (ev *EventLeaveGroup) EventType() string { return "leave_group" }

func (ev *EventLeaveGroup) Process(ctx *Context) error {
	if _, ok := ctx.Groups.Get(ev.GroupID); !ok {
		return nil
	}
	ctx.Presence.LeaveRoom(ctx.ConnID, ev.GroupID)
	if _, err := ctx.Groups.LeaveGroup(ev.GroupID, ctx.Session.Username); err != nil {
		return nil
	}

	// The sender already left the room, so the room fan-out is peers only.
	ctx.sendToRoom(ev.GroupID, "user_left", memberNotice{
		User:    ctx.Session.ToResponse(),
		GroupID: ev.GroupID,
	})
	return nil
}
