package ws

import (
	"log"

	"github.com/noteduco342/wavechat-backend/internal/models"
	"github.com/noteduco342/wavechat-backend/internal/store"
	"github.com/noteduco342/wavechat-backend/internal/validation"
)

const TypeUserJoin = "user_join"

// EventUserJoin authenticates a connection. Unknown usernames register on
// the spot; known usernames must present the matching credential. This is
// the only event accepted from a connection without a session.
type EventUserJoin struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Avatar   string        `json:"avatar"`
	Status   models.Status `json:"status"`
}

func (ev *EventUserJoin) EventType() string { return TypeUserJoin }

type authSuccessPayload struct {
	Message     string `json:"message"`
	UploadToken string `json:"uploadToken,omitempty"`
}

type authErrorPayload struct {
	Message string `json:"message"`
}

type historyPayload struct {
	GroupID  string            `json:"groupId"`
	Messages []*models.Message `json:"messages"`
}

type memberNotice struct {
	User    models.SessionResponse `json:"user"`
	GroupID string                 `json:"groupId"`
}

// StatusChange is the presence broadcast every connection receives when a
// session comes online, goes offline, or changes status.
type StatusChange struct {
	UserID        string                 `json:"userId"`
	Status        models.Status          `json:"status"`
	StatusMessage string                 `json:"statusMessage,omitempty"`
	User          models.SessionResponse `json:"user"`
}

func (ev *EventUserJoin) Process(ctx *Context) error {
	username := validation.NormalizeUsername(ev.Username)
	if !validation.ValidateUsername(username) {
		ctx.sendToSender("auth_error", authErrorPayload{Message: "Username is required"})
		return nil
	}

	acct, err := ctx.Accounts.Authenticate(username, ev.Password, store.ProfileDefaults{Avatar: ev.Avatar})
	if err == store.ErrInvalidCredential {
		ctx.sendToSender("auth_error", authErrorPayload{Message: "Invalid password"})
		return nil
	}
	if err != nil {
		return err
	}

	sess := models.NewSession(ctx.ConnID, username, acct.Avatar, ev.Status)
	ctx.Presence.Register(sess)
	ctx.Presence.JoinRoom(ctx.ConnID, store.DefaultGroupID)
	if _, _, err := ctx.Groups.JoinGroup(store.DefaultGroupID, username); err != nil {
		return err
	}
	if err := ctx.Cache.SetOnline(sess); err != nil {
		log.Printf("Error caching presence for connection %s: %v", ctx.ConnID, err)
	}

	general, _ := ctx.Groups.Get(store.DefaultGroupID)

	var uploadToken string
	if ctx.IssueUploadToken != nil {
		if uploadToken, err = ctx.IssueUploadToken(ctx.ConnID, username); err != nil {
			log.Printf("Error issuing upload token for %s: %v", username, err)
			uploadToken = ""
		}
	}

	online := make([]models.SessionResponse, 0)
	for _, s := range ctx.Presence.OnlineSnapshot() {
		online = append(online, s.ToResponse())
	}

	ctx.sendToSender("groups_list", ctx.Groups.List())
	ctx.sendToSender("messages_history", historyPayload{
		GroupID:  store.DefaultGroupID,
		Messages: general.Messages,
	})
	ctx.sendToSender("online_users", online)
	ctx.sendToSender("auth_success", authSuccessPayload{
		Message:     "Successfully logged in!",
		UploadToken: uploadToken,
	})

	ctx.sendToRoomPeers(store.DefaultGroupID, "user_joined", memberNotice{
		User:    sess.ToResponse(),
		GroupID: store.DefaultGroupID,
	})
	ctx.broadcast("user_status_change", StatusChange{
		UserID: ctx.ConnID,
		Status: sess.Status,
		User:   sess.ToResponse(),
	})
	return nil
}
