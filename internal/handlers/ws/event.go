package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/noteduco342/wavechat-backend/internal/cache"
	"github.com/noteduco342/wavechat-backend/internal/models"
	"github.com/noteduco342/wavechat-backend/internal/presence"
	"github.com/noteduco342/wavechat-backend/internal/store"
)

// Context provides everything an event needs to process itself: the acting
// connection, its resolved session (nil only while unauthenticated, which
// the engine's auth gate restricts to user_join), the stores and the hub.
type Context struct {
	ConnID  string
	Session *models.Session

	Hub      *Hub
	Groups   *store.GroupStore
	Accounts *store.AccountRegistry
	Presence *presence.Table
	// Cache is the optional Redis presence mirror; nil-safe.
	Cache *cache.PresenceCache

	// IssueUploadToken mints the short-lived token auth_success hands to the
	// client for the HTTP upload endpoint. Optional.
	IssueUploadToken func(connID, username string) (string, error)
}

// Event is an inbound client event: a tagged variant dispatched by wire
// type. Process runs the full validate → mutate → persist → fan out cycle
// under the engine's mutation lock.
type Event interface {
	EventType() string
	Process(ctx *Context) error
}

// Envelope is the wire wrapper both directions: {"type": ..., "payload": ...}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the body of an "error" frame sent when decoding or
// processing fails at the protocol level. Domain failures stay silent.
type ErrorPayload struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func Decode(data []byte) (Event, error) {
	var wrapper Envelope
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	ev, err := newEvent(wrapper.Type)
	if err != nil {
		return nil, err
	}
	if len(wrapper.Payload) > 0 {
		if err := json.Unmarshal(wrapper.Payload, ev); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

func Encode(eventType string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: eventType, Payload: body})
}

func newEvent(eventType string) (Event, error) {
	typ, ok := typeRegistry[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	return reflect.New(typ).Interface().(Event), nil
}

// roomPeers returns the live connections joined to a group's room, minus the
// acting connection.
func (ctx *Context) roomPeers(groupID string) []string {
	conns := ctx.Presence.RoomConns(groupID)
	peers := conns[:0]
	for _, id := range conns {
		if id != ctx.ConnID {
			peers = append(peers, id)
		}
	}
	return peers
}

func (ctx *Context) sendToSender(eventType string, payload interface{}) {
	ctx.Hub.SendTo(ctx.ConnID, eventType, payload)
}

// sendToRoom fans out to every connection in the group's room, the sender
// included.
func (ctx *Context) sendToRoom(groupID, eventType string, payload interface{}) {
	ctx.Hub.SendToConns(ctx.Presence.RoomConns(groupID), eventType, payload)
}

// sendToRoomPeers fans out to the group's room excluding the sender.
func (ctx *Context) sendToRoomPeers(groupID, eventType string, payload interface{}) {
	ctx.Hub.SendToConns(ctx.roomPeers(groupID), eventType, payload)
}

func (ctx *Context) broadcast(eventType string, payload interface{}) {
	ctx.Hub.Broadcast(eventType, payload)
}
