package ws

import (
	"log"
	"sync"
	"time"

	"github.com/noteduco342/wavechat-backend/internal/cache"
	"github.com/noteduco342/wavechat-backend/internal/models"
	"github.com/noteduco342/wavechat-backend/internal/presence"
	"github.com/noteduco342/wavechat-backend/internal/store"
)

// Engine is the event router. It owns no domain state of its own; it binds
// the stores, the presence table and the hub, and serializes every inbound
// event and disconnect through one mutation lock so fan-out always observes
// a consistent post-mutation snapshot.
type Engine struct {
	mu sync.Mutex

	hub      *Hub
	groups   *store.GroupStore
	accounts *store.AccountRegistry
	presence *presence.Table
	cache    *cache.PresenceCache

	issueUploadToken func(connID, username string) (string, error)
	debug            bool
}

type EngineConfig struct {
	Groups   *store.GroupStore
	Accounts *store.AccountRegistry
	Presence *presence.Table
	// Cache is the optional Redis presence mirror; nil disables it.
	Cache *cache.PresenceCache
	// IssueUploadToken mints the token handed out in auth_success. Optional.
	IssueUploadToken func(connID, username string) (string, error)
	// Debug logs dropped frames.
	Debug bool
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		hub:              NewHub(),
		groups:           cfg.Groups,
		accounts:         cfg.Accounts,
		presence:         cfg.Presence,
		cache:            cfg.Cache,
		issueUploadToken: cfg.IssueUploadToken,
		debug:            cfg.Debug,
	}
}

func (e *Engine) Hub() *Hub { return e.hub }

// HandleFrame decodes and processes one inbound frame from a connection.
// Frames that fail to decode get an error frame back; frames from
// connections with no session are dropped unless they are the
// authentication event itself.
func (e *Engine) HandleFrame(connID string, data []byte) {
	ev, err := Decode(data)
	if err != nil {
		log.Printf("Error decoding frame from connection %s: %v", connID, err)
		e.hub.SendTo(connID, "error", ErrorPayload{
			Error: "Invalid message format", Code: "invalid_message", Details: err.Error(),
		})
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.presence.Get(connID)
	if !ok && ev.EventType() != TypeUserJoin {
		if e.debug {
			log.Printf("Dropping %s from unauthenticated connection %s", ev.EventType(), connID)
		}
		return
	}

	ctx := e.newContext(connID, sess)
	if err := ev.Process(ctx); err != nil {
		log.Printf("Error processing %s from connection %s: %v", ev.EventType(), connID, err)
	}
}

// Disconnect runs the disconnect path for a connection through the same
// mutation lock as client events: stop-typing notices for every group the
// connection was typing in, a last-seen touch on the account, and a
// presence-offline broadcast. Connections that never authenticated tear
// down silently.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.presence.Get(connID)
	if !ok {
		return
	}

	now := time.Now().UTC()
	e.accounts.TouchLastSeen(sess.Username, now)
	sess.Status = models.StatusOffline
	sess.LastSeen = now

	for _, groupID := range e.presence.ClearAllTyping(connID) {
		peers := make([]string, 0)
		for _, id := range e.presence.RoomConns(groupID) {
			if id != connID {
				peers = append(peers, id)
			}
		}
		e.hub.SendToConns(peers, "typing_stop", TypingNotice{UserID: connID, GroupID: groupID})
	}

	e.hub.Broadcast("user_status_change", StatusChange{
		UserID: connID,
		Status: models.StatusOffline,
		User:   sess.ToResponse(),
	})

	if err := e.cache.SetOffline(connID); err != nil {
		log.Printf("Error clearing presence cache for connection %s: %v", connID, err)
	}
	e.presence.Remove(connID)
}

// RefreshPresence re-arms the cached presence TTL for a live connection;
// wired to the transport's pong handler.
func (e *Engine) RefreshPresence(connID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sess, ok := e.presence.Get(connID); ok {
		if err := e.cache.SetOnline(sess); err != nil {
			log.Printf("Error refreshing presence cache for connection %s: %v", connID, err)
		}
	}
}

// StartTypingSweeper enables the optional server-side typing timeout: stale
// typists are cleared and stop-typing notices emitted on their behalf. The
// returned func stops the sweeper. The default protocol is purely
// event-driven; this only runs when configured.
func (e *Engine) StartTypingSweeper(timeout time.Duration) func() {
	interval := timeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				e.sweepTyping(timeout)
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

func (e *Engine) sweepTyping(timeout time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for groupID, conns := range e.presence.ExpireTyping(timeout) {
		room := e.presence.RoomConns(groupID)
		for _, expired := range conns {
			peers := make([]string, 0, len(room))
			for _, id := range room {
				if id != expired {
					peers = append(peers, id)
				}
			}
			e.hub.SendToConns(peers, "typing_stop", TypingNotice{UserID: expired, GroupID: groupID})
		}
	}
}

// Shutdown performs the final flush of both durable collections.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.groups.Flush()
	e.accounts.Flush()
}

func (e *Engine) newContext(connID string, sess *models.Session) *Context {
	return &Context{
		ConnID:           connID,
		Session:          sess,
		Hub:              e.hub,
		Groups:           e.groups,
		Accounts:         e.accounts,
		Presence:         e.presence,
		Cache:            e.cache,
		IssueUploadToken: e.issueUploadToken,
	}
}
