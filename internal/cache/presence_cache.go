package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/noteduco342/wavechat-backend/internal/models"
)

const (
	// OnlineTTL matches the transport pong timeout, so entries for dead
	// connections age out on their own.
	OnlineTTL = 90 * time.Second

	onlineConnsKey = "online:conns"
)

// PresenceCache mirrors the online set into Redis so ops tooling can observe
// who is connected without touching the process. The in-memory presence
// table stays authoritative; the mirror is best-effort and every method
// no-ops when the cache is disabled.
type PresenceCache struct {
	redis *RedisCache
}

// NewPresenceCache creates a new presence cache
func NewPresenceCache(redis *RedisCache) *PresenceCache {
	return &PresenceCache{redis: redis}
}

func connKey(connID string) string {
	return fmt.Sprintf("online:conn:%s", connID)
}

// SetOnline records (or refreshes) a session summary with TTL and adds the
// connection to the online set.
func (pc *PresenceCache) SetOnline(sess *models.Session) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetAdd(onlineConnsKey, sess.ID); err != nil {
		return err
	}
	data, err := msgpack.Marshal(sess.ToResponse())
	if err != nil {
		return err
	}
	return pc.redis.Set(connKey(sess.ID), data, OnlineTTL)
}

// SetOffline removes a connection from the online set.
func (pc *PresenceCache) SetOffline(connID string) error {
	if pc == nil || pc.redis == nil {
		return nil
	}
	if err := pc.redis.SetRemove(onlineConnsKey, connID); err != nil {
		return err
	}
	return pc.redis.Delete(connKey(connID))
}

// GetSummary returns the cached session summary for a connection.
func (pc *PresenceCache) GetSummary(connID string) (*models.SessionResponse, bool) {
	if pc == nil || pc.redis == nil {
		return nil, false
	}
	data, err := pc.redis.Get(connKey(connID))
	if err != nil || data == nil {
		return nil, false
	}
	var summary models.SessionResponse
	if err := msgpack.Unmarshal(data, &summary); err != nil {
		return nil, false
	}
	return &summary, true
}

// OnlineConns returns all connection ids in the mirror.
func (pc *PresenceCache) OnlineConns() ([]string, error) {
	if pc == nil || pc.redis == nil {
		return nil, nil
	}
	return pc.redis.SetMembers(onlineConnsKey)
}

// OnlineCount returns the size of the mirrored online set.
func (pc *PresenceCache) OnlineCount() (int64, error) {
	if pc == nil || pc.redis == nil {
		return 0, nil
	}
	return pc.redis.SetCard(onlineConnsKey)
}
