package models

import "time"

// Group is a named conversation with persistent membership and message
// history. Members is a username set with no duplicates; Messages keeps
// insertion order. The JSON tags define the on-disk layout of groups.json.
type Group struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Messages  []*Message `json:"messages"`
	Members   []string   `json:"members"`
	Creator   string     `json:"creator,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (g *Group) HasMember(username string) bool {
	for _, m := range g.Members {
		if m == username {
			return true
		}
	}
	return false
}

// FindMessage returns the message with the given id and its index, or
// (nil, -1) when absent.
func (g *Group) FindMessage(messageID string) (*Message, int) {
	for i, m := range g.Messages {
		if m.ID == messageID {
			return m, i
		}
	}
	return nil, -1
}
