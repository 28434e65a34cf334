package models

import "time"

// Account is the durable record for a registered username. It outlives any
// single connection; live sessions in the presence table point back at it
// by username. The JSON tags define the on-disk layout of users.json.
type Account struct {
	Username string `json:"username"`
	// Bcrypt hash of the credential supplied on first join. The field keeps
	// the original "password" key on disk for snapshot compatibility.
	PasswordHash  string     `json:"password"`
	Avatar        string     `json:"avatar"`
	JoinedAt      time.Time  `json:"joinedAt"`
	TotalMessages int        `json:"totalMessages"`
	LastSeen      *time.Time `json:"lastSeen,omitempty"`
}
