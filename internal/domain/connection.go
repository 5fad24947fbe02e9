package domain

import (
	"time"
)

// Connection holds a user's link to one external source. At most one
// connection exists per (UserID, Source). Tokens reach the core already
// decrypted; encryption at rest is handled outside it.
type Connection struct {
	ID           string            `json:"id"`
	UserID       string            `json:"userId"`
	Source       Source            `json:"source"`
	AccessToken  string            `json:"-"`
	RefreshToken string            `json:"-"`
	ExpiresAt    *time.Time        `json:"expiresAt,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastSyncAt   *time.Time        `json:"lastSyncAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Meta returns a connection metadata value, or "" when absent.
func (c *Connection) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}
