// internal/model/message.go
package model

import (
	"time"
)

// Message is a stored chat message. ID and CreatedAt are always assigned by the store.
type Message struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewMessage holds the only fields a caller may write.
type NewMessage struct {
	UserID  string `db:"user_id" json:"user_id"`
	Content string `db:"content" json:"content"`
}
