package chat

import "time"

// Session captures one ephemeral dashboard conversation.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
