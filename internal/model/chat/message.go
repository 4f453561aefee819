package chat

import "time"

// Sender identifies who produced a conversation turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Category hints how the dashboard should present a bot message.
type Category string

const (
	CategorySolution Category = "solution"
	CategoryInfo     Category = "info"
	CategoryQuestion Category = "question"
	CategoryWarning  Category = "warning"
	CategorySuccess  Category = "success"
)

// Message is a single immutable conversation turn.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId,omitempty"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Category  Category  `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FromBot reports whether the message was produced by the assistant.
func (m Message) FromBot() bool {
	return m.Sender == SenderBot
}
