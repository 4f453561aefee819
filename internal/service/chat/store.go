package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
)

// Greeting opens every conversation and is restored on reset.
const Greeting = "Hello! I'm your AI security assistant. I can help you understand and resolve security threats. What would you like to know?"

const subscriberBuffer = 32

// Store is the append-only history of a single conversation.
type Store struct {
	mu          sync.RWMutex
	sessionID   string
	now         func() time.Time
	messages    []chat.Message
	subscribers map[int]chan chat.Message
	nextSub     int
}

// NewStore returns a Store seeded with the greeting.
func NewStore(sessionID string) *Store {
	s := &Store{
		sessionID:   sessionID,
		now:         func() time.Time { return time.Now().UTC() },
		subscribers: make(map[int]chan chat.Message),
	}
	s.messages = []chat.Message{s.greeting()}
	return s
}

// SessionID returns the owning session identifier.
func (s *Store) SessionID() string {
	return s.sessionID
}

// NewMessage builds a message stamped with a fresh ID and the current time.
func (s *Store) NewMessage(sender chat.Sender, content string, category chat.Category) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		SessionID: s.sessionID,
		Sender:    sender,
		Content:   content,
		Category:  category,
		Timestamp: s.now(),
	}
}

// Append adds message to the end of the history and fans it out to
// subscribers.
func (s *Store) Append(message chat.Message) {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now()
	}
	if message.SessionID == "" {
		message.SessionID = s.sessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	s.publishLocked(message)
}

// Reset drops the history and re-seeds the greeting. The greeting is
// published to subscribers like any other message.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	greeting := s.greeting()
	s.messages = []chat.Message{greeting}
	s.publishLocked(greeting)
}

// Messages returns a copy of the history in insertion order.
func (s *Store) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len returns the number of messages in the history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Subscribe returns a channel receiving every message appended from now on,
// and a func that ends the subscription. Slow subscribers miss messages
// instead of blocking appends.
func (s *Store) Subscribe() (<-chan chat.Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribeLocked()
}

// Follow returns the current history together with a subscription starting
// right after it, so no message is both in the history and on the channel.
func (s *Store) Follow() ([]chat.Message, <-chan chat.Message, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]chat.Message, len(s.messages))
	copy(history, s.messages)
	ch, cancel := s.subscribeLocked()
	return history, ch, cancel
}

func (s *Store) subscribeLocked() (<-chan chat.Message, func()) {
	id := s.nextSub
	s.nextSub++
	ch := make(chan chat.Message, subscriberBuffer)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

func (s *Store) publishLocked(message chat.Message) {
	for _, ch := range s.subscribers {
		select {
		case ch <- message:
		default:
		}
	}
}

func (s *Store) greeting() chat.Message {
	return s.NewMessage(chat.SenderBot, Greeting, chat.CategoryInfo)
}
