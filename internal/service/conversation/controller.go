// Package conversation runs the turn-taking protocol between the dashboard
// user and the assistant.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	chatservice "github.com/zhouzirui/threat-desk/backend/internal/service/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/watcher"
)

var (
	ErrEmptyInput         = errors.New("message content is empty")
	ErrBusy               = errors.New("a response is already in progress")
	ErrResolveUnavailable = errors.New("threat resolution is not wired")
)

// Apology replaces a reply whenever producing it fails.
const Apology = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment."

// State is the turn state of a conversation.
type State int

const (
	Idle State = iota
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting_response"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Generator produces the assistant reply for one user turn.
type Generator interface {
	Generate(input string, alerts []threat.Alert) intent.Reply
}

// ResolveFunc is invoked when the user asks the dashboard to resolve a threat.
type ResolveFunc func(ctx context.Context, threatID string) error

// Options wires a Controller's collaborators. Zero fields fall back to
// production defaults.
type Options struct {
	Generator Generator
	Delay     Delay
	Sleep     func(time.Duration)
	Resolve   ResolveFunc
	Logger    *zap.Logger
}

// Controller owns one conversation: its history, turn state and threat
// watcher.
type Controller struct {
	mu         sync.Mutex
	state      State
	generation uint64

	session   chat.Session
	store     *chatservice.Store
	watcher   *watcher.Watcher
	threats   threat.Source
	generator Generator
	delay     Delay
	sleep     func(time.Duration)
	resolve   ResolveFunc
	logger    *zap.Logger

	turns sync.WaitGroup

	subMu   sync.Mutex
	typing  map[int]chan bool
	nextSub int
}

// New starts a conversation over store. The watcher baseline is the number of
// alerts visible right now.
func New(session chat.Session, store *chatservice.Store, threats threat.Source, opts Options) *Controller {
	if opts.Generator == nil {
		opts.Generator = intent.New()
	}
	if opts.Delay == nil {
		opts.Delay = RandomDelay(DefaultMinDelay, DefaultMaxDelay, nil)
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.With(zap.String("session_id", session.ID))

	return &Controller{
		state:     Idle,
		session:   session,
		store:     store,
		watcher:   watcher.New(store, len(threats.Snapshot()), logger),
		threats:   threats,
		generator: opts.Generator,
		delay:     opts.Delay,
		sleep:     opts.Sleep,
		resolve:   opts.Resolve,
		logger:    logger,
		typing:    make(map[int]chan bool),
	}
}

// Session returns the conversation's session record.
func (c *Controller) Session() chat.Session {
	return c.session
}

// State returns the current turn state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Busy reports whether a reply is being prepared.
func (c *Controller) Busy() bool {
	return c.State() == AwaitingResponse
}

// Messages returns the conversation history.
func (c *Controller) Messages() []chat.Message {
	return c.store.Messages()
}

// Suggestions returns quick actions for the current threat context.
func (c *Controller) Suggestions() []intent.QuickAction {
	return intent.Suggestions(c.threats.Snapshot())
}

// Submit records a user turn and schedules the reply. Blank input and
// submissions made while a reply is pending are rejected without touching
// the history.
func (c *Controller) Submit(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.state == AwaitingResponse {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state = AwaitingResponse
	generation := c.generation
	c.store.Append(c.store.NewMessage(chat.SenderUser, text, ""))
	c.turns.Add(1)
	c.publishTyping(true)
	c.mu.Unlock()

	go c.runTurn(generation, text)
	return nil
}

// Reset restores the greeting-only history and returns to Idle. A reply
// still being prepared is discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	wasBusy := c.state == AwaitingResponse
	c.generation++
	c.state = Idle
	c.store.Reset()
	if wasBusy {
		c.publishTyping(false)
	}
	c.mu.Unlock()

	c.logger.Info("conversation reset", zap.Bool("discarded_turn", wasBusy))
}

// ObserveThreats runs the watcher step against a fresh alert snapshot.
func (c *Controller) ObserveThreats(alerts []threat.Alert) (chat.Message, bool) {
	return c.watcher.Observe(alerts)
}

// ResolveThreat hands a resolution request to the dashboard callback.
func (c *Controller) ResolveThreat(ctx context.Context, threatID string) error {
	if c.resolve == nil {
		return ErrResolveUnavailable
	}
	if err := c.resolve(ctx, threatID); err != nil {
		return fmt.Errorf("resolve threat %s: %w", threatID, err)
	}
	return nil
}

// Wait blocks until every accepted turn has finished.
func (c *Controller) Wait() {
	c.turns.Wait()
}

// SubscribeTyping streams busy transitions until cancel is called.
func (c *Controller) SubscribeTyping() (<-chan bool, func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan bool, 8)
	c.typing[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			delete(c.typing, id)
			close(ch)
		})
	}
}

// SubscribeMessages streams appended messages until cancel is called.
func (c *Controller) SubscribeMessages() (<-chan chat.Message, func()) {
	return c.store.Subscribe()
}

// FollowMessages returns the history and a stream of the messages appended
// after it.
func (c *Controller) FollowMessages() ([]chat.Message, <-chan chat.Message, func()) {
	return c.store.Follow()
}

func (c *Controller) runTurn(generation uint64, text string) {
	defer c.turns.Done()

	started := time.Now()
	reply := c.respond(text)

	c.mu.Lock()
	if c.generation != generation {
		c.mu.Unlock()
		c.logger.Debug("discarding reply after reset", zap.String("intent", string(reply.Intent)))
		return
	}
	c.store.Append(c.store.NewMessage(chat.SenderBot, reply.Text, reply.Category))
	c.state = Idle
	c.publishTyping(false)
	c.mu.Unlock()

	c.logger.Info("reply delivered",
		zap.String("intent", string(reply.Intent)),
		zap.String("category", string(reply.Category)),
		zap.Duration("elapsed", time.Since(started)))
}

// respond waits out the thinking delay and generates the reply. Any panic on
// that path becomes the apology message.
func (c *Controller) respond(text string) (reply intent.Reply) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("reply generation failed", zap.Any("panic", r))
			reply = intent.Reply{Text: Apology, Category: chat.CategoryInfo}
		}
	}()

	c.sleep(c.delay())
	return c.generator.Generate(text, c.threats.Snapshot())
}

// publishTyping must be called with c.mu held so transitions reach
// subscribers in state order.
func (c *Controller) publishTyping(busy bool) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.typing {
		select {
		case ch <- busy:
		default:
		}
	}
}
