// Package watcher raises a proactive assistant message when the monitoring
// feed reports more alerts than it did at the previous observation.
package watcher

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
)

// Appender receives proactive messages.
type Appender interface {
	NewMessage(sender chat.Sender, content string, category chat.Category) chat.Message
	Append(message chat.Message)
}

// Watcher tracks the last observed alert count for one conversation.
type Watcher struct {
	mu        sync.Mutex
	store     Appender
	lastCount int
	logger    *zap.Logger
}

// New seeds the baseline with the alert count present when the session
// starts, so existing alerts do not trigger a notification.
func New(store Appender, initialCount int, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{store: store, lastCount: initialCount, logger: logger}
}

// LastCount returns the baseline used for the next observation.
func (w *Watcher) LastCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastCount
}

// Observe compares the snapshot size with the baseline. A strict increase
// appends one warning about alerts[0], however many alerts arrived. The
// baseline always moves to the new size.
func (w *Watcher) Observe(alerts []threat.Alert) (chat.Message, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	previous := w.lastCount
	w.lastCount = len(alerts)

	if len(alerts) <= previous || len(alerts) == 0 {
		return chat.Message{}, false
	}

	current := alerts[0]
	msg := w.store.NewMessage(chat.SenderBot, Notification(current), chat.CategoryWarning)
	w.store.Append(msg)

	w.logger.Info("new threat announced",
		zap.String("threat_id", current.ID),
		zap.String("type", current.Type),
		zap.String("severity", string(current.Severity)),
		zap.Int("previous", previous),
		zap.Int("current", len(alerts)))
	return msg, true
}

// Notification renders the proactive warning for a newly detected alert.
func Notification(a threat.Alert) string {
	return fmt.Sprintf("🚨 New threat detected: \"%s\" with %s severity.\n\n"+
		"I can help you:\n"+
		"• Understand this threat\n"+
		"• Provide resolution steps\n"+
		"• Suggest preventive measures\n\n"+
		"What would you like to know about this threat?", a.Type, a.Severity)
}
