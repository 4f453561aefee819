package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	chatservice "github.com/zhouzirui/threat-desk/backend/internal/service/chat"
)

func alerts(types ...string) []threat.Alert {
	out := make([]threat.Alert, 0, len(types))
	for i, typ := range types {
		out = append(out, threat.Alert{ID: string(rune('a' + i)), Type: typ, Severity: threat.SeverityHigh})
	}
	return out
}

func TestObserveEmitsOncePerIncrease(t *testing.T) {
	store := chatservice.NewStore("s")
	w := New(store, 0, nil)

	msg, ok := w.Observe(alerts("Ransomware", "Port Scan", "Phishing"))
	require.True(t, ok)
	assert.Equal(t, chat.CategoryWarning, msg.Category)
	assert.Equal(t, chat.SenderBot, msg.Sender)
	assert.Contains(t, msg.Content, `New threat detected: "Ransomware" with high severity`)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 3, w.LastCount())
}

func TestObserveIgnoresDecreaseAndEqual(t *testing.T) {
	store := chatservice.NewStore("s")
	w := New(store, 2, nil)

	_, ok := w.Observe(alerts("A", "B"))
	assert.False(t, ok)
	_, ok = w.Observe(alerts("A"))
	assert.False(t, ok)
	assert.Equal(t, 1, w.LastCount())
	_, ok = w.Observe(nil)
	assert.False(t, ok)
	assert.Equal(t, 0, w.LastCount())

	assert.Equal(t, 1, store.Len())
}

func TestObserveAfterShrinkTriggersAgain(t *testing.T) {
	store := chatservice.NewStore("s")
	w := New(store, 3, nil)

	_, ok := w.Observe(alerts("A"))
	assert.False(t, ok)
	msg, ok := w.Observe(alerts("B", "A"))
	require.True(t, ok)
	assert.Contains(t, msg.Content, `"B"`)
}

func TestSeededBaselineSuppressesStartupNotification(t *testing.T) {
	store := chatservice.NewStore("s")
	existing := alerts("A", "B")
	w := New(store, len(existing), nil)

	_, ok := w.Observe(existing)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}
