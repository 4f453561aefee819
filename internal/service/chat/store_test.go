package chat_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modelchat "github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	chat "github.com/zhouzirui/threat-desk/backend/internal/service/chat"
)

func TestNewStoreSeedsGreeting(t *testing.T) {
	store := chat.NewStore("s1")

	messages := store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, modelchat.SenderBot, messages[0].Sender)
	assert.Equal(t, modelchat.CategoryInfo, messages[0].Category)
	assert.Equal(t, chat.Greeting, messages[0].Content)
	assert.Equal(t, "s1", messages[0].SessionID)
	assert.NotEmpty(t, messages[0].ID)
}

func TestStoreAppendPreservesOrder(t *testing.T) {
	store := chat.NewStore("s1")
	store.Append(store.NewMessage(modelchat.SenderUser, "first", ""))
	store.Append(store.NewMessage(modelchat.SenderBot, "second", modelchat.CategoryInfo))

	messages := store.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "first", messages[1].Content)
	assert.Equal(t, "second", messages[2].Content)
	assert.NotEqual(t, messages[1].ID, messages[2].ID)
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	store := chat.NewStore("s1")
	messages := store.Messages()
	messages[0].Content = "tampered"

	assert.Equal(t, chat.Greeting, store.Messages()[0].Content)
}

func TestStoreResetIsIdempotent(t *testing.T) {
	store := chat.NewStore("s1")
	store.Append(store.NewMessage(modelchat.SenderUser, "hello", ""))

	store.Reset()
	first := store.Messages()
	store.Reset()
	second := store.Messages()

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Content, second[0].Content)
	assert.Equal(t, first[0].Category, second[0].Category)
}

func TestStoreConcurrentAppends(t *testing.T) {
	store := chat.NewStore("s1")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Append(store.NewMessage(modelchat.SenderBot, "proactive", modelchat.CategoryWarning))
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, store.Len())
}

func TestStoreSubscribe(t *testing.T) {
	store := chat.NewStore("s1")
	updates, cancel := store.Subscribe()

	store.Append(store.NewMessage(modelchat.SenderUser, "ping", ""))
	got := <-updates
	assert.Equal(t, "ping", got.Content)

	cancel()
	cancel()
	_, open := <-updates
	assert.False(t, open)

	store.Append(store.NewMessage(modelchat.SenderUser, "after cancel", ""))
	assert.Equal(t, 3, store.Len())
}

func TestStoreFollowDeliversEachMessageOnce(t *testing.T) {
	store := chat.NewStore("s1")

	const appends = 20
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < appends; i++ {
			store.Append(store.NewMessage(modelchat.SenderBot, "alert", modelchat.CategoryWarning))
		}
	}()

	history, updates, cancel := store.Follow()
	wg.Wait()
	cancel()

	seen := make(map[string]int)
	for _, msg := range history {
		seen[msg.ID]++
	}
	for msg := range updates {
		seen[msg.ID]++
	}

	assert.Len(t, seen, appends+1)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}
