package conversation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
)

func TestManagerSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	mgr := conversation.NewManager(threat.NewFeed(nil), conversation.Options{Delay: conversation.FixedDelay(0)})

	ctrl, err := mgr.CreateSession(ctx)
	require.NoError(t, err)

	got, err := mgr.GetSession(ctx, ctrl.Session().ID)
	require.NoError(t, err)
	assert.Same(t, ctrl, got)
	assert.Equal(t, 1, mgr.Len())

	require.NoError(t, mgr.DeleteSession(ctx, ctrl.Session().ID))
	_, err = mgr.GetSession(ctx, ctrl.Session().ID)
	assert.ErrorIs(t, err, conversation.ErrSessionNotFound)
	assert.ErrorIs(t, mgr.DeleteSession(ctx, "missing"), conversation.ErrSessionNotFound)
}

func TestManagerFansOutThreatObservations(t *testing.T) {
	ctx := context.Background()
	feed := threat.NewFeed(nil)
	mgr := conversation.NewManager(feed, conversation.Options{Delay: conversation.FixedDelay(0)})
	feed.OnChange(mgr.ObserveThreats)

	first, err := mgr.CreateSession(ctx)
	require.NoError(t, err)
	second, err := mgr.CreateSession(ctx)
	require.NoError(t, err)

	feed.Push(threat.Alert{Type: "Data Exfiltration", Severity: threat.SeverityCritical})

	for _, ctrl := range []*conversation.Controller{first, second} {
		messages := ctrl.Messages()
		require.Len(t, messages, 2)
		assert.Equal(t, chat.CategoryWarning, messages[1].Category)
	}

	feed.Resolve(feed.Snapshot()[0].ID)
	assert.Len(t, first.Messages(), 2)
}
