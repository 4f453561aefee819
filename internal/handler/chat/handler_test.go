package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/threat-desk/backend/internal/analysis/intent"
	modelchat "github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
)

func setupRouter(feed *threat.Feed) (*chi.Mux, *conversation.Manager) {
	mgr := conversation.NewManager(feed, conversation.Options{Delay: conversation.FixedDelay(0)})
	r := chi.NewRouter()
	New(mgr).RegisterRoutes(r)
	return r, mgr
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/session", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		Session  modelchat.Session   `json:"session"`
		Messages []modelchat.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.Len(t, created.Messages, 1)
	assert.Equal(t, modelchat.CategoryInfo, created.Messages[0].Category)
	return created.Session.ID
}

func TestSubmitAndReadHistory(t *testing.T) {
	r, mgr := setupRouter(threat.NewFeed(nil))
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "we detected ransomware on a server"})
	require.Equal(t, http.StatusAccepted, resp.Code)
	mgr.Wait()

	resp = doJSON(t, r, http.MethodGet, "/session/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var messages []modelchat.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &messages))
	require.Len(t, messages, 3)
	assert.Contains(t, messages[2].Content, "Do NOT pay the ransom")
}

func TestSubmitRejectsBlankContent(t *testing.T) {
	r, _ := setupRouter(threat.NewFeed(nil))
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSubmitConflictsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	mgr := conversation.NewManager(threat.NewFeed(nil), conversation.Options{
		Delay: conversation.FixedDelay(0),
		Sleep: func(_ time.Duration) { <-release },
	})
	r := chi.NewRouter()
	New(mgr).RegisterRoutes(r)
	id := createSession(t, r)

	first := doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "help"})
	require.Equal(t, http.StatusAccepted, first.Code)
	second := doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "help"})
	assert.Equal(t, http.StatusConflict, second.Code)

	state := doJSON(t, r, http.MethodGet, "/session/"+id+"/state", nil)
	assert.Contains(t, state.Body.String(), `"busy":true`)

	close(release)
	mgr.Wait()
}

func TestResetRestoresGreeting(t *testing.T) {
	r, mgr := setupRouter(threat.NewFeed(nil))
	id := createSession(t, r)
	doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"content": "hello"})
	mgr.Wait()

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var messages []modelchat.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &messages))
	assert.Len(t, messages, 1)
}

func TestSuggestionsFollowThreatContext(t *testing.T) {
	feed := threat.NewFeed([]threat.Alert{{ID: "t1", Type: "SQL Injection", Severity: threat.SeverityHigh}})
	r, _ := setupRouter(feed)
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodGet, "/session/"+id+"/suggestions", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var actions []intent.QuickAction
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &actions))
	require.Len(t, actions, 4)
	assert.Equal(t, "help with sql injection", actions[1].Prompt)
}

func TestUnknownSession(t *testing.T) {
	r, _ := setupRouter(threat.NewFeed(nil))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/session/missing/messages"},
		{http.MethodPost, "/session/missing/reset"},
		{http.MethodDelete, "/session/missing/"},
	} {
		resp := doJSON(t, r, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code, tc.path)
	}
}

func TestDeleteSession(t *testing.T) {
	r, mgr := setupRouter(threat.NewFeed(nil))
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodDelete, "/session/"+id+"/", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	_, err := mgr.GetSession(context.Background(), id)
	assert.ErrorIs(t, err, conversation.ErrSessionNotFound)
}

func TestResolveThreatThroughSession(t *testing.T) {
	feed := threat.NewFeed([]threat.Alert{{ID: "t1", Type: "Port Scan", Severity: threat.SeverityLow}})
	mgr := conversation.NewManager(feed, conversation.Options{Delay: conversation.FixedDelay(0), Resolve: feed.Dismiss})
	r := chi.NewRouter()
	New(mgr).RegisterRoutes(r)
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/threats/t1/resolve", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, 0, feed.Len())

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/threats/t1/resolve", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestResolveThreatUnwired(t *testing.T) {
	r, _ := setupRouter(threat.NewFeed(nil))
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/threats/t1/resolve", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
