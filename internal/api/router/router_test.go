package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/db/dbtest"
	"chatrelay/internal/repository"
	"chatrelay/internal/webhook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeHub struct {
	mu        sync.Mutex
	published []string
}

func (h *fakeHub) Publish(kind string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, kind)
}

func (h *fakeHub) ServeWS(http.ResponseWriter, *http.Request) error {
	return errors.New("sem websocket nos testes")
}

func (h *fakeHub) ClientCount() int { return 0 }

type testServer struct {
	engine *gin.Engine
	hub    *fakeHub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repos := repository.New(dbtest.New(t))
	store := webhook.NewConfigStore(repos.WebhookConfig)
	manager := webhook.NewManager(store, webhook.NewEnricher(repos.Session), webhook.Options{})
	hub := &fakeHub{}

	engine := NewRouter(Dependencies{
		Repositories:   repos,
		WebhookManager: manager,
		Hub:            hub,
		AllowOrigins:   []string{"*"},
		RecentLimit:    20,
	})
	return &testServer{engine: engine, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func countingDestination(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNewSessionSend(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/messages", `{"sessionId":"abc","role":"user","content":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	assert.Equal(t, true, created["success"])

	w = s.do(t, http.MethodGet, "/sessions/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[[]map[string]any](t, w)
	require.Len(t, summary, 1)
	assert.Equal(t, "abc", summary[0]["id"])
	assert.Equal(t, float64(1), summary[0]["message_count"])

	w = s.do(t, http.MethodGet, "/sessions/abc/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	messages := decode[[]map[string]any](t, w)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0]["role"])

	assert.Equal(t, []string{"message"}, s.hub.published)
}

func TestCreateMessageValidation(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"role":"user","content":"hi"}`,
		`{"sessionId":"abc","content":"hi"}`,
		`{"sessionId":"abc","role":"user"}`,
		`{"sessionId":"abc","role":"robot","content":"hi"}`,
		`{"sessionId":"abc","role":"user","content":"hi","contentType":"audio"}`,
	} {
		w := s.do(t, http.MethodPost, "/messages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)

		envelope := decode[map[string]any](t, w)
		assert.Equal(t, false, envelope["success"])
		assert.Equal(t, float64(http.StatusBadRequest), envelope["code"])
		assert.NotEmpty(t, envelope["error"])
	}

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/messages", "").Code)
	assert.Empty(t, s.hub.published)
}

func TestPatchMessageKeepsMediaConsistent(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/messages", `{"id":"m1","sessionId":"abc","role":"user","content":"hi"}`).Code)

	w := s.do(t, http.MethodPatch, "/messages", `{"id":"m1","contentType":"audio"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	envelope := decode[map[string]any](t, w)
	assert.Equal(t, false, envelope["success"])
	assert.NotEmpty(t, envelope["error"])

	w = s.do(t, http.MethodGet, "/messages?sessionId=abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]map[string]any](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, "text", history[0]["content_type"])

	w = s.do(t, http.MethodPatch, "/messages", `{"id":"m1","contentType":"audio","audioUrl":"https://cdn.test/a.ogg"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[map[string]any](t, w)
	assert.Equal(t, "audio", updated["content_type"])
	assert.Equal(t, "https://cdn.test/a.ogg", updated["audio_url"])

	w = s.do(t, http.MethodPatch, "/messages", `{"id":"m1","audioUrl":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/messages", `{"id":"nope","content":"x"}`).Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/sessions", `{"id":"s1","name":"Atendimento"}`).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/sessions", `{"id":"s1","name":"Outro"}`).Code)

	w := s.do(t, http.MethodPatch, "/sessions", `{"id":"s1","nome_completo":"Ana Lima"}`)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[map[string]any](t, w)
	assert.Equal(t, "Atendimento", session["name"])
	assert.Equal(t, "Ana Lima", session["nome_completo"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPatch, "/sessions", `{"id":"nope","name":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPut, "/sessions", `{"name":"sem id"}`).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/sessions", `{"id":"s2"}`).Code)

	w = s.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 2)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodDelete, "/sessions", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/sessions?id=s1", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/sessions?id=s1", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/sessions?id=nunca-existiu", "").Code)
}

func TestDisabledWebhookMakesNoCalls(t *testing.T) {
	s := newTestServer(t)
	dest, hits := countingDestination(t)

	w := s.do(t, http.MethodPost, "/webhook-config", `{"webhook":{"enabled":false,"baseUrl":"`+dest.URL+`"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/webhook", `{"sessionId":"abc","message":"oi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, webhook.MsgDisabled, decode[map[string]any](t, w)["error"])
	assert.Zero(t, hits.Load())
}

func TestEmptyEventListIsForbidden(t *testing.T) {
	s := newTestServer(t)
	dest, hits := countingDestination(t)

	w := s.do(t, http.MethodPost, "/webhook-config", `{"webhook":{"enabled":true,"baseUrl":"`+dest.URL+`","webhookByEvents":true,"events":[]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/webhook", `{"sessionId":"abc","event":"QRCODE_UPDATED"}`)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, webhook.MsgEventNotAllowed, decode[map[string]any](t, w)["error"])
	assert.Zero(t, hits.Load())
}

func TestRelayThroughRouter(t *testing.T) {
	s := newTestServer(t)
	dest, hits := countingDestination(t)

	w := s.do(t, http.MethodPost, "/webhook", `{"sessionId":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/webhook/config", `{"webhookUrl":"`+dest.URL+`"}`).Code)

	w = s.do(t, http.MethodGet, "/webhook/config", "")
	assert.Equal(t, dest.URL, decode[map[string]any](t, w)["webhookUrl"])

	w = s.do(t, http.MethodPost, "/webhook", `{"sessionId":"abc","message":"oi"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode[map[string]any](t, w)
	assert.Equal(t, true, result["success"])
	assert.Equal(t, float64(200), result["status"])
	assert.Equal(t, map[string]any{"received": true}, result["data"])
	assert.Equal(t, int32(1), hits.Load())

	w = s.do(t, http.MethodGet, "/webhook/stats", "")
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["total_sent"])

	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/webhook/config", "").Code)
	w = s.do(t, http.MethodGet, "/webhook/config", "")
	assert.Equal(t, "", decode[map[string]any](t, w)["webhookUrl"])
}

func TestDebugRequiresSessionID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/webhook/debug", `{"message":"oi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, webhook.MsgSessionIDRequired, decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodPost, "/webhook/debug", `{"sessionId":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[map[string]any](t, w)
	assert.Equal(t, "Este é o payload que seria enviado ao webhook", report["message"])
	assert.Contains(t, report, "all_fields_present")
}

func TestWebhookHeadAndOptions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodHead, "/webhook", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", w.Header().Get("X-Webhook-Status"))
	assert.Empty(t, w.Body.String())

	w = s.do(t, http.MethodOptions, "/webhook", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Allow"), "POST")

	req := httptest.NewRequest(http.MethodOptions, "/webhook", nil)
	req.Header.Set("Origin", "http://painel.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, HEAD, OPTIONS", rec.Header().Get("Allow"))
}

func TestWebhookURLValidation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/webhook/config", `{"webhookUrl":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, webhook.MsgMalformedURL, decode[map[string]any](t, w)["error"])

	w = s.do(t, http.MethodPost, "/webhook/config", `{"webhookUrl":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, webhook.MsgInvalidURL, decode[map[string]any](t, w)["error"])
}

func TestFullConfigDefaultsWhenMissing(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/webhook-config", "")
	require.Equal(t, http.StatusOK, w.Code)

	var cfg webhook.Config
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.False(t, cfg.Webhook.Enabled)
	assert.Empty(t, cfg.Webhook.BaseURL)

	w = s.do(t, http.MethodPost, "/webhook-config", `{"webhook":{"enabled":true,"baseUrl":"http://n8n.test","webhookByEvents":true,"events":["SEND_MESSAGE"]},"websocket":{"enabled":true,"events":[]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/webhook-config", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.True(t, cfg.Webhook.WebhookByEvents)
	assert.Equal(t, []string{"SEND_MESSAGE"}, cfg.Webhook.Events)
	assert.True(t, cfg.Websocket.Enabled)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"config":null}`, w.Body.String())

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/config", `{"url":"http://n8n.test","token":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/config", `{broken`).Code)

	w = s.do(t, http.MethodGet, "/config", "")
	assert.JSONEq(t, `{"ok":true,"config":{"url":"http://n8n.test","token":"x"}}`, w.Body.String())
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
