package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/db/dbtest"
	"chatrelay/internal/repository"
)

func newStore(t *testing.T) (*ConfigStore, *repository.Repositories) {
	t.Helper()
	repos := repository.New(dbtest.New(t))
	return NewConfigStore(repos.WebhookConfig), repos
}

func TestNormalizeLegacyShapes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		url     string
		enabled bool
	}{
		{"webhookUrl plano", `{"webhookUrl":"http://a.test"}`, "http://a.test", true},
		{"baseUrl plano", `{"baseUrl":"http://b.test"}`, "http://b.test", true},
		{"webhook aninhado", `{"webhook":{"baseUrl":"http://c.test"}}`, "http://c.test", true},
		{"aninhado desabilitado", `{"webhook":{"baseUrl":"http://d.test","enabled":false}}`, "http://d.test", false},
		{"webhookUrl tem prioridade", `{"webhookUrl":"http://e.test","webhook":{"baseUrl":"http://f.test"}}`, "http://e.test", true},
		{"só a flag", `{"enabled":false}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Normalize([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.url, cfg.Webhook.BaseURL)
			assert.Equal(t, tt.enabled, cfg.Webhook.Enabled)
			assert.Nil(t, cfg.Webhook.Events)
		})
	}

	cfg, err := Normalize([]byte(`{"webhook":{"baseUrl":"http://g.test","webhookByEvents":true,"events":[]}}`))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Webhook.Events)
	assert.Empty(t, cfg.Webhook.Events)
}

func TestLegacyRowIsReadAsEnabled(t *testing.T) {
	store, repos := newStore(t)
	ctx := context.Background()

	_, err := repos.WebhookConfig.Append(ctx, []byte(`{"webhookUrl":"http://legacy.test/hook"}`))
	require.NoError(t, err)

	cfg, err := store.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cfg.Deliverable())
	assert.Equal(t, "http://legacy.test/hook", cfg.Webhook.BaseURL)
}

func TestSaveWritesCanonicalShape(t *testing.T) {
	store, repos := newStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, Config{Webhook: Settings{
		Enabled: true,
		BaseURL: " http://n8n.test/webhook ",
		Events:  []string{"SEND_MESSAGE", " ", "SEND_MESSAGE"},
	}})
	require.NoError(t, err)

	row, err := repos.WebhookConfig.Latest(ctx)
	require.NoError(t, err)

	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(row.Data), &stored))
	assert.Contains(t, stored, "webhook")
	assert.Contains(t, stored, "websocket")

	cfg, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://n8n.test/webhook", cfg.Webhook.BaseURL)
	assert.Equal(t, []string{"SEND_MESSAGE"}, cfg.Webhook.Events)
}

func TestSaveRejectsInvalidURL(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, Config{Webhook: Settings{Enabled: true, BaseURL: "not a url"}})
	require.True(t, IsKind(err, KindValidation))
	assert.Equal(t, MsgMalformedURL, err.(*Error).Message)

	_, err = store.Save(ctx, Config{Webhook: Settings{Enabled: true}})
	require.True(t, IsKind(err, KindValidation))
	assert.Equal(t, MsgInvalidURL, err.(*Error).Message)

	_, err = store.Save(ctx, Config{Webhook: Settings{Enabled: false}})
	assert.NoError(t, err)
}

func TestSetURLKeepsOtherFlags(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	cfg, err := store.SetURL(ctx, "http://first.test")
	require.NoError(t, err)
	assert.True(t, cfg.Webhook.Enabled)

	_, err = store.Save(ctx, Config{Webhook: Settings{
		Enabled:         false,
		BaseURL:         "http://first.test",
		WebhookBase64:   true,
		WebhookByEvents: true,
		Events:          []string{"CHATS_SET"},
	}})
	require.NoError(t, err)

	cfg, err = store.SetURL(ctx, "http://second.test")
	require.NoError(t, err)
	assert.Equal(t, "http://second.test", cfg.Webhook.BaseURL)
	assert.False(t, cfg.Webhook.Enabled)
	assert.True(t, cfg.Webhook.WebhookBase64)
	assert.Equal(t, []string{"CHATS_SET"}, cfg.Webhook.Events)

	_, err = store.SetURL(ctx, "")
	assert.True(t, IsKind(err, KindValidation))
}

func TestCacheIsInvalidatedOnWrite(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, err := store.SetURL(ctx, "http://one.test")
	require.NoError(t, err)

	cfg, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://one.test", cfg.Webhook.BaseURL)

	// alterar a cópia devolvida não afeta o cache
	cfg.Webhook.BaseURL = "http://mutated.test"

	cfg, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://one.test", cfg.Webhook.BaseURL)

	_, err = store.SetURL(ctx, "http://two.test")
	require.NoError(t, err)

	cfg, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://two.test", cfg.Webhook.BaseURL)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.True(t, IsKind(err, KindNotConfigured))
}
