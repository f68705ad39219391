package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/db/dbtest"
	"chatrelay/internal/db/models"
	"chatrelay/internal/repository"
)

var base = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	return repository.New(dbtest.New(t))
}

func strPtr(s string) *string { return &s }

func saveMessage(t *testing.T, repos *repository.Repositories, sessionID string, role models.Role, content string, at time.Time) *models.Message {
	t.Helper()
	msg := &models.Message{SessionID: sessionID, Role: role, Content: content, CreatedAt: at}
	require.NoError(t, repos.Message.Save(context.Background(), msg))
	return msg
}

func TestMessageSaveCreatesSessionOnce(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	first := saveMessage(t, repos, "abc", models.RoleUser, "oi", base)
	saveMessage(t, repos, "abc", models.RoleAssistant, "olá", base.Add(time.Second))

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, models.ContentText, first.ContentType)

	session, err := repos.Session.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Sessão abc", session.Name)
	assert.Nil(t, session.NomeCompleto)

	summary, err := repos.Session.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].MessageCount)
}

func TestSessionUpsertKeepsUnsuppliedFields(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	s, err := repos.Session.Upsert(ctx, "s1", repository.SessionFields{Name: strPtr("Atendimento")})
	require.NoError(t, err)
	assert.Equal(t, "Atendimento", s.Name)

	s, err = repos.Session.Upsert(ctx, "s1", repository.SessionFields{NomeCompleto: strPtr("Ana Lima"), Name: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Atendimento", s.Name)
	require.NotNil(t, s.NomeCompleto)
	assert.Equal(t, "Ana Lima", *s.NomeCompleto)

	s, err = repos.Session.Update(ctx, "s1", repository.SessionFields{RemoteJid: strPtr("5511999999999")})
	require.NoError(t, err)
	require.NotNil(t, s.RemoteJid)
	assert.Equal(t, "5511999999999", *s.RemoteJid)
	assert.Equal(t, "Ana Lima", *s.NomeCompleto)

	_, err = repos.Session.Update(ctx, "missing", repository.SessionFields{Name: strPtr("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionCreateReportsExisting(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	created, err := repos.Session.Create(ctx, &models.Session{ID: "c1", Name: "Primeira"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repos.Session.Create(ctx, &models.Session{ID: "c1", Name: "Segunda"})
	require.NoError(t, err)
	assert.False(t, created)

	s, err := repos.Session.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Primeira", s.Name)
}

func TestListWithRecentMessagesIsChronological(t *testing.T) {
	repos := newRepos(t)

	for i, content := range []string{"m1", "m2", "m3", "m4", "m5"} {
		saveMessage(t, repos, "r1", models.RoleUser, content, base.Add(time.Duration(i)*time.Minute))
	}

	sessions, err := repos.Session.ListWithRecentMessages(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	var contents []string
	for _, m := range sessions[0].Messages {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"m3", "m4", "m5"}, contents)
}

func TestSummaryOrdersByLastActivity(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	saveMessage(t, repos, "old", models.RoleUser, "a", base)
	saveMessage(t, repos, "new", models.RoleUser, "b", base.Add(time.Hour))
	saveMessage(t, repos, "old", models.RoleUser, "c", base.Add(2*time.Hour))

	summary, err := repos.Session.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)

	assert.Equal(t, "old", summary[0].ID)
	assert.Equal(t, int64(2), summary[0].MessageCount)
	assert.True(t, summary[0].LastMessageAt.Time.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, "new", summary[1].ID)
}

func TestGetStatsCountsByRole(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	saveMessage(t, repos, "st", models.RoleUser, "1", base)
	saveMessage(t, repos, "st", models.RoleAssistant, "2", base.Add(time.Second))
	saveMessage(t, repos, "st", models.RoleUser, "3", base.Add(2*time.Second))

	stats, err := repos.Session.GetStats(ctx, "st")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.User)
	assert.Equal(t, int64(1), stats.Assistant)
	assert.True(t, stats.LastMessageAt.Time.Equal(base.Add(2*time.Second)))

	empty, err := repos.Session.GetStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.True(t, empty.LastMessageAt.IsZero())
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	msg := saveMessage(t, repos, "del", models.RoleUser, "bye", base)

	require.NoError(t, repos.Session.Delete(ctx, "del"))

	_, err := repos.Message.GetByID(ctx, msg.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repos.Session.GetByID(ctx, "del")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repos.Session.Delete(ctx, "del"), repository.ErrNotFound)
}

func TestMessageUpdateAndDelete(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	msg := saveMessage(t, repos, "u1", models.RoleAssistant, "rascunho", base)

	image := models.ContentImage
	updated, err := repos.Message.Update(ctx, msg.ID, repository.MessageFields{
		Content:     strPtr("final"),
		ContentType: &image,
		ImageURL:    strPtr("https://cdn.example.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, models.ContentImage, updated.ContentType)
	assert.Equal(t, models.RoleAssistant, updated.Role)

	_, err = repos.Message.Update(ctx, "missing", repository.MessageFields{Content: strPtr("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	audio := models.ContentAudio
	_, err = repos.Message.Update(ctx, msg.ID, repository.MessageFields{ContentType: &audio})
	var invalid *repository.ValidationError
	assert.ErrorAs(t, err, &invalid)

	stored, err := repos.Message.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContentImage, stored.ContentType)

	require.NoError(t, repos.Message.Delete(ctx, msg.ID))
	assert.ErrorIs(t, repos.Message.Delete(ctx, msg.ID), repository.ErrNotFound)

	list, err := repos.Message.ListBySession(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDistinctDatesNewestFirst(t *testing.T) {
	repos := newRepos(t)

	saveMessage(t, repos, "d", models.RoleUser, "a", base)
	saveMessage(t, repos, "d", models.RoleUser, "b", base.Add(time.Hour))
	saveMessage(t, repos, "d", models.RoleUser, "c", base.Add(48*time.Hour))

	dates, err := repos.Message.DistinctDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-12", "2024-03-10"}, dates)
}

func TestSettingLastWriteWins(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	_, err := repos.Setting.Get(ctx, "n8n-config")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repos.Setting.Save(ctx, "n8n-config", json.RawMessage(`{"a":1}`)))
	require.NoError(t, repos.Setting.Save(ctx, "n8n-config", json.RawMessage(`{"a":2}`)))

	value, err := repos.Setting.Get(ctx, "n8n-config")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(value))
}

func TestWebhookConfigLatestWins(t *testing.T) {
	repos := newRepos(t)
	ctx := context.Background()

	_, err := repos.WebhookConfig.Latest(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	first, err := repos.WebhookConfig.Append(ctx, []byte(`{"webhookUrl":"http://a"}`))
	require.NoError(t, err)
	second, err := repos.WebhookConfig.Append(ctx, []byte(`{"webhookUrl":"http://b"}`))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	latest, err := repos.WebhookConfig.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"webhookUrl":"http://b"}`, latest.Data)

	n, err := repos.WebhookConfig.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = repos.WebhookConfig.Latest(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
