package repository

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"chatrelay/internal/db"
	"chatrelay/internal/db/models"
)

type MessageFields struct {
	Content     *string
	ContentType *models.ContentType
	ImageURL    *string
	AudioURL    *string
	AudioBase64 *string
	MimeType    *string
	FileName    *string
}

type MessageRepositoryInterface interface {
	Save(ctx context.Context, message *models.Message) error
	ListBySession(ctx context.Context, sessionID string) ([]*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	Update(ctx context.Context, id string, fields MessageFields) (*models.Message, error)
	Delete(ctx context.Context, id string) error
	DistinctDates(ctx context.Context) ([]string, error)
}

type MessageRepository struct {
	db *bun.DB
}

func NewMessageRepository(db *bun.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save garante a sessão dona (nome padrão derivado do id) antes de inserir a mensagem.
func (r *MessageRepository) Save(ctx context.Context, message *models.Message) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureSession(ctx, tx, message.SessionID, SessionFields{}); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(message).Exec(ctx)
		return err
	})

	return wrap("message.save", err)
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]*models.Message, error) {
	messages := make([]*models.Message, 0)
	if err := r.db.NewSelect().
		Model(&messages).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, wrap("message.list", err)
	}
	return messages, nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	message := &models.Message{}
	if err := r.db.NewSelect().Model(message).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, wrap("message.get", err)
	}
	return message, nil
}

// Update aplica os campos sobre a mensagem atual e rejeita com *ValidationError
// quando o content_type resultante não bate com as mídias presentes.
func (r *MessageRepository) Update(ctx context.Context, id string, fields MessageFields) (*models.Message, error) {
	message := &models.Message{}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(message).Where("id = ?", id).Scan(ctx); err != nil {
			return err
		}

		if !fields.apply(message) {
			return nil
		}
		if err := message.ValidateContent(); err != nil {
			return &ValidationError{Err: err}
		}

		_, err := tx.NewUpdate().
			Model(message).
			Column("content", "content_type", "image_url", "audio_url", "audio_base64", "mime_type", "file_name").
			WherePK().
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, wrap("message.update", err)
	}

	return message, nil
}

// apply copia os campos informados; string vazia limpa as colunas opcionais.
func (f MessageFields) apply(m *models.Message) bool {
	changed := false
	optional := func(dst **string, value *string) {
		if value == nil {
			return
		}
		changed = true
		if strings.TrimSpace(*value) == "" {
			*dst = nil
			return
		}
		v := *value
		*dst = &v
	}

	if f.Content != nil && *f.Content != "" {
		m.Content = *f.Content
		changed = true
	}
	if f.ContentType != nil {
		m.ContentType = *f.ContentType
		changed = true
	}
	optional(&m.ImageURL, f.ImageURL)
	optional(&m.AudioURL, f.AudioURL)
	optional(&m.AudioBase64, f.AudioBase64)
	optional(&m.MimeType, f.MimeType)
	optional(&m.FileName, f.FileName)

	return changed
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.Message)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrap("message.delete", err)
	}
	return checkAffected(result)
}

// DistinctDates lista os dias (YYYY-MM-DD, UTC) com mensagens, do mais recente ao mais antigo.
func (r *MessageRepository) DistinctDates(ctx context.Context) ([]string, error) {
	expr := "substr(created_at, 1, 10)"
	if db.IsPostgres(r.db) {
		expr = "TO_CHAR(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')"
	}

	dates := make([]string, 0)
	err := r.db.NewSelect().
		TableExpr("messages").
		ColumnExpr("DISTINCT " + expr + " AS date").
		OrderExpr("date DESC").
		Scan(ctx, &dates)
	if err != nil {
		return nil, wrap("message.dates", err)
	}

	out := dates[:0]
	for _, d := range dates {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out, nil
}
