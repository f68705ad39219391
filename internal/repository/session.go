package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"chatrelay/internal/db/models"
)

// SessionFields carrega uma atualização parcial; campos nil ou vazios não são tocados.
type SessionFields struct {
	Name         *string
	NomeCompleto *string
	RemoteJid    *string
}

func (f SessionFields) empty() bool {
	return present(f.Name) == nil && present(f.NomeCompleto) == nil && present(f.RemoteJid) == nil
}

type SessionRepositoryInterface interface {
	Upsert(ctx context.Context, id string, fields SessionFields) (*models.Session, error)
	Create(ctx context.Context, session *models.Session) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Update(ctx context.Context, id string, fields SessionFields) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	ListWithRecentMessages(ctx context.Context, limit int) ([]*models.SessionWithMessages, error)
	Summary(ctx context.Context) ([]models.SessionSummary, error)
	GetStats(ctx context.Context, id string) (*models.SessionStats, error)
}

type SessionRepository struct {
	db *bun.DB
}

func NewSessionRepository(db *bun.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert cria a sessão se ausente e aplica apenas os campos informados.
func (r *SessionRepository) Upsert(ctx context.Context, id string, fields SessionFields) (*models.Session, error) {
	session := &models.Session{}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureSession(ctx, tx, id, fields); err != nil {
			return err
		}
		if !fields.empty() {
			if _, err := updateSession(ctx, tx, id, fields); err != nil {
				return err
			}
		}
		return tx.NewSelect().Model(session).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, wrap("session.upsert", err)
	}

	return session, nil
}

// Create insere a sessão somente se o id ainda não existir; retorna se houve inserção.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) (bool, error) {
	session.CreatedAt = time.Now().UTC()

	result, err := r.db.NewInsert().
		Model(session).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, wrap("session.create", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrap("session.create", err)
	}

	return rowsAffected > 0, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	session := &models.Session{}
	if err := r.db.NewSelect().Model(session).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, wrap("session.get", err)
	}
	return session, nil
}

func (r *SessionRepository) Update(ctx context.Context, id string, fields SessionFields) (*models.Session, error) {
	session := &models.Session{}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if fields.empty() {
			return tx.NewSelect().Model(session).Where("id = ?", id).Scan(ctx)
		}

		result, err := updateSession(ctx, tx, id, fields)
		if err != nil {
			return err
		}
		if err := checkAffected(result); err != nil {
			return err
		}

		return tx.NewSelect().Model(session).Where("id = ?", id).Scan(ctx)
	})
	if err != nil {
		return nil, wrap("session.update", err)
	}

	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Message)(nil)).
			Where("session_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*models.Session)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		return checkAffected(result)
	})

	return wrap("session.delete", err)
}

// ListWithRecentMessages devolve cada sessão com suas últimas `limit` mensagens em ordem cronológica.
func (r *SessionRepository) ListWithRecentMessages(ctx context.Context, limit int) ([]*models.SessionWithMessages, error) {
	var sessions []*models.Session
	if err := r.db.NewSelect().
		Model(&sessions).
		Order("created_at DESC").
		Scan(ctx); err != nil {
		return nil, wrap("session.list", err)
	}

	out := make([]*models.SessionWithMessages, 0, len(sessions))
	for _, s := range sessions {
		messages := make([]*models.Message, 0)
		if err := r.db.NewSelect().
			Model(&messages).
			Where("session_id = ?", s.ID).
			Order("created_at DESC").
			Limit(limit).
			Scan(ctx); err != nil {
			return nil, wrap("session.list", err)
		}

		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}

		out = append(out, &models.SessionWithMessages{Session: s, Messages: messages})
	}

	return out, nil
}

func (r *SessionRepository) Summary(ctx context.Context) ([]models.SessionSummary, error) {
	summaries := make([]models.SessionSummary, 0)

	err := r.db.NewSelect().
		TableExpr("sessions AS s").
		ColumnExpr("s.id, s.name, s.nome_completo, s.remote_jid, s.created_at").
		ColumnExpr("COUNT(m.id) AS message_count").
		ColumnExpr("MAX(m.created_at) AS last_message_at").
		Join("LEFT JOIN messages AS m ON m.session_id = s.id").
		GroupExpr("s.id, s.name, s.nome_completo, s.remote_jid, s.created_at").
		OrderExpr("COALESCE(MAX(m.created_at), s.created_at) DESC").
		Scan(ctx, &summaries)
	if err != nil {
		return nil, wrap("session.summary", err)
	}

	return summaries, nil
}

// GetStats calcula o agregado em uma única consulta; sessão sem mensagens rende zeros.
func (r *SessionRepository) GetStats(ctx context.Context, id string) (*models.SessionStats, error) {
	stats := &models.SessionStats{}

	err := r.db.NewSelect().
		TableExpr("messages").
		ColumnExpr("COUNT(*) AS total_messages").
		ColumnExpr("COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS user_messages", models.RoleUser).
		ColumnExpr("COALESCE(SUM(CASE WHEN role = ? THEN 1 ELSE 0 END), 0) AS assistant_messages", models.RoleAssistant).
		ColumnExpr("MAX(created_at) AS last_message_at").
		Where("session_id = ?", id).
		Scan(ctx, stats)
	if err != nil {
		return nil, wrap("session.stats", err)
	}

	return stats, nil
}

func ensureSession(ctx context.Context, idb bun.IDB, id string, fields SessionFields) error {
	session := &models.Session{
		ID:           id,
		NomeCompleto: present(fields.NomeCompleto),
		RemoteJid:    present(fields.RemoteJid),
	}
	if name := present(fields.Name); name != nil {
		session.Name = *name
	}

	_, err := idb.NewInsert().
		Model(session).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return err
}

func updateSession(ctx context.Context, idb bun.IDB, id string, fields SessionFields) (sql.Result, error) {
	q := idb.NewUpdate().Model((*models.Session)(nil)).Where("id = ?", id)

	if v := present(fields.Name); v != nil {
		q = q.Set("name = ?", *v)
	}
	if v := present(fields.NomeCompleto); v != nil {
		q = q.Set("nome_completo = ?", *v)
	}
	if v := present(fields.RemoteJid); v != nil {
		q = q.Set("remote_jid = ?", *v)
	}

	return q.Exec(ctx)
}

func present(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
