package repository

import (
	"context"

	"github.com/uptrace/bun"

	"chatrelay/internal/db/models"
)

type WebhookConfigRepositoryInterface interface {
	Append(ctx context.Context, data []byte) (*models.WebhookConfig, error)
	Latest(ctx context.Context) (*models.WebhookConfig, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type WebhookConfigRepository struct {
	db *bun.DB
}

func NewWebhookConfigRepository(db *bun.DB) *WebhookConfigRepository {
	return &WebhookConfigRepository{db: db}
}

// Append grava uma nova versão; versões anteriores permanecem como histórico.
func (r *WebhookConfigRepository) Append(ctx context.Context, data []byte) (*models.WebhookConfig, error) {
	row := &models.WebhookConfig{Data: string(data)}
	if _, err := r.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return nil, wrap("webhook_config.append", err)
	}
	return row, nil
}

func (r *WebhookConfigRepository) Latest(ctx context.Context) (*models.WebhookConfig, error) {
	row := &models.WebhookConfig{}
	err := r.db.NewSelect().
		Model(row).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, wrap("webhook_config.latest", err)
	}
	return row, nil
}

func (r *WebhookConfigRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.WebhookConfig)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, wrap("webhook_config.delete", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, wrap("webhook_config.delete", err)
	}
	return n, nil
}
