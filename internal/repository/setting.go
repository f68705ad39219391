package repository

import (
	"context"
	"encoding/json"

	"github.com/uptrace/bun"

	"chatrelay/internal/db/models"
)

type SettingRepositoryInterface interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
}

type SettingRepository struct {
	db *bun.DB
}

func NewSettingRepository(db *bun.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (json.RawMessage, error) {
	setting := &models.Setting{}
	if err := r.db.NewSelect().Model(setting).Where("key = ?", key).Scan(ctx); err != nil {
		return nil, wrap("setting.get", err)
	}
	return json.RawMessage(setting.Value), nil
}

// Save faz upsert pela chave; a última escrita vence.
func (r *SettingRepository) Save(ctx context.Context, key string, value json.RawMessage) error {
	setting := &models.Setting{Key: key, Value: string(value)}

	_, err := r.db.NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return wrap("setting.save", err)
}
