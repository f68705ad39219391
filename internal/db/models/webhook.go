package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// WebhookConfig é uma versão da configuração do webhook; a linha de maior id é a vigente.
type WebhookConfig struct {
	bun.BaseModel `bun:"table:webhook_configs,alias:wc"`

	ID        int64     `json:"id" bun:"id,pk,autoincrement"`
	Data      string    `json:"data" bun:"data,notnull,type:text"`
	CreatedAt time.Time `json:"created_at" bun:"created_at,notnull"`
}

func (w *WebhookConfig) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		if w.CreatedAt.IsZero() {
			w.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
