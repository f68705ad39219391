package models

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Setting guarda um valor JSON arbitrário por chave (ex.: n8n-config).
type Setting struct {
	bun.BaseModel `bun:"table:settings,alias:st"`

	Key       string    `json:"key" bun:"key,pk,type:varchar(255)"`
	Value     string    `json:"value" bun:"value,type:text"`
	UpdatedAt time.Time `json:"updated_at" bun:"updated_at,notnull"`
}

func (s *Setting) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		s.UpdatedAt = time.Now().UTC()
	}
	return nil
}
