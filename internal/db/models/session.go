package models

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID           string    `json:"id" bun:"id,pk,type:varchar(255)"`
	Name         string    `json:"name" bun:"name,notnull,type:varchar(255)"`
	NomeCompleto *string   `json:"nome_completo" bun:"nome_completo,type:varchar(255)"`
	RemoteJid    *string   `json:"remote_jid" bun:"remote_jid,type:varchar(255)"`
	CreatedAt    time.Time `json:"created_at" bun:"created_at,notnull"`
}

// SessionWithMessages acompanha as mensagens mais recentes da sessão, em ordem cronológica.
type SessionWithMessages struct {
	*Session
	Messages []*Message `json:"messages"`
}

func DefaultSessionName(id string) string {
	return fmt.Sprintf("Sessão %s", id)
}

func (s *Session) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		if s.CreatedAt.IsZero() {
			s.CreatedAt = time.Now().UTC()
		}
		if s.Name == "" {
			s.Name = DefaultSessionName(s.ID)
		}
	}
	return nil
}

// SessionStats é o agregado de mensagens de uma sessão.
type SessionStats struct {
	Total         int64        `json:"total_messages" bun:"total_messages"`
	User          int64        `json:"user_messages" bun:"user_messages"`
	Assistant     int64        `json:"assistant_messages" bun:"assistant_messages"`
	LastMessageAt bun.NullTime `json:"last_message_at" bun:"last_message_at"`
}

type SessionSummary struct {
	ID            string       `json:"id" bun:"id"`
	Name          string       `json:"name" bun:"name"`
	NomeCompleto  *string      `json:"nome_completo" bun:"nome_completo"`
	RemoteJid     *string      `json:"remote_jid" bun:"remote_jid"`
	CreatedAt     time.Time    `json:"created_at" bun:"created_at"`
	MessageCount  int64        `json:"message_count" bun:"message_count"`
	LastMessageAt bun.NullTime `json:"last_message_at" bun:"last_message_at"`
}
