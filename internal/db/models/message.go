package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentFile  ContentType = "file"
	ContentAudio ContentType = "audio"
)

func (c ContentType) Valid() bool {
	switch c {
	case ContentText, ContentImage, ContentFile, ContentAudio:
		return true
	}
	return false
}

type Message struct {
	bun.BaseModel `bun:"table:messages,alias:m"`

	ID          string      `json:"id" bun:"id,pk,type:varchar(64)"`
	SessionID   string      `json:"session_id" bun:"session_id,notnull,type:varchar(255)"`
	Role        Role        `json:"role" bun:"role,notnull,type:varchar(20)"`
	Content     string      `json:"content" bun:"content,notnull,type:text"`
	ContentType ContentType `json:"content_type" bun:"content_type,notnull,type:varchar(20)"`
	ImageURL    *string     `json:"image_url" bun:"image_url,type:text"`
	AudioURL    *string     `json:"audio_url" bun:"audio_url,type:text"`
	AudioBase64 *string     `json:"audio_base64" bun:"audio_base64,type:text"`
	MimeType    *string     `json:"mime_type" bun:"mime_type,type:varchar(100)"`
	FileName    *string     `json:"file_name" bun:"file_name,type:varchar(255)"`
	CreatedAt   time.Time   `json:"created_at" bun:"created_at,notnull"`
}

func (m *Message) BeforeAppendModel(_ context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		if m.ContentType == "" {
			m.ContentType = ContentText
		}
	}
	return nil
}

// ValidateContent confere se content_type bate com as fontes de mídia presentes.
func (m *Message) ValidateContent() error {
	if !m.ContentType.Valid() {
		return fmt.Errorf("content_type inválido: %s", m.ContentType)
	}

	switch m.ContentType {
	case ContentAudio:
		if m.AudioURL == nil && m.AudioBase64 == nil && !strings.HasPrefix(m.Content, "data:audio/") {
			return errors.New("mensagem de áudio exige audio_url, audio_base64 ou conteúdo data:audio")
		}
	case ContentImage:
		if m.ImageURL == nil && !strings.HasPrefix(m.Content, "data:image/") {
			return errors.New("mensagem de imagem exige image_url ou conteúdo data:image")
		}
	}
	return nil
}
