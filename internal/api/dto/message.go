package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vincent-petithory/dataurl"

	"chatrelay/internal/db/models"
	"chatrelay/internal/repository"
)

type CreateMessageRequest struct {
	ID          string  `json:"id,omitempty"`
	SessionID   string  `json:"sessionId" example:"abc123"`                          // Sessão dona; criada automaticamente se não existir
	Role        string  `json:"role" example:"user" enums:"user,assistant"`          // Autor da mensagem
	Content     string  `json:"content" example:"Olá!"`                              // Texto ou data URI
	ContentType string  `json:"contentType,omitempty" example:"text" enums:"text,image,file,audio"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	AudioURL    *string `json:"audioUrl,omitempty"`
	AudioBase64 *string `json:"audioBase64,omitempty"`
	MimeType    *string `json:"mimeType,omitempty" example:"image/png"`
	FileName    *string `json:"fileName,omitempty" example:"foto.png"`

	// grafias snake_case ainda enviadas por clientes antigos
	SessionIDSnake   string `json:"session_id,omitempty" swaggerignore:"true"`
	ContentTypeSnake string `json:"content_type,omitempty" swaggerignore:"true"`
}

// ToModel valida o pedido e aplica a inferência de tipo para conteúdo em data URI.
func (r *CreateMessageRequest) ToModel() (*models.Message, error) {
	sessionID := strings.TrimSpace(firstOf(r.SessionID, r.SessionIDSnake))
	if sessionID == "" {
		return nil, errors.New("sessionId é obrigatório")
	}
	if r.Role == "" {
		return nil, errors.New("role é obrigatório")
	}
	if r.Content == "" {
		return nil, errors.New("content é obrigatório")
	}

	role := models.Role(r.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("role inválido: %s", r.Role)
	}

	msg := &models.Message{
		ID:          r.ID,
		SessionID:   sessionID,
		Role:        role,
		Content:     r.Content,
		ImageURL:    blankToNil(r.ImageURL),
		AudioURL:    blankToNil(r.AudioURL),
		AudioBase64: blankToNil(r.AudioBase64),
		MimeType:    blankToNil(r.MimeType),
		FileName:    blankToNil(r.FileName),
	}

	contentType := firstOf(r.ContentType, r.ContentTypeSnake)
	if contentType == "" {
		msg.ContentType = models.ContentText
		inferFromDataURL(msg)
	} else {
		msg.ContentType = models.ContentType(contentType)
	}

	if err := msg.ValidateContent(); err != nil {
		return nil, err
	}

	return msg, nil
}

func inferFromDataURL(msg *models.Message) {
	if !strings.HasPrefix(msg.Content, "data:") {
		return
	}

	du, err := dataurl.DecodeString(msg.Content)
	if err != nil {
		return
	}

	switch du.Type {
	case "image":
		msg.ContentType = models.ContentImage
	case "audio":
		msg.ContentType = models.ContentAudio
	default:
		msg.ContentType = models.ContentFile
	}

	if msg.MimeType == nil {
		mime := du.ContentType()
		msg.MimeType = &mime
	}
}

type UpdateMessageRequest struct {
	ID          string  `json:"id" example:"7f1c..."` // ID da mensagem
	Content     *string `json:"content,omitempty"`
	ContentType *string `json:"contentType,omitempty" enums:"text,image,file,audio"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	AudioURL    *string `json:"audioUrl,omitempty"`
	AudioBase64 *string `json:"audioBase64,omitempty"`
	MimeType    *string `json:"mimeType,omitempty"`
	FileName    *string `json:"fileName,omitempty"`
}

func (r *UpdateMessageRequest) Fields() (repository.MessageFields, error) {
	if strings.TrimSpace(r.ID) == "" {
		return repository.MessageFields{}, errors.New("id da mensagem é obrigatório")
	}

	fields := repository.MessageFields{
		Content:     r.Content,
		ImageURL:    r.ImageURL,
		AudioURL:    r.AudioURL,
		AudioBase64: r.AudioBase64,
		MimeType:    r.MimeType,
		FileName:    r.FileName,
	}

	if r.ContentType != nil {
		ct := models.ContentType(*r.ContentType)
		if !ct.Valid() {
			return repository.MessageFields{}, fmt.Errorf("content_type inválido: %s", ct)
		}
		fields.ContentType = &ct
	}

	return fields, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
