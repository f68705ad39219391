package dto

import (
	"errors"
	"strings"

	"chatrelay/internal/db/models"
	"chatrelay/internal/repository"
)

type SessionRequest struct {
	ID           string  `json:"id" example:"abc123"`                        // ID da sessão (gerado pelo cliente)
	Name         *string `json:"name,omitempty" example:"Atendimento Ana"`   // Nome de exibição
	NomeCompleto *string `json:"nome_completo,omitempty" example:"Ana Lima"` // Nome completo do contato
	RemoteJid    *string `json:"remote_jid,omitempty" example:"5511999999999"`
}

func (r *SessionRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return errors.New("id da sessão é obrigatório")
	}
	return nil
}

func (r *SessionRequest) Fields() repository.SessionFields {
	return repository.SessionFields{
		Name:         r.Name,
		NomeCompleto: r.NomeCompleto,
		RemoteJid:    r.RemoteJid,
	}
}

func (r *SessionRequest) ToModel() *models.Session {
	session := &models.Session{ID: r.ID}
	if r.Name != nil && *r.Name != "" {
		session.Name = *r.Name
	}
	if r.NomeCompleto != nil && *r.NomeCompleto != "" {
		session.NomeCompleto = r.NomeCompleto
	}
	if r.RemoteJid != nil && *r.RemoteJid != "" {
		session.RemoteJid = r.RemoteJid
	}
	return session
}
