package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"

	"chatrelay/internal/db/models"
	"chatrelay/internal/logger"
	"chatrelay/internal/repository"
)

type SessionSource interface {
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetStats(ctx context.Context, id string) (*models.SessionStats, error)
}

type Enricher struct {
	sessions SessionSource
	now      func() time.Time
	logger   logger.Logger
}

type EnricherOption func(*Enricher)

func WithClock(now func() time.Time) EnricherOption {
	return func(e *Enricher) {
		e.now = now
	}
}

func NewEnricher(sessions SessionSource, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		sessions: sessions,
		now:      time.Now,
		logger:   logger.NewForComponent("WebhookEnricher"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich monta o payload canônico. Só falha quando não há sessionId; sessão
// inexistente ou erro de leitura resultam em metadata nula.
func (e *Enricher) Enrich(ctx context.Context, in Inbound, req RequestInfo) (*Payload, error) {
	sessionID, ok := in.SessionID()
	if !ok {
		return nil, newError(KindValidation, MsgSessionIDRequired, nil)
	}

	now := e.now().UTC()

	p := &Payload{
		Message:        in.StringOr(FieldMessage, ""),
		Event:          in.Event(),
		FileBase64:     in.Raw(FieldFileBase64),
		SessionID:      sessionID,
		Username:       in.StringPtr(FieldUsername),
		WhatsappNumber: in.StringPtr(FieldWhatsappNumber),
		ContentType:    in.StringOr(FieldContentType, string(models.ContentText)),
		Metadata: Metadata{
			OriginalRole:  in.StringPtr(FieldRole),
			MessageID:     in.StringPtr(FieldMessageID),
			FileURL:       in.StringPtr(FieldFileURL),
			FileType:      in.StringPtr(FieldFileType),
			ImageURL:      in.StringPtr(FieldImageURL),
			AudioURL:      in.StringPtr(FieldAudioURL),
			MimeType:      in.StringPtr(FieldMimeType),
			Timestamp:     now,
			WebhookSentAt: now,
			RequestIP:     firstNonEmpty(req.ForwardedFor, req.RealIP),
			UserAgent:     firstNonEmpty(req.UserAgent),
		},
	}

	if err := e.applySession(ctx, p); err != nil {
		p.lookupErr = err
		e.logger.Error("Erro ao enriquecer payload com dados da sessão", "error", err, "sessionID", sessionID)
	}

	return p, nil
}

func (e *Enricher) applySession(ctx context.Context, p *Payload) error {
	if e.sessions == nil {
		return nil
	}

	session, err := e.sessions.GetByID(ctx, p.SessionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	stats, err := e.sessions.GetStats(ctx, p.SessionID)
	if err != nil {
		return err
	}

	if p.Username == nil {
		p.Username = nonEmpty(session.NomeCompleto)
	}
	if p.WhatsappNumber == nil {
		p.WhatsappNumber = nonEmpty(session.RemoteJid)
	}

	created := session.CreatedAt.UTC()
	md := &p.Metadata
	md.SessionName = firstNonEmpty(session.Name)
	md.SessionCreatedAt = &created
	md.SessionUpdatedAt = &created
	md.TotalMessages = &stats.Total
	md.UserMessages = &stats.User
	md.AssistantMessages = &stats.Assistant

	if !stats.LastMessageAt.IsZero() {
		last := stats.LastMessageAt.Time.UTC()
		md.LastMessageAt = &last
		md.SessionUpdatedAt = &last
	}

	return nil
}

// inlineMedia preenche filebase64 a partir de `media` quando webhookBase64 está ativo.
func inlineMedia(p *Payload, in Inbound, cfg *Config) {
	if cfg == nil || !cfg.Webhook.WebhookBase64 || p.FileBase64 != nil {
		return
	}

	media, ok := in.String(FieldMedia)
	if !ok {
		return
	}

	data := []byte(media)
	if strings.HasPrefix(media, "data:") {
		if du, err := dataurl.DecodeString(media); err == nil {
			data = du.Data
		}
	}

	encoded, err := json.Marshal(base64.StdEncoding.EncodeToString(data))
	if err == nil {
		p.FileBase64 = encoded
	}
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return &v
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
