package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"chatrelay/internal/db/models"
	"chatrelay/internal/logger"
	"chatrelay/internal/repository"
)

const (
	configCacheKey = "webhook:config:latest"
	configCacheTTL = 30 * time.Second
)

type ConfigRepository interface {
	Append(ctx context.Context, data []byte) (*models.WebhookConfig, error)
	Latest(ctx context.Context) (*models.WebhookConfig, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// ConfigStore lê a versão mais recente da configuração e grava sempre no formato canônico.
type ConfigStore struct {
	repo   ConfigRepository
	cache  *cache.Cache
	logger logger.Logger
}

func NewConfigStore(repo ConfigRepository) *ConfigStore {
	return &ConfigStore{
		repo:   repo,
		cache:  cache.New(configCacheTTL, time.Minute),
		logger: logger.NewForComponent("WebhookConfig"),
	}
}

// Get devolve a configuração vigente ou um *Error KindNotConfigured quando não há nenhuma.
func (s *ConfigStore) Get(ctx context.Context) (*Config, error) {
	if cached, found := s.cache.Get(configCacheKey); found {
		return cached.(*Config).clone(), nil
	}

	row, err := s.repo.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotConfigured, MsgNotConfigured, nil)
	}
	if err != nil {
		s.logger.Error("Erro ao carregar configuração do webhook", "error", err)
		return nil, newError(KindStorage, MsgStorage, err)
	}

	cfg, err := Normalize([]byte(row.Data))
	if err != nil {
		s.logger.Error("Configuração de webhook ilegível", "error", err, "id", row.ID)
		return nil, newError(KindNotConfigured, MsgNotConfigured, err)
	}

	s.cache.Set(configCacheKey, cfg, cache.DefaultExpiration)
	return cfg.clone(), nil
}

// Save valida e grava uma nova versão no formato canônico.
func (s *ConfigStore) Save(ctx context.Context, cfg Config) (*Config, error) {
	cfg.Webhook.BaseURL = strings.TrimSpace(cfg.Webhook.BaseURL)
	cfg.Webhook.Events = cleanEvents(cfg.Webhook.Events)
	cfg.Websocket.Events = cleanEvents(cfg.Websocket.Events)

	if cfg.Webhook.BaseURL != "" {
		if err := ValidateURL(cfg.Webhook.BaseURL); err != nil {
			return nil, err
		}
	} else if cfg.Webhook.Enabled {
		return nil, newError(KindValidation, MsgInvalidURL, nil)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, newError(KindUnexpected, MsgStorage, err)
	}

	defer s.cache.Delete(configCacheKey)

	if _, err := s.repo.Append(ctx, data); err != nil {
		s.logger.Error("Erro ao salvar configuração do webhook", "error", err)
		return nil, newError(KindStorage, MsgStorage, err)
	}

	s.logger.Info("Configuração de webhook salva", "enabled", cfg.Webhook.Enabled, "byEvents", cfg.Webhook.WebhookByEvents, "events", len(cfg.Webhook.Events))
	return &cfg, nil
}

// SetURL troca apenas o destino, preservando as demais opções da versão vigente.
func (s *ConfigStore) SetURL(ctx context.Context, rawURL string) (*Config, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, newError(KindValidation, MsgInvalidURL, nil)
	}
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	cfg, err := s.Get(ctx)
	switch {
	case IsKind(err, KindNotConfigured):
		cfg = &Config{Webhook: Settings{Enabled: true}}
	case err != nil:
		return nil, err
	}

	cfg.Webhook.BaseURL = rawURL
	return s.Save(ctx, *cfg)
}

func (s *ConfigStore) Clear(ctx context.Context) error {
	defer s.cache.Delete(configCacheKey)

	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("Erro ao remover configuração do webhook", "error", err)
		return newError(KindStorage, MsgStorage, err)
	}

	s.logger.Info("Configuração de webhook removida", "rows", n)
	return nil
}

func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return newError(KindValidation, MsgMalformedURL, err)
	}
	return nil
}

type storedSettings struct {
	Enabled         *bool    `json:"enabled"`
	BaseURL         string   `json:"baseUrl"`
	WebhookBase64   *bool    `json:"webhookBase64"`
	WebhookByEvents *bool    `json:"webhookByEvents"`
	Events          []string `json:"events"`
}

type storedConfig struct {
	storedSettings
	WebhookURL string             `json:"webhookUrl"`
	Webhook    *storedSettings    `json:"webhook"`
	Websocket  *WebsocketSettings `json:"websocket"`
}

// Normalize aceita {webhookUrl}, {baseUrl}, {webhook:{baseUrl}} e o formato canônico.
// Linhas sem a flag enabled são tratadas como habilitadas.
func Normalize(data []byte) (*Config, error) {
	var raw storedConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("configuração de webhook inválida: %w", err)
	}

	flags := raw.storedSettings
	nestedURL := ""
	if raw.Webhook != nil {
		flags = *raw.Webhook
		nestedURL = raw.Webhook.BaseURL
	}

	cfg := &Config{
		Webhook: Settings{
			Enabled:         boolOr(flags.Enabled, true),
			BaseURL:         firstString(raw.WebhookURL, nestedURL, raw.BaseURL),
			WebhookBase64:   boolOr(flags.WebhookBase64, false),
			WebhookByEvents: boolOr(flags.WebhookByEvents, false),
			Events:          cleanEvents(flags.Events),
		},
	}
	if raw.Websocket != nil {
		cfg.Websocket = *raw.Websocket
		cfg.Websocket.Events = cleanEvents(cfg.Websocket.Events)
	}

	return cfg, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func cleanEvents(events []string) []string {
	if events == nil {
		return nil
	}
	out := make([]string, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, e := range events {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
