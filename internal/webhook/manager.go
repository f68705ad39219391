package webhook

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"chatrelay/internal/logger"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "ChatRelay-Webhook/1.0"
)

type Options struct {
	Timeout   time.Duration
	UserAgent string
}

type Manager struct {
	store    *ConfigStore
	enricher *Enricher

	httpClient *resty.Client
	timeout    time.Duration
	userAgent  string

	logger logger.Logger

	stats        Stats
	latencyTotal time.Duration
	latencyCount int64
	statsMu      sync.RWMutex
}

func NewManager(store *ConfigStore, enricher *Enricher, opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Manager{
		store:      store,
		enricher:   enricher,
		httpClient: newHTTPClient(opts.Timeout),
		timeout:    opts.Timeout,
		userAgent:  opts.UserAgent,
		logger:     logger.NewForComponent("WebhookManager"),
	}
}

func newHTTPClient(timeout time.Duration) *resty.Client {
	client := resty.New()
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(15))
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return client
}

func (m *Manager) Store() *ConfigStore {
	return m.store
}

// Relay valida a configuração, filtra o evento, enriquece e entrega.
// Nenhuma chamada de rede acontece se a configuração ou o filtro barrarem o envio.
func (m *Manager) Relay(ctx context.Context, in Inbound, req RequestInfo) (*Result, error) {
	cfg, err := m.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Deliverable() {
		return nil, newError(KindNotConfigured, MsgDisabled, nil)
	}

	event := in.Event()
	if !cfg.Allows(event) {
		m.incrementStat("total_filtered")
		m.logger.Info("Evento bloqueado pelo filtro do webhook", "event", event)
		return nil, newError(KindFiltered, MsgEventNotAllowed, nil)
	}

	payload, err := m.enricher.Enrich(ctx, in, req)
	if err != nil {
		return nil, err
	}
	inlineMedia(payload, in, cfg)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(KindUnexpected, MsgUnexpected, err)
	}

	return m.deliver(ctx, cfg.DestinationURL(event), event, body)
}

// DebugRelay mostra o payload que seria enviado, sem chamada de rede.
func (m *Manager) DebugRelay(ctx context.Context, in Inbound, req RequestInfo) (*DebugReport, error) {
	payload, err := m.enricher.Enrich(ctx, in, req)
	if err != nil {
		return nil, err
	}

	if cfg, err := m.store.Get(ctx); err == nil {
		inlineMedia(payload, in, cfg)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(KindUnexpected, MsgUnexpected, err)
	}

	report := &DebugReport{
		Success:          true,
		Message:          "Este é o payload que seria enviado ao webhook",
		Payload:          payload,
		PayloadSize:      len(body),
		AllFieldsPresent: presence(body),
	}
	if lookupErr := payload.LookupError(); lookupErr != nil {
		report.EnrichmentError = "Erro ao buscar dados da sessão"
	}

	return report, nil
}

// TestRelay dispara um SEND_MESSAGE sintético pelo mesmo caminho de Relay.
func (m *Manager) TestRelay(ctx context.Context, req RequestInfo) (*Result, error) {
	in := Inbound{}
	set := func(key string, value any) {
		raw, _ := json.Marshal(value)
		in[key] = raw
	}
	set("sessionId", "webhook-test-"+uuid.NewString()[:8])
	set("message", "Teste de webhook")
	set("event", EventSendMessage)
	set("role", "user")
	set("contentType", "text")

	m.logger.Info("Enviando webhook de teste")
	return m.Relay(ctx, in, req)
}

func (m *Manager) GetStats() Stats {
	m.statsMu.RLock()
	defer m.statsMu.RUnlock()

	stats := m.stats
	if m.latencyCount > 0 {
		stats.AverageLatencyMs = float64(m.latencyTotal) / float64(time.Millisecond) / float64(m.latencyCount)
	}
	return stats
}

func (m *Manager) incrementStat(stat string) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	switch stat {
	case "total_sent":
		m.stats.TotalSent++
	case "total_success":
		m.stats.TotalSuccess++
	case "total_failed":
		m.stats.TotalFailed++
	case "total_timeouts":
		m.stats.TotalTimeouts++
	case "total_unavailable":
		m.stats.TotalUnavailable++
	case "total_filtered":
		m.stats.TotalFiltered++
	}
}

func (m *Manager) recordLatency(d time.Duration) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	now := time.Now().UTC()
	m.latencyTotal += d
	m.latencyCount++
	m.stats.LastDeliveryAt = &now
}

func presence(body []byte) FieldPresence {
	var decoded struct {
		Metadata map[string]json.RawMessage `json:"metadata"`
	}
	var base map[string]json.RawMessage
	_ = json.Unmarshal(body, &base)
	_ = json.Unmarshal(body, &decoded)

	fp := FieldPresence{
		BaseFields:     make(map[string]bool),
		MetadataFields: make(map[string]bool),
	}
	for _, k := range BaseFieldNames {
		_, ok := base[k]
		fp.BaseFields[k] = ok
	}
	for _, k := range MetadataFieldNames {
		_, ok := decoded.Metadata[k]
		fp.MetadataFields[k] = ok
	}
	return fp
}

var BaseFieldNames = []string{
	"message", "event", "filebase64", "sessionid", "username", "whatsappnumber", "contenttype",
}

var MetadataFieldNames = []string{
	"session_name", "session_created_at", "session_updated_at",
	"total_messages", "user_messages", "assistant_messages", "last_message_at",
	"original_role", "message_id", "file_url", "file_type", "image_url", "audio_url", "mime_type",
	"timestamp", "webhook_sent_at", "request_ip", "user_agent",
}
