package webhook

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

type EventType string

const (
	EventApplicationStartup  EventType = "APPLICATION_STARTUP"
	EventChatsDelete         EventType = "CHATS_DELETE"
	EventChatsSet            EventType = "CHATS_SET"
	EventChatsUpdate         EventType = "CHATS_UPDATE"
	EventChatsUpsert         EventType = "CHATS_UPSERT"
	EventConnectionUpdate    EventType = "CONNECTION_UPDATE"
	EventContactsSet         EventType = "CONTACTS_SET"
	EventContactsUpdate      EventType = "CONTACTS_UPDATE"
	EventContactsUpsert      EventType = "CONTACTS_UPSERT"
	EventLabelsAssociation   EventType = "LABELS_ASSOCIATION"
	EventLabelsEdit          EventType = "LABELS_EDIT"
	EventLogoutInstance      EventType = "LOGOUT_INSTANCE"
	EventMessagesDelete      EventType = "MESSAGES_DELETE"
	EventMessagesSet         EventType = "MESSAGES_SET"
	EventMessagesUpdate      EventType = "MESSAGES_UPDATE"
	EventMessagesUpsert      EventType = "MESSAGES_UPSERT"
	EventPresenceUpdate      EventType = "PRESENCE_UPDATE"
	EventQRCodeUpdated       EventType = "QRCODE_UPDATED"
	EventRemoveInstance      EventType = "REMOVE_INSTANCE"
	EventSendMessage         EventType = "SEND_MESSAGE"
	EventTypebotChangeStatus EventType = "TYPEBOT_CHANGE_STATUS"
	EventTypebotStart        EventType = "TYPEBOT_START"
)

var SupportedEventTypes = []EventType{
	EventApplicationStartup,
	EventChatsDelete,
	EventChatsSet,
	EventChatsUpdate,
	EventChatsUpsert,
	EventConnectionUpdate,
	EventContactsSet,
	EventContactsUpdate,
	EventContactsUpsert,
	EventLabelsAssociation,
	EventLabelsEdit,
	EventLogoutInstance,
	EventMessagesDelete,
	EventMessagesSet,
	EventMessagesUpdate,
	EventMessagesUpsert,
	EventPresenceUpdate,
	EventQRCodeUpdated,
	EventRemoveInstance,
	EventSendMessage,
	EventTypebotChangeStatus,
	EventTypebotStart,
}

type Settings struct {
	Enabled         bool     `json:"enabled"`
	BaseURL         string   `json:"baseUrl"`
	WebhookBase64   bool     `json:"webhookBase64"`
	WebhookByEvents bool     `json:"webhookByEvents"`
	Events          []string `json:"events"`
}

type WebsocketSettings struct {
	Enabled bool     `json:"enabled"`
	Events  []string `json:"events"`
}

// Config é o formato canônico gravado; formatos antigos são convertidos em Normalize.
type Config struct {
	Webhook   Settings          `json:"webhook"`
	Websocket WebsocketSettings `json:"websocket"`
}

func (c *Config) clone() *Config {
	cp := *c
	cp.Webhook.Events = copyEvents(c.Webhook.Events)
	cp.Websocket.Events = copyEvents(c.Websocket.Events)
	return &cp
}

// copyEvents preserva a diferença entre lista ausente (nil) e lista vazia.
func copyEvents(events []string) []string {
	if events == nil {
		return nil
	}
	return append(make([]string, 0, len(events)), events...)
}

// Allows aplica o filtro por evento quando webhookByEvents está ligado e há lista de eventos.
// Lista ausente libera tudo; lista vazia bloqueia tudo.
func (c *Config) Allows(event string) bool {
	if !c.Webhook.WebhookByEvents || c.Webhook.Events == nil {
		return true
	}
	for _, e := range c.Webhook.Events {
		if e == event {
			return true
		}
	}
	return false
}

func (c *Config) DestinationURL(event string) string {
	if !c.Webhook.WebhookByEvents {
		return c.Webhook.BaseURL
	}
	return strings.TrimRight(c.Webhook.BaseURL, "/") + "/" + url.PathEscape(event)
}

func (c *Config) Deliverable() bool {
	return c.Webhook.Enabled && c.Webhook.BaseURL != ""
}

// Result é o desfecho de uma entrega que obteve resposta HTTP (qualquer status).
type Result struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    any  `json:"data"`
}

type Stats struct {
	TotalSent        int64      `json:"total_sent"`
	TotalSuccess     int64      `json:"total_success"`
	TotalFailed      int64      `json:"total_failed"`
	TotalTimeouts    int64      `json:"total_timeouts"`
	TotalUnavailable int64      `json:"total_unavailable"`
	TotalFiltered    int64      `json:"total_filtered"`
	AverageLatencyMs float64    `json:"average_latency_ms"`
	LastDeliveryAt   *time.Time `json:"last_delivery_at"`
}

// Payload é o corpo enriquecido enviado ao destino. Nenhuma chave usa omitempty.
type Payload struct {
	Message        string          `json:"message"`
	Event          string          `json:"event"`
	FileBase64     json.RawMessage `json:"filebase64"`
	SessionID      string          `json:"sessionid"`
	Username       *string         `json:"username"`
	WhatsappNumber *string         `json:"whatsappnumber"`
	ContentType    string          `json:"contenttype"`
	Metadata       Metadata        `json:"metadata"`

	lookupErr error
}

// LookupError devolve a falha de banco ocorrida durante o enriquecimento, se houve.
func (p *Payload) LookupError() error {
	return p.lookupErr
}

type Metadata struct {
	SessionName       *string    `json:"session_name"`
	SessionCreatedAt  *time.Time `json:"session_created_at"`
	SessionUpdatedAt  *time.Time `json:"session_updated_at"`
	TotalMessages     *int64     `json:"total_messages"`
	UserMessages      *int64     `json:"user_messages"`
	AssistantMessages *int64     `json:"assistant_messages"`
	LastMessageAt     *time.Time `json:"last_message_at"`
	OriginalRole      *string    `json:"original_role"`
	MessageID         *string    `json:"message_id"`
	FileURL           *string    `json:"file_url"`
	FileType          *string    `json:"file_type"`
	ImageURL          *string    `json:"image_url"`
	AudioURL          *string    `json:"audio_url"`
	MimeType          *string    `json:"mime_type"`
	Timestamp         time.Time  `json:"timestamp"`
	WebhookSentAt     time.Time  `json:"webhook_sent_at"`
	RequestIP         *string    `json:"request_ip"`
	UserAgent         *string    `json:"user_agent"`
}

type FieldPresence struct {
	BaseFields     map[string]bool `json:"base_fields"`
	MetadataFields map[string]bool `json:"metadata_fields"`
}

type DebugReport struct {
	Success          bool          `json:"success"`
	Message          string        `json:"message"`
	Payload          *Payload      `json:"payload"`
	PayloadSize      int           `json:"payload_size"`
	AllFieldsPresent FieldPresence `json:"all_fields_present"`
	EnrichmentError  string        `json:"enrichment_error,omitempty"`
}

// RequestInfo são os cabeçalhos da requisição de entrada copiados para metadata.
type RequestInfo struct {
	ForwardedFor string
	RealIP       string
	UserAgent    string
}
