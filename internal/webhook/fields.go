package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Field string

const (
	FieldSessionID      Field = "sessionid"
	FieldMessage        Field = "message"
	FieldEvent          Field = "event"
	FieldFileBase64     Field = "filebase64"
	FieldUsername       Field = "username"
	FieldWhatsappNumber Field = "whatsappnumber"
	FieldContentType    Field = "contenttype"
	FieldRole           Field = "original_role"
	FieldMessageID      Field = "message_id"
	FieldFileURL        Field = "file_url"
	FieldFileType       Field = "file_type"
	FieldImageURL       Field = "image_url"
	FieldAudioURL       Field = "audio_url"
	FieldMimeType       Field = "mime_type"
	FieldMedia          Field = "media"
)

// Aliases lista, em ordem de precedência, os nomes aceitos para cada campo canônico.
// Clientes antigos e novos convivem, então nenhum nome pode ser removido.
var Aliases = map[Field][]string{
	FieldSessionID:      {"sessionId", "session_id", "sessionid"},
	FieldMessage:        {"Message", "message", "content"},
	FieldEvent:          {"Event", "event"},
	FieldFileBase64:     {"fileBase64", "filebase64", "audioBase64", "imageBase64"},
	FieldUsername:       {"userName", "username", "nome_completo"},
	FieldWhatsappNumber: {"whatsappNumber", "whatsappnumber", "remote_jid"},
	FieldContentType:    {"contentType", "contenttype"},
	FieldRole:           {"role"},
	FieldMessageID:      {"id", "messageId"},
	FieldFileURL:        {"fileUrl", "fileurl"},
	FieldFileType:       {"fileType", "filetype"},
	FieldImageURL:       {"imageUrl", "image_url"},
	FieldAudioURL:       {"audioUrl", "audio_url"},
	FieldMimeType:       {"mimeType", "mime_type"},
	FieldMedia:          {"media"},
}

// Inbound é o corpo JSON recebido, sem tipagem; valores ficam crus até a resolução.
type Inbound map[string]json.RawMessage

func ParseInbound(body []byte) (Inbound, error) {
	in := Inbound{}
	if len(bytes.TrimSpace(body)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, fmt.Errorf("payload inválido: %w", err)
	}
	return in, nil
}

// Raw devolve o primeiro valor "verdadeiro" dentre os apelidos do campo.
// Ausente, null, "", false e 0 são ignorados.
func (in Inbound) Raw(field Field) json.RawMessage {
	for _, key := range Aliases[field] {
		if v, ok := in[key]; ok && truthy(v) {
			return v
		}
	}
	return nil
}

func (in Inbound) String(field Field) (string, bool) {
	raw := in.Raw(field)
	if raw == nil {
		return "", false
	}
	return rawToString(raw), true
}

func (in Inbound) StringOr(field Field, fallback string) string {
	if s, ok := in.String(field); ok {
		return s
	}
	return fallback
}

func (in Inbound) StringPtr(field Field) *string {
	if s, ok := in.String(field); ok {
		return &s
	}
	return nil
}

func (in Inbound) Event() string {
	return in.StringOr(FieldEvent, string(EventSendMessage))
}

func (in Inbound) SessionID() (string, bool) {
	return in.String(FieldSessionID)
}

func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}

	switch v[0] {
	case 'n':
		return false
	case 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		return len(v) > 2
	default:
		f, err := strconv.ParseFloat(string(v), 64)
		return err != nil || f != 0
	}
}

// rawToString converte strings JSON no seu conteúdo e demais valores no texto literal.
func rawToString(raw json.RawMessage) string {
	v := bytes.TrimSpace(raw)
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return strings.TrimSpace(string(v))
}
