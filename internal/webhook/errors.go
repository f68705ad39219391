package webhook

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotConfigured Kind = "not_configured"
	KindFiltered      Kind = "filtered"
	KindTimeout       Kind = "timeout"
	KindUnavailable   Kind = "unavailable"
	KindUnexpected    Kind = "unexpected"
	KindStorage       Kind = "storage"
)

const (
	MsgSessionIDRequired = "sessionId é obrigatório para enviar ao webhook"
	MsgNotConfigured     = "Webhook não configurado"
	MsgDisabled          = "Webhook desabilitado ou URL não configurada"
	MsgEventNotAllowed   = "Evento não permitido"
	MsgTimeout           = "Timeout ao conectar ao webhook"
	MsgUnavailable       = "Não foi possível conectar ao servidor n8n. Verifique se o serviço está ativo."
	MsgInvalidURL        = "URL do webhook inválida"
	MsgMalformedURL      = "Formato de URL inválido"
	MsgUnexpected        = "Erro ao enviar webhook"
	MsgStorage           = "Erro ao acessar configuração do webhook"
)

// Error carrega o tipo da falha; a camada HTTP é quem traduz Kind em status.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return KindUnexpected
}

// IsKind informa se err é um *Error do tipo indicado.
func IsKind(err error, kind Kind) bool {
	var we *Error
	return errors.As(err, &we) && we.Kind == kind
}
