package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"time"
)

// deliver faz um único POST, sem retry, limitado por m.timeout.
func (m *Manager) deliver(ctx context.Context, destination, event string, body []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	startTime := time.Now()
	m.incrementStat("total_sent")

	m.logger.Debug("Conectando ao webhook", "url", destination, "event", event, "bytes", len(body))

	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", m.userAgent).
		SetHeader("X-Webhook-Event", event).
		SetHeader("X-Webhook-Timestamp", fmt.Sprintf("%d", startTime.Unix())).
		SetBody(body).
		Post(destination)

	duration := time.Since(startTime)
	m.recordLatency(duration)

	if err != nil {
		kind := classify(err)
		host := hostOf(destination)

		switch kind {
		case KindTimeout:
			m.incrementStat("total_timeouts")
			m.logger.Error("Timeout ao conectar ao webhook", "host", host, "event", event, "timeout", m.timeout)
			return nil, newError(KindTimeout, MsgTimeout, err)
		case KindUnavailable:
			m.incrementStat("total_unavailable")
			m.logger.Error("Não foi possível conectar ao webhook", "error", err, "host", host, "event", event)
			return nil, newError(KindUnavailable, MsgUnavailable, err)
		default:
			m.incrementStat("total_failed")
			m.logger.Error("Erro inesperado ao enviar webhook", "error", err, "host", host, "event", event)
			return nil, newError(KindUnexpected, MsgUnexpected, err)
		}
	}

	result := &Result{
		Success: resp.StatusCode() >= 200 && resp.StatusCode() < 300,
		Status:  resp.StatusCode(),
		Data:    parseBody(resp.Body()),
	}

	if result.Success {
		m.incrementStat("total_success")
		m.logger.Info("Webhook entregue com sucesso", "statusCode", result.Status, "event", event, "duration", duration)
	} else {
		m.incrementStat("total_failed")
		m.logger.Warn("Webhook respondeu com status de erro", "statusCode", result.Status, "host", hostOf(destination), "event", event)
	}

	return result, nil
}

// classify separa timeout de destino inalcançável; o resto é inesperado.
func classify(err error) Kind {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.ECONNRESET) {
		return KindUnavailable
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return KindUnavailable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindUnavailable
	}

	return KindUnexpected
}

// parseBody interpreta a resposta como JSON; em falha devolve objeto vazio.
func parseBody(body []byte) any {
	var data any
	if err := json.Unmarshal(body, &data); err != nil || data == nil {
		return map[string]any{}
	}
	return data
}

func hostOf(raw string) string {
	if u, err := url.Parse(raw); err == nil {
		return u.Host
	}
	return ""
}
