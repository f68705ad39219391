package realtime

import (
	"encoding/json"
	"time"
)

const (
	TypeConnected = "connected"
	TypeMessage   = "message"
	TypeSession   = "session"
	TypePing      = "ping"
	TypePong      = "pong"
	TypeHeartbeat = "heartbeat"
)

type Envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func NewEnvelope(kind string, data any) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      kind,
		Data:      data,
		Timestamp: now(),
	})
}

// stamp reescreve o frame recebido com o timestamp do servidor, preservando os demais campos.
func stamp(frame map[string]json.RawMessage) ([]byte, error) {
	ts, err := json.Marshal(now())
	if err != nil {
		return nil, err
	}
	frame["timestamp"] = ts
	return json.Marshal(frame)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
