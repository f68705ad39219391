package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"chatrelay/internal/logger"
)

const heartbeatPeriod = 30 * time.Second

// outbound com target vai só para ele; sem target vai para todos exceto sender.
// Apenas a goroutine de Run escreve em client.send.
type outbound struct {
	data   []byte
	sender *Client
	target *Client
}

// Hub faz fan-out best-effort entre os clientes conectados em /ws.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	connected  atomic.Int64

	upgrader websocket.Upgrader
	logger   logger.Logger
}

func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: logger.NewForComponent("RealtimeHub"),
	}
}

func (h *Hub) Run(ctx context.Context) {
	heartbeat := time.NewTicker(heartbeatPeriod)
	defer func() {
		heartbeat.Stop()
		for client := range h.clients {
			h.drop(client)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub WebSocket parado")
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			h.connected.Add(1)
			h.logger.Debug("Cliente conectado", "clientID", client.ID, "total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("Cliente desconectado", "clientID", client.ID, "total", len(h.clients))
			}

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-heartbeat.C:
			if data, err := NewEnvelope(TypeHeartbeat, nil); err == nil {
				h.fanOut(outbound{data: data})
			}
		}
	}
}

func (h *Hub) fanOut(msg outbound) {
	if msg.target != nil {
		if _, ok := h.clients[msg.target]; ok {
			h.deliver(msg.target, msg.data)
		}
		return
	}

	for client := range h.clients {
		if client == msg.sender {
			continue
		}
		h.deliver(client, msg.data)
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.drop(client)
		h.logger.Warn("Cliente lento removido do hub", "clientID", client.ID)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.connected.Add(-1)
}

func (h *Hub) ClientCount() int {
	return int(h.connected.Load())
}

// Publish envia um envelope a todos os clientes; nunca bloqueia quem chama.
func (h *Hub) Publish(kind string, data any) {
	payload, err := NewEnvelope(kind, data)
	if err != nil {
		h.logger.Error("Erro ao serializar evento WebSocket", "error", err, "type", kind)
		return
	}
	h.enqueue(outbound{data: payload})
}

func (h *Hub) enqueue(msg outbound) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		h.logger.Warn("Fila do hub cheia, evento descartado")
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeWS faz o upgrade da conexão e inicia as goroutines do cliente.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn)

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	hello, err := json.Marshal(Envelope{
		Type:      TypeConnected,
		Message:   "Conectado ao servidor WebSocket",
		Timestamp: now(),
	})
	if err == nil {
		h.enqueue(outbound{data: hello, target: client})
	}

	go client.writePump()
	go client.readPump()

	return nil
}
