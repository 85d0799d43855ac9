package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/forge-ai/promptforge/shared/events"
)

// Hub fans out events to every connected WebSocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsConn]struct{}
	bc      chan []byte

	// OnCount, when set, is called with the client count after each join or leave.
	OnCount func(clients int)
}

type wsConn struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsConn]struct{}),
		bc:      make(chan []byte, 512),
	}
}

func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return nil
		case msg := <-h.bc:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues env for delivery; it drops the message when the hub is saturated.
func (h *Hub) Broadcast(env *events.Envelope) {
	b, err := json.Marshal(env)
	if err != nil {
		return
	}
	h.BroadcastRaw(b)
}

func (h *Hub) BroadcastRaw(b []byte) {
	select {
	case h.bc <- b:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WS upgrade failed")
		return
	}
	c := &wsConn{conn: conn, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Debug().Str("remote", r.RemoteAddr).Msg("WS connected")
	h.countChanged()

	// write pump
	go func() {
		t := time.NewTicker(30 * time.Second)
		defer func() {
			t.Stop()
			conn.Close()
			h.remove(c)
		}()
		for {
			select {
			case msg, ok := <-c.send:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if conn.WriteMessage(websocket.TextMessage, msg) != nil {
					return
				}
			case <-t.C:
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if conn.WriteMessage(websocket.PingMessage, nil) != nil {
					return
				}
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			conn.Close()
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *wsConn) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.countChanged()
	}
}

func (h *Hub) countChanged() {
	if h.OnCount != nil {
		h.OnCount(h.ClientCount())
	}
}
