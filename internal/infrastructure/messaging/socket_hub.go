package messaging

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// Command is one editor operation received over the socket.
type Command struct {
	ID     string          `json:"id,omitempty"`
	Op     string          `json:"op"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Reply answers a Command, or carries a pushed event when Event is set.
type Reply struct {
	ID      string `json:"id,omitempty"`
	Event   string `json:"event,omitempty"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// CommandHandler executes a socket command against a session.
type CommandHandler func(ctx context.Context, sessionID string, cmd Command) (any, error)

// SocketClient represents a single connected editor socket.
type SocketClient struct {
	Conn      *websocket.Conn
	SessionID string
	Send      chan []byte
}

// SocketHub tracks socket clients per session, dispatches their commands and
// pushes session events to them.
type SocketHub struct {
	sessionClients map[string]map[*SocketClient]bool
	register       chan *SocketClient
	unregister     chan *SocketClient
	done           chan struct{}
	readLimit      int64
	logger         *logging.ChanneledLogger
	mu             sync.RWMutex
}

func NewSocketHub(logger *logging.ChanneledLogger) *SocketHub {
	return &SocketHub{
		sessionClients: make(map[string]map[*SocketClient]bool),
		register:       make(chan *SocketClient),
		unregister:     make(chan *SocketClient),
		done:           make(chan struct{}),
		readLimit:      maxMessageSize,
		logger:         logger,
	}
}

// SetReadLimit caps the size of one inbound command. Call it before Run.
func (h *SocketHub) SetReadLimit(n int64) {
	if n > 0 {
		h.readLimit = n
	}
}

// Run processes registrations until ctx is done. Run it as a goroutine.
func (h *SocketHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.sessionClients[client.SessionID]; !ok {
				h.sessionClients[client.SessionID] = make(map[*SocketClient]bool)
			}
			h.sessionClients[client.SessionID][client] = true
			h.mu.Unlock()
			h.logger.SSE().Debug("Socket client registered", "sessionId", client.SessionID)

		case client := <-h.unregister:
			h.remove(client)

		case <-ctx.Done():
			h.mu.RLock()
			for _, clients := range h.sessionClients {
				for client := range clients {
					client.Conn.Close()
				}
			}
			h.mu.RUnlock()
			return
		}
	}
}

func (h *SocketHub) remove(client *SocketClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.sessionClients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
		if len(clients) == 0 {
			delete(h.sessionClients, client.SessionID)
		}
	}
	h.logger.SSE().Debug("Socket client unregistered", "sessionId", client.SessionID)
}

// Serve registers conn for sessionID, runs handler for each received command
// and blocks until the connection ends.
func (h *SocketHub) Serve(ctx context.Context, conn *websocket.Conn, sessionID string, handler CommandHandler) {
	client := &SocketClient{Conn: conn, SessionID: sessionID, Send: make(chan []byte, 64)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go h.writePump(client)
	h.readPump(ctx, client, handler)
}

// ConnectionCount reports the open sockets of a session.
func (h *SocketHub) ConnectionCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessionClients[sessionID])
}

// Publish pushes an event to every socket of the session.
func (h *SocketHub) Publish(sessionID, event string, payload any) {
	message, err := json.Marshal(Reply{Event: event, OK: true, Payload: payload})
	if err != nil {
		h.logger.SSE().Error("Failed to marshal socket event", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.sessionClients[sessionID] {
		select {
		case client.Send <- message:
		default:
		}
	}
}

func (h *SocketHub) readPump(ctx context.Context, client *SocketClient, handler CommandHandler) {
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
		client.Conn.Close()
	}()
	client.Conn.SetReadLimit(h.readLimit)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := client.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.SSE().Warn("Socket read failed", "sessionId", client.SessionID, "error", err)
			}
			return
		}
		reply := Reply{ID: cmd.ID, OK: true}
		payload, err := handler(ctx, client.SessionID, cmd)
		if err != nil {
			reply.OK = false
			reply.Error = err.Error()
		} else {
			reply.Payload = payload
		}
		message, err := json.Marshal(reply)
		if err != nil {
			h.logger.SSE().Error("Failed to marshal socket reply", "op", cmd.Op, "error", err)
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.logger.SSE().Warn("Socket send buffer full, reply dropped", "sessionId", client.SessionID, "op", cmd.Op)
		}
	}
}

func (h *SocketHub) writePump(client *SocketClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
