// Package messaging provides the concrete SSE broadcaster and websocket hub.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
)

// SSEBroadcaster manages session-scoped SSE connections.
type SSEBroadcaster struct {
	sessions map[string][]chan string // sessionId -> []channels
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	return &SSEBroadcaster{
		sessions: make(map[string][]chan string),
		logger:   logger,
	}
}

// AddClient registers a new SSE client for a session.
func (b *SSEBroadcaster) AddClient(sessionID string) chan string {
	ch := make(chan string, 32)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[sessionID] = append(b.sessions[sessionID], ch)
	b.logger.SSE().Debug("SSE client registered", "sessionId", sessionID)
	return ch
}

// RemoveClient unregisters an SSE client and closes its channel.
func (b *SSEBroadcaster) RemoveClient(ch chan string, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients, exists := b.sessions[sessionID]
	if !exists {
		return
	}
	kept := make([]chan string, 0, len(clients))
	for _, client := range clients {
		if client == ch {
			close(client)
			continue
		}
		kept = append(kept, client)
	}
	if len(kept) == 0 {
		delete(b.sessions, sessionID)
	} else {
		b.sessions[sessionID] = kept
	}
	b.logger.SSE().Debug("SSE client unregistered", "sessionId", sessionID)
}

func (b *SSEBroadcaster) ConnectionCount(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}

// Publish formats an SSE frame and offers it to every client of the session.
// Slow clients drop messages instead of blocking the editor.
func (b *SSEBroadcaster) Publish(sessionID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.SSE().Error("Failed to marshal event", "event", event, "sessionId", sessionID, "error", err)
		return
	}
	message := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.sessions[sessionID] {
		select {
		case ch <- message:
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped", "event", event, "sessionId", sessionID)
		}
	}
}
