package logging

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// LogEntry represents a single log entry to be sent to the client.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// StreamClient is one live log subscriber.
type StreamClient struct {
	Entries chan LogEntry
	channel Channel
	level   slog.Level
}

// LogBroadcaster fans log records out to live subscribers. Slow subscribers
// drop entries rather than block logging.
type LogBroadcaster struct {
	mu      sync.RWMutex
	clients map[*StreamClient]struct{}
}

func NewLogBroadcaster() *LogBroadcaster {
	return &LogBroadcaster{clients: make(map[*StreamClient]struct{})}
}

// Subscribe registers a client filtered by channel ("all" for every channel)
// and minimum level.
func (b *LogBroadcaster) Subscribe(channel Channel, level slog.Level) *StreamClient {
	client := &StreamClient{
		Entries: make(chan LogEntry, 100),
		channel: channel,
		level:   level,
	}
	b.mu.Lock()
	b.clients[client] = struct{}{}
	b.mu.Unlock()
	return client
}

func (b *LogBroadcaster) Unsubscribe(client *StreamClient) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.Entries)
	}
}

// Publish delivers an entry to every matching client without blocking.
func (b *LogBroadcaster) Publish(entry LogEntry) {
	var level slog.Level
	_ = level.UnmarshalText([]byte(entry.Level))

	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		if client.channel != "all" && client.channel != Channel(entry.Channel) {
			continue
		}
		if level < client.level {
			continue
		}
		select {
		case client.Entries <- entry:
		default:
		}
	}
}

// StreamWriter is an io.Writer that parses JSON log lines and publishes them.
type StreamWriter struct {
	broadcaster *LogBroadcaster
}

func NewStreamWriter(b *LogBroadcaster) *StreamWriter {
	return &StreamWriter{broadcaster: b}
}

func (w *StreamWriter) Write(p []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return len(p), nil
	}
	w.broadcaster.Publish(LogEntry{
		Timestamp: stringField(raw, "time"),
		Level:     stringField(raw, "level"),
		Channel:   stringField(raw, "channel"),
		Message:   stringField(raw, "msg"),
		SessionID: stringField(raw, "sessionId"),
	})
	return len(p), nil
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
