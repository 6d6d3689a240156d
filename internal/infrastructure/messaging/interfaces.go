// Package messaging defines interfaces for real-time communication.
package messaging

// Publisher delivers a named event for one editor session to every
// connected client of that session.
type Publisher interface {
	Publish(sessionID, event string, payload any)
}

// Broadcaster manages SSE client connections per editor session.
type Broadcaster interface {
	Publisher
	AddClient(sessionID string) chan string
	RemoveClient(ch chan string, sessionID string)
	ConnectionCount(sessionID string) int
}

// Fanout publishes every event to each of its publishers.
type Fanout []Publisher

func (f Fanout) Publish(sessionID, event string, payload any) {
	for _, p := range f {
		if p != nil {
			p.Publish(sessionID, event, payload)
		}
	}
}
