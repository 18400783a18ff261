package telemetry

import (
	"sync"
	"time"

	"emotioncrypt/api/internal/core/domain"
)

// Event is the plaintext-free record broadcast after each cipher operation.
// It carries the same emotional metadata the envelope exposes and nothing a
// subscriber could use to recover message content.
type Event struct {
	Kind            string                `json:"kind"` // "encrypt" or "decrypt"
	ShortText       string                `json:"short_text"`
	PrimaryEmotions []domain.EmotionLabel `json:"primary_emotions"`
	Method          string                `json:"method"`
	IntegrityOK     *bool                 `json:"integrity_ok,omitempty"`
	At              time.Time             `json:"at"`
}

// Hub fans cipher events out to live subscribers (the WebSocket feed).
type Hub struct {
	mu          sync.RWMutex
	subscribers []chan Event
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a new listener channel.
func (h *Hub) Subscribe() chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 100) // Buffer to prevent slow clients from blocking publishers
	h.subscribers = append(h.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subscribers {
		if sub == ch {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Broadcast delivers an event to every subscriber, dropping it for any
// listener whose buffer is full.
func (h *Hub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
