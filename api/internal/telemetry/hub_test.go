package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emotioncrypt/api/internal/core/domain"
)

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe()
	b := hub.Subscribe()

	event := Event{
		Kind:            "encrypt",
		ShortText:       "aB3$xY9!kL2@mN5%",
		PrimaryEmotions: []domain.EmotionLabel{domain.Joy},
		Method:          "AES-256-GCM-PBKDF2",
		At:              time.Now(),
	}
	hub.Broadcast(event)

	for name, ch := range map[string]chan Event{"a": a, "b": b} {
		select {
		case got := <-ch:
			assert.Equal(t, event.ShortText, got.ShortText, "subscriber %s", name)
			assert.Equal(t, "encrypt", got.Kind)
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s never received the event", name)
		}
	}
}

func TestHub_Unsubscribe_ClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open, "unsubscribed channel must be closed")

	// Broadcasting after unsubscribe must not panic on the closed channel.
	hub.Broadcast(Event{Kind: "decrypt"})
}

func TestHub_SlowSubscriber_DropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()

	// Fill well past the buffer; Broadcast must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			hub.Broadcast(Event{Kind: "encrypt"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a slow subscriber")
	}

	// The buffer holds what fit; the rest was dropped.
	require.Equal(t, 100, len(ch))
}
