// Package display keeps track of connected displays and tells them to reload
// when content changes.
package display

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bilgisen/signage/internal/metrics"
)

// RefreshMessage is sent to displays that must reload their content
const RefreshMessage = "REFRESH"

// clientBuffer bounds the messages queued for a slow display
const clientBuffer = 8

// Notifier is told when displayed content changed
type Notifier interface {
	ContentChanged(ctx context.Context) error
}

// Hub fans messages out to every connected display
type Hub struct {
	sync.RWMutex
	clients map[string]chan string
	closed  bool
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]chan string),
		log:     log.With().Str("component", "display").Logger(),
	}
}

// AddClient registers a display under key and returns the channel its
// messages are delivered on. The channel is closed by RemoveClient.
func (h *Hub) AddClient(key string) <-chan string {
	h.Lock()
	defer h.Unlock()

	ch := make(chan string, clientBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	if old, ok := h.clients[key]; ok {
		close(old)
	}
	h.clients[key] = ch
	metrics.DisplayConnections.Set(float64(len(h.clients)))

	h.log.Info().
		Str("key", key).
		Int("count", len(h.clients)).
		Msg("Display connected")
	return ch
}

// RemoveClient unregisters the display and closes its channel
func (h *Hub) RemoveClient(key string) {
	h.Lock()
	defer h.Unlock()

	ch, ok := h.clients[key]
	if !ok {
		return
	}
	close(ch)
	delete(h.clients, key)
	metrics.DisplayConnections.Set(float64(len(h.clients)))

	h.log.Info().
		Str("key", key).
		Int("count", len(h.clients)).
		Msg("Display disconnected")
}

// Broadcast queues msg for every display. Displays whose queue is full miss
// the message instead of blocking the others.
func (h *Hub) Broadcast(msg string) int {
	h.RLock()
	defer h.RUnlock()

	sent := 0
	for key, ch := range h.clients {
		select {
		case ch <- msg:
			sent++
		default:
			h.log.Warn().Str("key", key).Msg("Display queue full, skipping message")
		}
	}
	return sent
}

// ContentChanged broadcasts RefreshMessage to the local displays
func (h *Hub) ContentChanged(context.Context) error {
	sent := h.Broadcast(RefreshMessage)
	metrics.RefreshBroadcasts.Inc()
	h.log.Info().Int("displays", sent).Msg("Refresh broadcast")
	return nil
}

// ActiveCount returns the number of connected displays
func (h *Hub) ActiveCount() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

// Shutdown disconnects every display. Later AddClient calls get a closed
// channel.
func (h *Hub) Shutdown() {
	h.Lock()
	defer h.Unlock()

	h.log.Info().Int("count", len(h.clients)).Msg("Shutting down display hub")
	for key, ch := range h.clients {
		close(ch)
		delete(h.clients, key)
	}
	h.closed = true
	metrics.DisplayConnections.Set(0)
}
