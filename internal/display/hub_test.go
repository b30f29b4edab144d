package display

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsRefresh(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := hub.AddClient("a")
	b := hub.AddClient("b")
	require.Equal(t, 2, hub.ActiveCount())

	require.NoError(t, hub.ContentChanged(context.Background()))

	assert.Equal(t, RefreshMessage, <-a)
	assert.Equal(t, RefreshMessage, <-b)
}

func TestHubRemoveClientClosesChannel(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ch := hub.AddClient("a")

	hub.RemoveClient("a")
	hub.RemoveClient("a")

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ActiveCount())
	assert.Equal(t, 0, hub.Broadcast(RefreshMessage))
}

func TestHubSkipsFullQueues(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := hub.AddClient("slow")

	for i := 0; i < clientBuffer; i++ {
		require.Equal(t, 1, hub.Broadcast(RefreshMessage))
	}
	assert.Equal(t, 0, hub.Broadcast(RefreshMessage))
	assert.Len(t, slow, clientBuffer)
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ch := hub.AddClient("a")

	hub.Shutdown()

	_, ok := <-ch
	assert.False(t, ok)

	late := hub.AddClient("b")
	_, ok = <-late
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ActiveCount())
}

func TestRelayHandlesOnlyRefresh(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ch := hub.AddClient("a")
	relay := NewRedisRelay(nil, "signage:refresh", hub, zerolog.Nop())

	relay.handle(context.Background(), "something else")
	assert.Len(t, ch, 0)

	relay.handle(context.Background(), RefreshMessage)
	assert.Equal(t, RefreshMessage, <-ch)
}
