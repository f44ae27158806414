package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planboardhq/planboard-backend/pkg/config"
)

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := NewHub(config.RealtimeConfig{SendBuffer: 4}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Registration races the broadcast; give the hub loop a beat.
	time.Sleep(50 * time.Millisecond)

	event := Event{Collection: "drivers", Action: "create", EntityID: "d-1", Version: 3}
	payload, err := event.Encode()
	require.NoError(t, err)
	hub.Broadcast(payload)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"collection":"drivers","action":"create","entityId":"d-1","version":3}`, string(msg))
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(config.RealtimeConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server should close the connection on shutdown")
}

func TestHubChannelsReleaseAfterShutdown(t *testing.T) {
	hub := NewHub(config.RealtimeConfig{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	// With the run loop gone, the read pump's departure and any late
	// broadcasts have no receiver; both must still return.
	require.NoError(t, conn.Close())

	released := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Broadcast([]byte("late"))
		}
		close(released)
	}()
	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("hub send must not block after shutdown")
	}
}
