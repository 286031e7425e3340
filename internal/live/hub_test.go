package live

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(nil, []string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + room
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, body, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(body, &msg))
	return msg
}

func TestHub_PublishReachesRoomAndLobby(t *testing.T) {
	hub, srv := startHub(t)
	id := uuid.New()

	room := dial(t, srv, id.String())
	lobby := dial(t, srv, LobbyRoom)
	require.Eventually(t, func() bool {
		return hub.ClientCount(id.String()) == 1 && hub.ClientCount(LobbyRoom) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(id, "tournament.started", map[string]int{"round": 1})

	for _, conn := range []*websocket.Conn{room, lobby} {
		msg := readMessage(t, conn)
		assert.Equal(t, "tournament.started", msg.Type)
		assert.Equal(t, id, msg.TournamentID)
		assert.Equal(t, map[string]any{"round": float64(1)}, msg.Payload)
	}
}

func TestHub_OtherRoomsAreIsolated(t *testing.T) {
	hub, srv := startHub(t)
	watched, other := uuid.New(), uuid.New()

	conn := dial(t, srv, watched.String())
	require.Eventually(t, func() bool { return hub.ClientCount(watched.String()) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(other, "match.finished", nil)
	hub.Publish(watched, "round.started", nil)

	msg := readMessage(t, conn)
	assert.Equal(t, "round.started", msg.Type)
	assert.Equal(t, watched, msg.TournamentID)
}

func TestHub_ClientLeaves(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, LobbyRoom)
	require.Eventually(t, func() bool { return hub.ClientCount(LobbyRoom) == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount(LobbyRoom) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	hub := NewHub(nil, []string{"https://tourney.example"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, LobbyRoom)
	}))
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_PublishSkipsEncodingWithoutListeners(t *testing.T) {
	var logs bytes.Buffer
	hub := NewHub(slog.New(slog.NewTextHandler(&logs, nil)), []string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, LobbyRoom)
	}))
	defer srv.Close()

	unencodable := map[string]any{"ch": make(chan int)}

	hub.Publish(uuid.New(), "match.finished", unencodable)
	assert.Empty(t, logs.String())

	dial(t, srv, LobbyRoom)
	require.Eventually(t, func() bool { return hub.ClientCount(LobbyRoom) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(uuid.New(), "match.finished", unencodable)
	assert.Contains(t, logs.String(), "failed to marshal live event")
}
