package speak_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	speak "github.com/speaklabs/go-speak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// echoPresenceServer upgrades connections and answers a user_online
// announcement with a single-entry roster broadcast.
func echoPresenceServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			frame := wsFrame{}
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Event != speak.EventUserOnline {
				continue
			}

			roster, _ := json.Marshal([]json.RawMessage{frame.Data})
			if err := conn.WriteJSON(wsFrame{Event: speak.EventOnlineUsers, Data: roster}); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketChannelRoundTrip(t *testing.T) {
	srv := echoPresenceServer(t)
	defer srv.Close()

	channel := speak.NewWebsocketChannel(wsURL(srv))
	require.NoError(t, channel.Open(context.Background()))
	assert.True(t, channel.Connected())

	user := &speak.User{ID: "user-1", Name: "Ada"}
	require.NoError(t, channel.Emit(speak.EventUserOnline, user))

	select {
	case event := <-channel.Events():
		assert.Equal(t, speak.EventOnlineUsers, event.Name)

		var roster []speak.User
		require.NoError(t, json.Unmarshal(event.Data, &roster))
		require.Len(t, roster, 1)
		assert.Equal(t, "Ada", roster[0].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("no roster broadcast received")
	}

	require.NoError(t, channel.Close())
	assert.False(t, channel.Connected())
}

func TestWebsocketChannelOpenIsIdempotent(t *testing.T) {
	srv := echoPresenceServer(t)
	defer srv.Close()

	channel := speak.NewWebsocketChannel(wsURL(srv))
	require.NoError(t, channel.Open(context.Background()))
	require.NoError(t, channel.Open(context.Background()))

	require.NoError(t, channel.Close())
}

func TestWebsocketChannelCloseIsIdempotent(t *testing.T) {
	srv := echoPresenceServer(t)
	defer srv.Close()

	channel := speak.NewWebsocketChannel(wsURL(srv))
	require.NoError(t, channel.Open(context.Background()))

	require.NoError(t, channel.Close())
	assert.NoError(t, channel.Close())

	// a never-opened channel closes cleanly too
	assert.NoError(t, speak.NewWebsocketChannel(wsURL(srv)).Close())
}

func TestWebsocketChannelEmitWhenClosed(t *testing.T) {
	channel := speak.NewWebsocketChannel("ws://127.0.0.1:1")
	assert.ErrorIs(t, channel.Emit(speak.EventUserOnline, nil), speak.ErrChannelClosed)
}

func TestWebsocketChannelDialFailure(t *testing.T) {
	channel := speak.NewWebsocketChannel("ws://127.0.0.1:1")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.Error(t, channel.Open(ctx))
	assert.False(t, channel.Connected())
}

func TestWebsocketChannelClientID(t *testing.T) {
	a := speak.NewWebsocketChannel("ws://example.com")
	b := speak.NewWebsocketChannel("ws://example.com")
	assert.NotEmpty(t, a.ClientID())
	assert.NotEqual(t, a.ClientID(), b.ClientID())
}
