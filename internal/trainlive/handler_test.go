package trainlive

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"denseforge/internal/runstore"
)

func TestHandler_ReplaysHistoryOnConnect(t *testing.T) {
	hub := NewHub()
	store := runstore.New()
	store.Append("run-1", 0, 1.0)
	store.Append("run-1", 1, 0.5)

	handler := NewHandler(hub, store, "run-1")
	srv := httptest.NewServer(handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	require.Equal(t, TypeHistory, env.Type)

	var history HistoryPayload
	require.NoError(t, json.Unmarshal(env.Payload, &history))
	require.Len(t, history.Entries, 2)
}
