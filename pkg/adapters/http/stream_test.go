package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/promptflow/internal/logging"
	"github.com/aretw0/promptflow/pkg/domain"
	"github.com/aretw0/promptflow/pkg/store"
)

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(logging.NewNop())

	ch, cancel := sm.Subscribe("demo")
	other, cancelOther := sm.Subscribe("other")
	defer cancelOther()
	assert.Equal(t, 1, sm.Subscribers("demo"))

	sm.Broadcast("demo", []byte("hello"))
	assert.Equal(t, []byte("hello"), <-ch)
	assert.Empty(t, other, "other flows see nothing")

	t.Run("Slow Client Drops", func(t *testing.T) {
		for i := 0; i < streamBuffer+5; i++ {
			sm.Broadcast("demo", []byte("x"))
		}
		assert.Len(t, ch, streamBuffer)
	})

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("demo"))
	for range ch {
	}
	sm.Broadcast("demo", []byte("late"))
}

func TestSubscribeEvents(t *testing.T) {
	srv, manager := newTestServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/flows/demo/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, manager.Update(context.Background(), "demo", func(s *store.Store) error {
		s.AddNode()
		return nil
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev domain.ChangeEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, domain.ChangeMutation, ev.Type)
	assert.Equal(t, "add_node", ev.Op)
	require.NotNil(t, ev.Diff)
	assert.Equal(t, []string{"id-1"}, ev.Diff.AddedNodes)
}

func TestSubscribeEvents_InvalidName(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, "GET", "/flows/.hidden/events", "")
	assert.Equal(t, 400, w.Code)
}
