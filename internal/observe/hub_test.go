package observe

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/npcai/internal/config"
	"github.com/l1jgo/npcai/internal/core/event"
	"go.uber.org/zap"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for h.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Count() != 1 {
		t.Fatal("viewer never registered")
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

func TestHubStreamsNpcEvents(t *testing.T) {
	h := NewHub(config.ObserverConfig{SendQueue: 8, WriteWait: time.Second}, zap.NewNop())
	defer h.Close()
	bus := event.NewBus()
	h.Attach(bus)
	conn := dial(t, h)

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	event.Emit(bus, event.NpcDespawned{ID: 9, NpcID: 45000, X: 3, Y: 4, MapID: 4, At: at})
	bus.SwapBuffers()
	bus.DispatchAll()

	m := readMessage(t, conn)
	if m.Type != "despawn" || m.ID != 9 || m.NpcID != 45000 || m.X != 3 || m.Y != 4 || m.At != at.UnixMilli() {
		t.Fatalf("unexpected message %+v", m)
	}

	event.Emit(bus, event.NpcSynced{ID: 9, NpcID: 45000, Status: 2, Mask: 0x10, At: at})
	bus.SwapBuffers()
	bus.DispatchAll()
	m = readMessage(t, conn)
	if m.Type != "sync" || m.Status != 2 || m.Mask != 0x10 {
		t.Fatalf("unexpected sync %+v", m)
	}
}

func TestHubDropsViewerOnDisconnect(t *testing.T) {
	h := NewHub(config.ObserverConfig{}, zap.NewNop())
	defer h.Close()
	conn := dial(t, h)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Count() != 0 {
		t.Fatal("closed viewer still registered")
	}
}

func TestPublishWithoutViewersIsNoop(t *testing.T) {
	h := NewHub(config.ObserverConfig{}, zap.NewNop())
	h.Broadcast([]byte("x"))
	h.publish(Message{Type: "sync"})
	if h.Count() != 0 {
		t.Fatal("count changed")
	}
}
