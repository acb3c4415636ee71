// Package observe streams NPC synchronisation events to debug viewers over
// websocket. Viewers are read-only; anything they send is discarded.
package observe

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/npcai/internal/config"
	"github.com/l1jgo/npcai/internal/core/event"
	"go.uber.org/zap"
)

const (
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message is the JSON frame sent to viewers.
type Message struct {
	Type      string `json:"type"` // "sync", "despawn", "respawn"
	ID        uint64 `json:"id"`
	NpcID     int32  `json:"npc_id"`
	X         int32  `json:"x"`
	Y         int32  `json:"y"`
	MapID     int16  `json:"map_id"`
	Status    uint8  `json:"status,omitempty"`
	Animation uint8  `json:"anim,omitempty"`
	Mask      uint8  `json:"mask,omitempty"`
	At        int64  `json:"at"` // unix ms
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans NPC events out to connected viewers. Broadcast never blocks the
// game loop: a viewer whose queue is full is disconnected.
type Hub struct {
	mu        sync.Mutex
	clients   map[*client]struct{}
	queue     int
	writeWait time.Duration
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

func NewHub(cfg config.ObserverConfig, log *zap.Logger) *Hub {
	queue := cfg.SendQueue
	if queue <= 0 {
		queue = 256
	}
	writeWait := cfg.WriteWait
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}
	return &Hub{
		clients:   make(map[*client]struct{}),
		queue:     queue,
		writeWait: writeWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Attach subscribes the hub to NPC lifecycle events on bus.
func (h *Hub) Attach(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.NpcSynced) {
		h.publish(Message{
			Type: "sync", ID: uint64(ev.ID), NpcID: ev.NpcID, X: ev.X, Y: ev.Y, MapID: ev.MapID,
			Status: ev.Status, Animation: ev.Animation, Mask: ev.Mask, At: ev.At.UnixMilli(),
		})
	})
	event.Subscribe(bus, func(ev event.NpcDespawned) {
		h.publish(Message{
			Type: "despawn", ID: uint64(ev.ID), NpcID: ev.NpcID, X: ev.X, Y: ev.Y, MapID: ev.MapID,
			At: ev.At.UnixMilli(),
		})
	})
	event.Subscribe(bus, func(ev event.NpcRespawned) {
		h.publish(Message{
			Type: "respawn", ID: uint64(ev.ID), NpcID: ev.NpcID, X: ev.X, Y: ev.Y, MapID: ev.MapID,
			At: ev.At.UnixMilli(),
		})
	})
}

func (h *Hub) publish(m Message) {
	if h.Count() == 0 {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		h.log.Warn("observer marshal failed", zap.Error(err))
		return
	}
	h.Broadcast(data)
}

// Broadcast queues data for every viewer.
func (h *Hub) Broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Debug("observer too slow, dropping", zap.String("addr", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers a viewer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("observer upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, h.queue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("observer connected", zap.String("addr", conn.RemoteAddr().String()))

	go h.writePump(c)
	go h.readPump(c)
}

// Close disconnects every viewer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readPump only exists to notice disconnects and answer pings.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
