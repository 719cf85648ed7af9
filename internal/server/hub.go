package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub broadcasts Events to every connected websocket client, replacing the
// teacher's single-process Wails runtime.EventsEmit push with a
// gorilla/websocket fan-out so any number of UI collaborators can observe
// the same stream (spec §6 "Events emitted").
type Hub struct {
	log *logrus.Entry

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

// NewHub constructs an empty Hub.
func NewHub(log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		log:     log.WithField("component", "server.hub"),
		clients: make(map[*websocket.Conn]chan Event),
	}
}

// Broadcast fans out ev to every connected client. A client whose send
// buffer is full is dropped rather than blocking the publisher — the
// Resolver's tick loop must never stall on a slow reader.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			h.log.Warn("dropping client: send buffer full")
			delete(h.clients, conn)
			close(ch)
			conn.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request to a websocket connection and streams
// Events to it until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	ch := make(chan Event, 64)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	h.log.Debug("client connected")

	go h.drainInbound(conn)

	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			h.log.WithError(err).Error("marshalling event")
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.removeClient(conn)
			return
		}
	}
}

// drainInbound discards any messages the client sends (this is a
// push-only stream) and removes the client once it disconnects.
func (h *Hub) drainInbound(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.removeClient(conn)
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	conn.Close()
}
