package server

import (
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const subscriberBuffer = 16

// Hub fans table snapshots out to WebSocket subscribers. Subscribers are
// grouped per table; a subscriber that cannot keep up is dropped rather
// than allowed to block the broadcast path.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscriber]bool
}

type subscriber struct {
	send chan []byte
}

// NewHub returns a Hub ready for use.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.WithPrefix("hub"),
		subs:   make(map[string]map[*subscriber]bool),
	}
}

// Broadcast sends payload to every subscriber of the table. It never
// blocks: full subscriber buffers cause the message to be dropped for
// that subscriber.
func (h *Hub) Broadcast(tableID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[tableID] {
		select {
		case sub.send <- payload:
		default:
		}
	}
}

// CloseTable disconnects every subscriber of the table.
func (h *Hub) CloseTable(tableID string) {
	h.mu.Lock()
	subs := h.subs[tableID]
	delete(h.subs, tableID)
	h.mu.Unlock()

	for sub := range subs {
		close(sub.send)
	}
}

// Subscribers reports the subscriber count for a table.
func (h *Hub) Subscribers(tableID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[tableID])
}

// ServeWS upgrades the request and streams table broadcasts until the
// client disconnects or the table is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, tableID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "table", tableID, "error", err)
		return
	}

	sub := &subscriber{send: make(chan []byte, subscriberBuffer)}
	h.add(tableID, sub)
	h.logger.Info("subscriber joined", "table", tableID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.remove(tableID, sub)
		conn.Close()
		h.logger.Info("subscriber left", "table", tableID)
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "table closed"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Hub) add(tableID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[tableID] == nil {
		h.subs[tableID] = make(map[*subscriber]bool)
	}
	h.subs[tableID][sub] = true
}

func (h *Hub) remove(tableID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[tableID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, tableID)
		}
	}
}
