package ws

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// gzipThreshold is the frame size above which outbound payloads are
// compressed for clients that opted in.
const gzipThreshold = 512

// ClientConn is the slice of a websocket connection the hub needs. The
// transport's *websocket.Conn satisfies it; tests inject recorders.
type ClientConn interface {
	WriteMessage(messageType int, data []byte) error
}

// ClientConnection wraps a connection with its hub metadata.
type ClientConnection struct {
	Conn         ClientConn
	ConnID       string
	SupportsGzip bool
}

// Hub is the outbound side of the transport: a registry of writable
// connections keyed by connection id. It carries no domain state; audiences
// are computed by the router and handed in as connection id lists.
type Hub struct {
	clients    map[string]*ClientConnection
	clientsMux sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*ClientConnection)}
}

func (h *Hub) Register(connID string, conn ClientConn, supportsGzip bool) {
	h.clientsMux.Lock()
	h.clients[connID] = &ClientConnection{Conn: conn, ConnID: connID, SupportsGzip: supportsGzip}
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("Connection %s registered (total: %d, gzip: %v)", connID, count, supportsGzip)
}

func (h *Hub) Unregister(connID string) {
	h.clientsMux.Lock()
	delete(h.clients, connID)
	count := len(h.clients)
	h.clientsMux.Unlock()
	log.Printf("Connection %s unregistered (total: %d)", connID, count)
}

func (h *Hub) IsConnected(connID string) bool {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	_, ok := h.clients[connID]
	return ok
}

func (h *Hub) Count() int {
	h.clientsMux.RLock()
	defer h.clientsMux.RUnlock()
	return len(h.clients)
}

// SendTo delivers one event to one connection. Unknown connections are a
// no-op: the audience may have raced a disconnect.
func (h *Hub) SendTo(connID, eventType string, payload interface{}) error {
	h.clientsMux.RLock()
	client, ok := h.clients[connID]
	h.clientsMux.RUnlock()
	if !ok {
		return nil
	}

	data, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("Error encoding %s for connection %s: %v", eventType, connID, err)
		return err
	}
	return h.write(client, data)
}

// SendToConns delivers one event to an explicit audience.
func (h *Hub) SendToConns(connIDs []string, eventType string, payload interface{}) {
	data, err := Encode(eventType, payload)
	if err != nil {
		log.Printf("Error encoding %s: %v", eventType, err)
		return
	}

	h.clientsMux.RLock()
	targets := make([]*ClientConnection, 0, len(connIDs))
	for _, id := range connIDs {
		if client, ok := h.clients[id]; ok {
			targets = append(targets, client)
		}
	}
	h.clientsMux.RUnlock()

	for _, client := range targets {
		if err := h.write(client, data); err != nil {
			log.Printf("Error sending %s to connection %s: %v", eventType, client.ConnID, err)
		}
	}
}

// Broadcast delivers one event to every registered connection.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	h.clientsMux.RLock()
	connIDs := make([]string, 0, len(h.clients))
	for id := range h.clients {
		connIDs = append(connIDs, id)
	}
	h.clientsMux.RUnlock()
	h.SendToConns(connIDs, eventType, payload)
}

// write sends a frame, gzip-compressed as a binary frame when the client
// opted in and compression actually helps.
func (h *Hub) write(client *ClientConnection, data []byte) error {
	frameType := websocket.TextMessage
	if client.SupportsGzip && len(data) > gzipThreshold {
		if compressed, err := compressData(data); err == nil && len(compressed) < len(data) {
			return client.Conn.WriteMessage(websocket.BinaryMessage, compressed)
		}
	}
	return client.Conn.WriteMessage(frameType, data)
}

func compressData(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressMessage inflates a gzip-compressed inbound binary frame.
func DecompressMessage(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
