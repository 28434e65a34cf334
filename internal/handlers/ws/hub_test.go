package ws

import (
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/websocket/v2"
)

// rawConn records frames without decoding, so frame types are observable.
type rawConn struct {
	mu     sync.Mutex
	frames []struct {
		messageType int
		data        []byte
	}
}

func (r *rawConn) WriteMessage(messageType int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, struct {
		messageType int
		data        []byte
	}{messageType, data})
	return nil
}

func TestSendToUnknownConnIsNoop(t *testing.T) {
	h := NewHub()
	if err := h.SendTo("ghost", "error", nil); err != nil {
		t.Fatalf("SendTo: %v", err)
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub()
	h.Register("c1", &rawConn{}, false)
	if !h.IsConnected("c1") || h.Count() != 1 {
		t.Fatalf("connected=%v count=%d", h.IsConnected("c1"), h.Count())
	}
	h.Unregister("c1")
	if h.IsConnected("c1") || h.Count() != 0 {
		t.Fatalf("connected=%v count=%d", h.IsConnected("c1"), h.Count())
	}
}

func TestSmallFramesStayText(t *testing.T) {
	h := NewHub()
	conn := &rawConn{}
	h.Register("c1", conn, true)

	if err := h.SendTo("c1", "ping", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("SendTo: %v", err)
	}
	if len(conn.frames) != 1 || conn.frames[0].messageType != websocket.TextMessage {
		t.Fatalf("frames = %+v", conn.frames)
	}
}

func TestLargeFramesCompressForOptedInClients(t *testing.T) {
	h := NewHub()
	gz := &rawConn{}
	plain := &rawConn{}
	h.Register("gz", gz, true)
	h.Register("plain", plain, false)

	payload := map[string]string{"body": strings.Repeat("compressible ", 200)}
	h.SendToConns([]string{"gz", "plain"}, "new_message", payload)

	if len(gz.frames) != 1 || gz.frames[0].messageType != websocket.BinaryMessage {
		t.Fatalf("gzip client frames = %+v", gz.frames)
	}
	if len(plain.frames) != 1 || plain.frames[0].messageType != websocket.TextMessage {
		t.Fatalf("plain client frames = %+v", plain.frames)
	}

	// The binary frame inflates back to the text frame's bytes.
	inflated, err := DecompressMessage(gz.frames[0].data)
	if err != nil {
		t.Fatalf("DecompressMessage: %v", err)
	}
	if string(inflated) != string(plain.frames[0].data) {
		t.Errorf("inflated frame differs from plain frame")
	}
}

func TestBroadcastReachesAll(t *testing.T) {
	h := NewHub()
	conns := []*rawConn{{}, {}, {}}
	for i, c := range conns {
		h.Register(string(rune('a'+i)), c, false)
	}
	h.Broadcast("online_users", []string{})
	for i, c := range conns {
		if len(c.frames) != 1 {
			t.Errorf("conn %d got %d frames", i, len(c.frames))
		}
	}
}
