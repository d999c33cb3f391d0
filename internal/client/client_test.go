package client

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SubhPanda04/Real-Time-Collaborative-Code-Editor-IDE/internal/protocol"
)

// newRecordingServer accepts one websocket connection and forwards every
// received event onto the returned channel.
func newRecordingServer(t *testing.T) (string, chan *protocol.Message) {
	t.Helper()
	received := make(chan *protocol.Message, 16)
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg protocol.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			received <- &msg
		}
	}))
	t.Cleanup(ts.Close)

	return "ws" + strings.TrimPrefix(ts.URL, "http"), received
}

func TestCloseFlushesQueuedMessages(t *testing.T) {
	url, received := newRecordingServer(t)

	c := NewConn(url)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Queue the farewell and close immediately; the write pump must still
	// deliver it before the close frame.
	c.Emit(protocol.EventLeaveRoom, nil)
	c.Close()

	select {
	case msg := <-received:
		if msg.Event != protocol.EventLeaveRoom {
			t.Fatalf("event = %q, want %q", msg.Event, protocol.EventLeaveRoom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("queued leaveRoom never reached the server")
	}
}

func TestCloseIsConcurrencySafe(t *testing.T) {
	url, _ := newRecordingServer(t)

	c := NewConn(url)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Close()
		}()
	}
	wg.Wait()

	// Emits after close are dropped, never delivered to a dead pump.
	c.Emit(protocol.EventTyping, protocol.TypingPayload{RoomID: "r1"})
}

func TestCloseWithoutConnect(t *testing.T) {
	c := NewConn("ws://localhost:1/ws")
	c.Close()
	c.Close()
}
