package editor

import (
	"sync"
	"testing"
	"time"
)

// sink records the bridge's outbound calls.
type sink struct {
	mu      sync.Mutex
	sent    []string
	typing  int
	applied []string
}

func (s *sink) send(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
}

func (s *sink) notifyTyping() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing++
}

func (s *sink) apply(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, text)
}

func (s *sink) snapshot() (sent []string, typing int, applied []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...), s.typing, append([]string(nil), s.applied...)
}

func newTestBridge(debounce time.Duration) (*Bridge, *sink) {
	s := &sink{}
	b := New(s.send, s.notifyTyping, s.apply)
	b.SetDebounce(debounce)
	return b, s
}

func TestImmediateModeSendsEveryEdit(t *testing.T) {
	b, s := newTestBridge(0)

	b.HandleLocalEdit("a")
	b.HandleLocalEdit("ab")

	sent, _, _ := s.snapshot()
	if len(sent) != 2 || sent[0] != "a" || sent[1] != "ab" {
		t.Fatalf("sent = %v, want [a ab]", sent)
	}
}

func TestDebounceCollapsesBurstToLastValue(t *testing.T) {
	b, s := newTestBridge(30 * time.Millisecond)

	b.HandleLocalEdit("h")
	b.HandleLocalEdit("he")
	b.HandleLocalEdit("hel")
	b.HandleLocalEdit("hello")

	time.Sleep(80 * time.Millisecond)

	sent, _, _ := s.snapshot()
	if len(sent) != 1 || sent[0] != "hello" {
		t.Fatalf("sent = %v, want exactly [hello]", sent)
	}
}

func TestTypingNotifiedAtMostOncePerInterval(t *testing.T) {
	b, s := newTestBridge(0)

	for i := 0; i < 5; i++ {
		b.HandleLocalEdit("x")
	}

	_, typing, _ := s.snapshot()
	if typing != 1 {
		t.Fatalf("typing notices = %d, want 1 for a burst inside the interval", typing)
	}
}

func TestRemoteEchoIsSuppressed(t *testing.T) {
	b, s := newTestBridge(0)

	b.ApplyRemote("remote text")
	// The widget reports the content change the apply itself caused.
	b.HandleLocalEdit("remote text")

	sent, _, applied := s.snapshot()
	if len(applied) != 1 || applied[0] != "remote text" {
		t.Fatalf("applied = %v", applied)
	}
	if len(sent) != 0 {
		t.Fatalf("echo of a remote apply must not be re-sent, got %v", sent)
	}

	// A genuine edit after the echo still goes out.
	b.HandleLocalEdit("remote text!")
	sent, _, _ = s.snapshot()
	if len(sent) != 1 || sent[0] != "remote text!" {
		t.Fatalf("sent = %v, want [remote text!]", sent)
	}
}

func TestRemoteUpdateCancelsPendingLocalChange(t *testing.T) {
	b, s := newTestBridge(40 * time.Millisecond)

	b.HandleLocalEdit("mine")
	b.ApplyRemote("theirs")

	time.Sleep(100 * time.Millisecond)

	sent, _, applied := s.snapshot()
	if len(sent) != 0 {
		t.Fatalf("superseded local change must not be sent, got %v", sent)
	}
	if len(applied) != 1 || applied[0] != "theirs" {
		t.Fatalf("applied = %v, want [theirs]", applied)
	}
}

func TestFlushSendsPendingImmediately(t *testing.T) {
	b, s := newTestBridge(time.Hour)

	b.HandleLocalEdit("pending")
	b.Flush()

	sent, _, _ := s.snapshot()
	if len(sent) != 1 || sent[0] != "pending" {
		t.Fatalf("sent = %v, want [pending]", sent)
	}

	// Nothing pending: Flush is a no-op.
	b.Flush()
	sent, _, _ = s.snapshot()
	if len(sent) != 1 {
		t.Fatalf("second flush resent: %v", sent)
	}
}
