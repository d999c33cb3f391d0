// Package editor bridges an opaque editing widget to the relay's code
// events. The widget only needs to deliver "text changed" notifications
// and accept "set text" commands; everything else lives here.
package editor

import (
	"sync"
	"time"
)

const (
	// DefaultDebounce batches bursts of keystrokes into one codeChange.
	DefaultDebounce = 300 * time.Millisecond

	// typingInterval bounds how often a typing notice goes out. The 2s
	// expiry of the indicator is applied purely on the receiving side.
	typingInterval = time.Second
)

// Bridge translates local edits into debounced outgoing changes and
// inbound updates into editor content, suppressing feedback loops: text
// the bridge itself applied is never re-emitted as a local change.
type Bridge struct {
	mu sync.Mutex

	send   func(text string)
	typing func()
	apply  func(text string)

	debounce time.Duration
	timer    *time.Timer
	pending  string
	dirty    bool

	lastApplied string
	hasApplied  bool
	lastTyping  time.Time
}

// New creates a bridge. send delivers a codeChange to the relay, typing a
// typing notice, and apply pushes remote text into the editing widget.
func New(send func(text string), typing func(), apply func(text string)) *Bridge {
	return &Bridge{
		send:     send,
		typing:   typing,
		apply:    apply,
		debounce: DefaultDebounce,
	}
}

// SetDebounce overrides the debounce window; zero sends every edit
// immediately. Tests use this.
func (b *Bridge) SetDebounce(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.debounce = d
}

// HandleLocalEdit is called by the editing widget on every content change.
// Changes that merely echo a remote apply are dropped.
func (b *Bridge) HandleLocalEdit(text string) {
	b.mu.Lock()

	if b.hasApplied && text == b.lastApplied {
		b.mu.Unlock()
		return
	}
	b.hasApplied = false

	notify := time.Since(b.lastTyping) >= typingInterval
	if notify {
		b.lastTyping = time.Now()
	}

	b.pending = text
	if b.debounce <= 0 {
		b.dirty = false
		send := b.send
		b.mu.Unlock()
		if notify {
			b.typing()
		}
		send(text)
		return
	}

	if !b.dirty {
		b.dirty = true
		b.timer = time.AfterFunc(b.debounce, b.flush)
	} else {
		b.timer.Reset(b.debounce)
	}
	b.mu.Unlock()

	if notify {
		b.typing()
	}
}

func (b *Bridge) flush() {
	b.mu.Lock()
	if !b.dirty {
		b.mu.Unlock()
		return
	}
	b.dirty = false
	text := b.pending
	b.mu.Unlock()

	b.send(text)
}

// Flush sends any pending change immediately.
func (b *Bridge) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.flush()
}

// ApplyRemote writes an inbound codeUpdate into the editor,
// unconditionally: last writer wins, no merge.
func (b *Bridge) ApplyRemote(text string) {
	b.mu.Lock()
	// A remote update supersedes any pending local change of ours that it
	// overwrote; sending ours afterwards would resurrect stale text.
	if b.dirty {
		b.dirty = false
		if b.timer != nil {
			b.timer.Stop()
		}
	}
	b.lastApplied = text
	b.hasApplied = true
	apply := b.apply
	b.mu.Unlock()

	apply(text)
}
