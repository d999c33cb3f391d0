package relay

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values map[string][]int
}

func (r *recorder) record(key string, v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = append(r.values[key], v)
}

func (r *recorder) get(key string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values[key]...)
}

func TestCoalescerFirstOfferEmitsImmediately(t *testing.T) {
	rec := &recorder{values: make(map[string][]int)}
	c := NewCoalescer(50*time.Millisecond, rec.record)

	c.Offer("a", 1)

	if got := rec.get("a"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("expected immediate emission [1], got %v", got)
	}
}

func TestCoalescerCollapsesBurstToLatest(t *testing.T) {
	rec := &recorder{values: make(map[string][]int)}
	c := NewCoalescer(40*time.Millisecond, rec.record)

	c.Offer("a", 1)
	c.Offer("a", 2)
	c.Offer("a", 3)
	c.Offer("a", 4)

	time.Sleep(100 * time.Millisecond)

	got := rec.get("a")
	if len(got) != 2 {
		t.Fatalf("expected 2 emissions for the burst, got %v", got)
	}
	if got[0] != 1 || got[1] != 4 {
		t.Errorf("expected first and latest values [1 4], got %v", got)
	}
}

func TestCoalescerKeysAreIndependent(t *testing.T) {
	rec := &recorder{values: make(map[string][]int)}
	c := NewCoalescer(40*time.Millisecond, rec.record)

	c.Offer("a", 1)
	c.Offer("b", 2)

	if got := rec.get("a"); len(got) != 1 {
		t.Errorf("key a throttled by key b: %v", got)
	}
	if got := rec.get("b"); len(got) != 1 {
		t.Errorf("key b throttled by key a: %v", got)
	}
}

func TestCoalescerDropCancelsPending(t *testing.T) {
	rec := &recorder{values: make(map[string][]int)}
	c := NewCoalescer(40*time.Millisecond, rec.record)

	c.Offer("a", 1)
	c.Offer("a", 2)
	c.Drop("a")

	time.Sleep(100 * time.Millisecond)

	if got := rec.get("a"); len(got) != 1 {
		t.Fatalf("dropped key still emitted: %v", got)
	}
}
