package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	h := NoopAllocatorHooks{}
	h.OnPartitionCreated(PartitionEvent{Regions: 13})
	h.OnPartitionRecalculated(PartitionEvent{Regions: 13})
	h.OnRebalanceTriggered(RebalanceEvent{BalanceScore: 0.1})
	h.OnOccupantLimitExceeded(LimitEvent{Occupants: 10, Limit: 5})
	h.OnConfigFallback(FallbackEvent{Reason: "boom"})
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Allocator().(NoopAllocatorHooks); !ok {
		t.Error("Allocator() should return NoopAllocatorHooks by default")
	}

	custom := &Recorder{}
	SetAllocatorHooks(custom)
	if Allocator() != custom {
		t.Error("SetAllocatorHooks should set custom hooks")
	}

	Reset()
	if _, ok := Allocator().(NoopAllocatorHooks); !ok {
		t.Error("Reset() should restore NoopAllocatorHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &Recorder{}
	SetAllocatorHooks(custom)
	SetAllocatorHooks(nil)
	if Allocator() != custom {
		t.Error("SetAllocatorHooks(nil) should keep existing hooks")
	}
}

func TestFanout(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	f := Fanout{a, b}

	f.OnPartitionCreated(PartitionEvent{})
	f.OnRebalanceTriggered(RebalanceEvent{})
	f.OnRebalanceTriggered(RebalanceEvent{})

	for i, r := range []*Recorder{a, b} {
		counts := r.Counts()
		if counts[KindPartitionCreated] != 1 || counts[KindRebalanceTriggered] != 2 {
			t.Errorf("recorder %d counts = %v", i, counts)
		}
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	delay  time.Duration
}

func (c *capturePublisher) Publish(_ context.Context, e Event) error {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return c.err
}

func (c *capturePublisher) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestEventHooksConvertPayloads(t *testing.T) {
	pub := &capturePublisher{}
	h := NewEventHooks(pub)

	h.OnPartitionCreated(PartitionEvent{PartitionID: "p", Regions: 13, Tier: "high"})
	h.OnRebalanceTriggered(RebalanceEvent{BalanceScore: 0.2, Reason: "balance"})
	h.OnOccupantLimitExceeded(LimitEvent{Occupants: 31, Limit: 30})
	h.OnConfigFallback(FallbackEvent{Code: "INTERNAL_ERROR"})

	got := pub.snapshot()
	wantKinds := []EventKind{KindPartitionCreated, KindRebalanceTriggered, KindOccupantLimitExceeded, KindConfigFallback}
	if len(got) != len(wantKinds) {
		t.Fatalf("published %d events, want %d", len(got), len(wantKinds))
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("event %d kind = %s, want %s", i, got[i].Kind, k)
		}
	}
	if got[0].Attrs["regions"] != 13 {
		t.Errorf("regions attr = %v, want 13", got[0].Attrs["regions"])
	}
	if got[2].Attrs["limit"] != 30 {
		t.Errorf("limit attr = %v, want 30", got[2].Attrs["limit"])
	}
}

func TestAsyncDeliversInOrder(t *testing.T) {
	pub := &capturePublisher{}
	a := NewAsync(pub, 16, log.New(&bytes.Buffer{}))

	for i := range 5 {
		_ = a.Publish(context.Background(), Event{Kind: KindRebalanceTriggered, Attrs: map[string]any{"i": i}})
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	got := pub.snapshot()
	if len(got) != 5 {
		t.Fatalf("delivered %d events, want 5", len(got))
	}
	for i, e := range got {
		if e.Attrs["i"] != i {
			t.Errorf("event %d out of order: %v", i, e.Attrs["i"])
		}
	}

	// Publishing after Close is a silent no-op.
	if err := a.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("Publish after Close error = %v", err)
	}
}

func TestAsyncDropsWhenFull(t *testing.T) {
	pub := &capturePublisher{delay: 50 * time.Millisecond}
	a := NewAsync(pub, 1, log.New(&bytes.Buffer{}))

	for range 10 {
		_ = a.Publish(context.Background(), Event{})
	}
	if a.Dropped() == 0 {
		t.Error("expected drops with a one-slot buffer and a slow backend")
	}
	_ = a.Close(context.Background())
}

func TestAsyncLogsBackendErrors(t *testing.T) {
	var buf bytes.Buffer
	pub := &capturePublisher{err: errors.New("connection refused")}
	a := NewAsync(pub, 4, log.New(&buf))

	_ = a.Publish(context.Background(), Event{Kind: KindConfigFallback})
	_ = a.Close(context.Background())

	if !strings.Contains(buf.String(), "connection refused") {
		t.Errorf("log output %q should mention backend error", buf.String())
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := LogPublisher{Logger: log.New(&buf)}
	_ = p.Publish(context.Background(), Event{
		Kind:  KindOccupantLimitExceeded,
		Attrs: map[string]any{"limit": 30, "occupants": 31},
	})

	out := buf.String()
	for _, want := range []string{"occupant-limit-exceeded", "limit=30", "occupants=31"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestToAttributes(t *testing.T) {
	attrs := toAttributes(map[string]any{"a": "x", "b": 2, "c": 0.5, "d": true, "e": []int{1}})
	if len(attrs) != 5 {
		t.Fatalf("len = %d, want 5", len(attrs))
	}
	if string(attrs[0].Key) != "zonealloc.a" {
		t.Errorf("first key = %s, want zonealloc.a (sorted)", attrs[0].Key)
	}
}
