package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// EventKind names a notification type on the wire.
type EventKind string

const (
	KindPartitionCreated      EventKind = "partition-created"
	KindPartitionRecalculated EventKind = "partition-recalculated"
	KindRebalanceTriggered    EventKind = "rebalance-triggered"
	KindOccupantLimitExceeded EventKind = "occupant-limit-exceeded"
	KindConfigFallback        EventKind = "config-fallback"
)

// Event is the transport-neutral record handed to a [Publisher].
type Event struct {
	Kind  EventKind      `json:"kind" bson:"kind"`
	At    time.Time      `json:"at" bson:"at"`
	Attrs map[string]any `json:"attrs" bson:"attrs"`
}

// Publisher delivers events to a telemetry backend.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// EventHooks adapts [AllocatorHooks] calls into [Event] records.
type EventHooks struct {
	pub Publisher
	now func() time.Time
}

// NewEventHooks creates hooks that publish every notification through pub.
// Publish errors are dropped; wrap pub in [Async] to log them.
func NewEventHooks(pub Publisher) *EventHooks {
	return &EventHooks{pub: pub, now: time.Now}
}

func (h *EventHooks) emit(kind EventKind, attrs map[string]any) {
	_ = h.pub.Publish(context.Background(), Event{Kind: kind, At: h.now(), Attrs: attrs})
}

func (h *EventHooks) OnPartitionCreated(e PartitionEvent) {
	h.emit(KindPartitionCreated, e.attrs())
}

func (h *EventHooks) OnPartitionRecalculated(e PartitionEvent) {
	h.emit(KindPartitionRecalculated, e.attrs())
}

func (h *EventHooks) OnRebalanceTriggered(e RebalanceEvent) {
	h.emit(KindRebalanceTriggered, map[string]any{
		"partition_id":  e.PartitionID,
		"balance_score": e.BalanceScore,
		"mean_density":  e.MeanDensity,
		"occupants":     e.Occupants,
		"tier":          e.Tier,
		"reason":        e.Reason,
	})
}

func (h *EventHooks) OnOccupantLimitExceeded(e LimitEvent) {
	h.emit(KindOccupantLimitExceeded, map[string]any{
		"partition_id": e.PartitionID,
		"occupants":    e.Occupants,
		"limit":        e.Limit,
		"tier":         e.Tier,
	})
}

func (h *EventHooks) OnConfigFallback(e FallbackEvent) {
	h.emit(KindConfigFallback, map[string]any{
		"width":  e.Width,
		"height": e.Height,
		"code":   e.Code,
		"reason": e.Reason,
	})
}

func (e PartitionEvent) attrs() map[string]any {
	return map[string]any{
		"partition_id":          e.PartitionID,
		"generation":            e.Generation,
		"regions":               e.Regions,
		"width":                 e.Width,
		"height":                e.Height,
		"orientation":           e.Orientation,
		"size_class":            e.SizeClass,
		"tier":                  e.Tier,
		"edge_margin":           e.EdgeMargin,
		"center_zone_size":      e.CenterZoneSize,
		"transition_zone_width": e.TransitionZoneWidth,
		"prev_width":            e.PrevWidth,
		"prev_height":           e.PrevHeight,
	}
}

// LogPublisher writes events to a structured logger.
type LogPublisher struct {
	Logger *log.Logger
}

// Publish logs e at info level with its attributes as key/value pairs.
func (p LogPublisher) Publish(_ context.Context, e Event) error {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	kv := make([]any, 0, 2*len(e.Attrs))
	for _, k := range sortedKeys(e.Attrs) {
		kv = append(kv, k, e.Attrs[k])
	}
	logger.Info(string(e.Kind), kv...)
	return nil
}
