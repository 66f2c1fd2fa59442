// Package observability provides hooks for allocator telemetry.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. The allocator calls the registered
// [AllocatorHooks] synchronously; implementations must not block. Backends that
// perform I/O (Redis, MongoDB) are wrapped in [Async] so delivery is never
// awaited by the placement path.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define a hook interface for allocator notifications
//   - Provide a no-op default implementation
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    pub := observability.NewAsync(observability.NewRedisPublisher(client, "zonealloc"), 256, logger)
//	    defer pub.Close(ctx)
//	    observability.SetAllocatorHooks(observability.NewEventHooks(pub))
//	    // ... run application
//	}
//
// The allocator emits events:
//
//	observability.Allocator().OnPartitionCreated(observability.PartitionEvent{...})
package observability

import (
	"sync"
)

// =============================================================================
// Payloads
// =============================================================================

// PartitionEvent describes a freshly built region set.
type PartitionEvent struct {
	PartitionID string
	Generation  int
	Regions     int
	Width       float64
	Height      float64
	Orientation string
	SizeClass   string
	Tier        string

	EdgeMargin          float64
	CenterZoneSize      float64
	TransitionZoneWidth float64

	// Previous viewport; zero on the initial partition.
	PrevWidth  float64
	PrevHeight float64
}

// RebalanceEvent describes a rebalancing pass.
type RebalanceEvent struct {
	PartitionID  string
	BalanceScore float64
	MeanDensity  float64
	Occupants    int
	Tier         string
	Reason       string
}

// LimitEvent reports that active occupants exceed the policy ceiling.
type LimitEvent struct {
	PartitionID string
	Occupants   int
	Limit       int
	Tier        string
}

// FallbackEvent reports that ratio computation failed and safe defaults
// were substituted.
type FallbackEvent struct {
	Width  float64
	Height float64
	Code   string
	Reason string
}

// =============================================================================
// Allocator Hooks
// =============================================================================

// AllocatorHooks receives fire-and-forget notifications from the allocator.
type AllocatorHooks interface {
	OnPartitionCreated(e PartitionEvent)
	OnPartitionRecalculated(e PartitionEvent)
	OnRebalanceTriggered(e RebalanceEvent)
	OnOccupantLimitExceeded(e LimitEvent)
	OnConfigFallback(e FallbackEvent)
}

// NoopAllocatorHooks is a no-op implementation of AllocatorHooks.
type NoopAllocatorHooks struct{}

func (NoopAllocatorHooks) OnPartitionCreated(PartitionEvent)      {}
func (NoopAllocatorHooks) OnPartitionRecalculated(PartitionEvent) {}
func (NoopAllocatorHooks) OnRebalanceTriggered(RebalanceEvent)    {}
func (NoopAllocatorHooks) OnOccupantLimitExceeded(LimitEvent)     {}
func (NoopAllocatorHooks) OnConfigFallback(FallbackEvent)         {}

// Fanout delivers every notification to each of hooks in order.
type Fanout []AllocatorHooks

func (f Fanout) OnPartitionCreated(e PartitionEvent) {
	for _, h := range f {
		h.OnPartitionCreated(e)
	}
}

func (f Fanout) OnPartitionRecalculated(e PartitionEvent) {
	for _, h := range f {
		h.OnPartitionRecalculated(e)
	}
}

func (f Fanout) OnRebalanceTriggered(e RebalanceEvent) {
	for _, h := range f {
		h.OnRebalanceTriggered(e)
	}
}

func (f Fanout) OnOccupantLimitExceeded(e LimitEvent) {
	for _, h := range f {
		h.OnOccupantLimitExceeded(e)
	}
}

func (f Fanout) OnConfigFallback(e FallbackEvent) {
	for _, h := range f {
		h.OnConfigFallback(e)
	}
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	allocatorHooks AllocatorHooks = NoopAllocatorHooks{}
	hooksMu        sync.RWMutex
)

// SetAllocatorHooks registers custom allocator hooks.
// This should be called once at application startup before creating allocators.
func SetAllocatorHooks(h AllocatorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		allocatorHooks = h
	}
}

// Allocator returns the registered allocator hooks.
func Allocator() AllocatorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return allocatorHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	allocatorHooks = NoopAllocatorHooks{}
}
