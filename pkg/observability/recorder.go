package observability

import "sync"

// Recorder keeps every notification in memory. It is intended for tests and
// for the CLI simulate command's summary.
type Recorder struct {
	mu           sync.Mutex
	Created      []PartitionEvent
	Recalculated []PartitionEvent
	Rebalances   []RebalanceEvent
	Limits       []LimitEvent
	Fallbacks    []FallbackEvent
}

func (r *Recorder) OnPartitionCreated(e PartitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Created = append(r.Created, e)
}

func (r *Recorder) OnPartitionRecalculated(e PartitionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Recalculated = append(r.Recalculated, e)
}

func (r *Recorder) OnRebalanceTriggered(e RebalanceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rebalances = append(r.Rebalances, e)
}

func (r *Recorder) OnOccupantLimitExceeded(e LimitEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Limits = append(r.Limits, e)
}

func (r *Recorder) OnConfigFallback(e FallbackEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fallbacks = append(r.Fallbacks, e)
}

// Counts returns the number of recorded notifications per kind.
func (r *Recorder) Counts() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[EventKind]int{
		KindPartitionCreated:      len(r.Created),
		KindPartitionRecalculated: len(r.Recalculated),
		KindRebalanceTriggered:    len(r.Rebalances),
		KindOccupantLimitExceeded: len(r.Limits),
		KindConfigFallback:        len(r.Fallbacks),
	}
}
