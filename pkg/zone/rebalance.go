package zone

import (
	"github.com/matzehuels/zonealloc/pkg/observability"
)

// Rebalancing multipliers relative to the mean density.
const (
	sparseBoost    = 1.5
	crowdedDamping = 0.7
)

// TriggerRebalancing reapplies policy weights and nudges them toward sparse
// regions. The adjustment is reverted after Config.RebalanceRevert.
func (a *Allocator) TriggerRebalancing() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.rebalanceLocked("manual")
}

func (a *Allocator) rebalanceLocked(reason string) {
	a.policy.ApplyWeights(a.regions)

	mean := a.dist.MeanDensity
	for _, r := range a.regions {
		switch d := r.Density(); {
		case d < mean/2:
			r.Weight *= sparseBoost
		case d > mean*2:
			r.Weight *= crowdedDamping
		}
	}
	a.rebalances++

	a.logger.Info("rebalancing regions",
		"reason", reason,
		"balance", a.dist.BalanceScore,
		"occupants", a.dist.TotalOccupants)
	a.hooks.OnRebalanceTriggered(observability.RebalanceEvent{
		PartitionID:  a.partitionID,
		BalanceScore: a.dist.BalanceScore,
		MeanDensity:  mean,
		Occupants:    a.dist.TotalOccupants,
		Tier:         string(a.policy.Tier()),
		Reason:       reason,
	})

	if a.revertTimer != nil {
		a.revertTimer.Stop()
	}
	a.revertSeq++
	seq := a.revertSeq
	a.revertTimer = a.clock.AfterFunc(a.cfg.RebalanceRevert, func() { a.revertWeights(seq) })
}

// revertWeights restores the policy baseline after a rebalancing window.
// Only the callback of the most recent rebalance may revert: an older timer
// can fire and then wait on the lock while a newer rebalance runs.
func (a *Allocator) revertWeights(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed || seq != a.revertSeq {
		return
	}
	a.revertTimer = nil
	a.policy.ApplyWeights(a.regions)
	a.logger.Debug("rebalance weights reverted", "generation", a.generation)
}

// scheduleMonitorLocked arms the next monitor sample. The policy's cadence
// wins; Config.MonitorInterval applies when the policy leaves it unset.
func (a *Allocator) scheduleMonitorLocked() {
	every := a.policy.MonitorInterval()
	if every <= 0 {
		every = a.cfg.MonitorInterval
	}
	if every <= 0 {
		return
	}
	a.monitorTimer = a.clock.AfterFunc(every, a.monitorTick)
}

// monitorTick samples frame rate and occupancy for the policy. Exceeded
// limits request a rebalance; the tick never touches selection state.
func (a *Allocator) monitorTick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}

	fps := a.frameRate()
	exceeded := a.policy.Monitor(fps, a.dist.TotalOccupants)
	a.logger.Debug("monitor sample",
		"fps", fps,
		"occupants", a.dist.TotalOccupants,
		"tier", a.policy.Tier(),
		"exceeded", exceeded)
	if exceeded {
		a.rebalanceLocked("monitor")
	}
	a.scheduleMonitorLocked()
}
