package zone

// notifyViewport is the compatibility provider's callback. Bursts of
// notifications are coalesced into one adaptation after ResizeDebounce.
func (a *Allocator) notifyViewport(v Viewport) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	a.pendingViewport = v.normalize()
	if a.debounceTimer != nil {
		a.debounceTimer.Stop()
	}
	a.debounceSeq++
	seq := a.debounceSeq
	a.debounceTimer = a.clock.AfterFunc(a.cfg.ResizeDebounce, func() { a.flushViewport(seq) })
}

// flushViewport runs when the debounce timer fires. A callback that fired
// while a newer notification was rescheduling it is stale and does nothing.
func (a *Allocator) flushViewport(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed || seq != a.debounceSeq {
		return
	}
	a.debounceTimer = nil
	a.adaptLocked(a.pendingViewport)
}

// HandleViewportChange adapts to v immediately, bypassing the debounce.
// It reports whether the change was significant and the partition rebuilt.
func (a *Allocator) HandleViewportChange(v Viewport) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return false
	}
	return a.adaptLocked(v)
}

func (a *Allocator) adaptLocked(next Viewport) bool {
	next = next.normalize()
	prev := a.viewport
	if !prev.SignificantChange(next, a.cfg.AspectRatioChangeThreshold) {
		a.logger.Debug("viewport change below threshold",
			"width", next.Width, "height", next.Height)
		return false
	}

	if a.transition != nil {
		snapshot := make([]Region, len(a.regions))
		for i, r := range a.regions {
			snapshot[i] = *r
		}
		a.transition(snapshot, next)
	}

	a.viewport = next
	a.repartitionLocked()
	a.logger.Info("partition recalculated",
		"generation", a.generation,
		"from", formatSize(prev),
		"to", formatSize(next),
		"orientation", next.Orientation)
	a.hooks.OnPartitionRecalculated(a.partitionEventLocked(prev))
	return true
}
