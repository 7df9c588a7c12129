package store

import (
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/pipeline"
)

// unitCache is the bounded in-memory window of the most recently
// finalized units. Eviction is FIFO by record order. All accessors copy
// records out so callers can never mutate cached state.
type unitCache struct {
	mu       sync.RWMutex
	capacity int
	units    []*pipeline.UnitRecord // record order, oldest first
	byID     map[string]*pipeline.UnitRecord
}

func newUnitCache(capacity int) *unitCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &unitCache{
		capacity: capacity,
		byID:     make(map[string]*pipeline.UnitRecord),
	}
}

// Add inserts a clone of the unit and evicts the oldest entries past
// capacity. It returns the number of evicted units. Re-recording an ID
// replaces the existing entry in place.
func (c *unitCache) Add(unit *pipeline.UnitRecord) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	clone := unit.Clone()

	if _, exists := c.byID[clone.ID]; exists {
		for i := range c.units {
			if c.units[i].ID == clone.ID {
				c.units[i] = clone
				break
			}
		}
		c.byID[clone.ID] = clone
		return 0
	}

	c.units = append(c.units, clone)
	c.byID[clone.ID] = clone

	evicted := 0
	for len(c.units) > c.capacity {
		oldest := c.units[0]
		c.units = c.units[1:]
		delete(c.byID, oldest.ID)
		evicted++
	}
	return evicted
}

// Recent returns up to limit units, newest first. A non-positive limit
// returns the whole cache.
func (c *unitCache) Recent(limit int) []*pipeline.UnitRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.units)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*pipeline.UnitRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, c.units[i].Clone())
	}
	return out
}

// ByID returns a copy of the cached unit with the given ID, if present.
func (c *unitCache) ByID(id string) (*pipeline.UnitRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	unit, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return unit.Clone(), true
}

// Window returns the cached units whose terminal timestamp falls in
// [start, end), in record order.
func (c *unitCache) Window(start, end time.Time) []*pipeline.UnitRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*pipeline.UnitRecord
	for _, unit := range c.units {
		if unit.CompletedAt.Before(start) || !unit.CompletedAt.Before(end) {
			continue
		}
		out = append(out, unit.Clone())
	}
	return out
}

// Size returns the number of cached units.
func (c *unitCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.units)
}

// reportHistory is the bounded in-memory ring of drift reports, ordered
// by append time.
type reportHistory struct {
	mu       sync.RWMutex
	capacity int
	reports  []*pipeline.DriftReport // append order, oldest first
}

func newReportHistory(capacity int) *reportHistory {
	if capacity <= 0 {
		capacity = 50
	}
	return &reportHistory{capacity: capacity}
}

// Add appends a clone of the report, dropping the oldest entries past
// capacity.
func (h *reportHistory) Add(report *pipeline.DriftReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reports = append(h.reports, report.Clone())
	for len(h.reports) > h.capacity {
		h.reports = h.reports[1:]
	}
}

// Recent returns up to limit reports, newest first. A non-positive limit
// returns the whole history.
func (h *reportHistory) Recent(limit int) []*pipeline.DriftReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.reports)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*pipeline.DriftReport, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.reports[i].Clone())
	}
	return out
}

// All returns every held report in append order.
func (h *reportHistory) All() []*pipeline.DriftReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*pipeline.DriftReport, 0, len(h.reports))
	for _, report := range h.reports {
		out = append(out, report.Clone())
	}
	return out
}

// Size returns the number of held reports.
func (h *reportHistory) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.reports)
}
