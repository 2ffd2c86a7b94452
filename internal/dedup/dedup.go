// Package dedup makes at-least-once update delivery idempotent by tracking
// the most recently processed update ids in a bounded, insertion-ordered set.
package dedup

import "sync"

// DefaultCapacity is the number of recent update ids retained when no
// explicit capacity is configured.
const DefaultCapacity = 1000

// Deduplicator is a bounded FIFO set of processed update ids. It is safe for
// concurrent use across simultaneous inbound deliveries.
type Deduplicator struct {
	mu       sync.Mutex
	capacity int
	seen     map[int64]struct{}
	order    []int64
}

// New returns a Deduplicator retaining at most capacity ids. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Deduplicator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Deduplicator{
		capacity: capacity,
		seen:     make(map[int64]struct{}, capacity),
		order:    make([]int64, 0, capacity),
	}
}

// ShouldProcess records the id on first sight and returns true. Repeated ids
// return false until they have been evicted. Eviction is strictly insertion
// ordered, so the most recent capacity ids are always retained.
func (d *Deduplicator) ShouldProcess(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return false
	}

	d.seen[id] = struct{}{}
	d.order = append(d.order, id)

	for len(d.order) > d.capacity {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.seen, oldest)
	}
	return true
}

// Len returns the number of ids currently retained.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}
