package core

import "time"

// QueueItem is one live scheduled run. EndTime is always derived, never
// stored, so there is exactly one source of truth for a run's duration.
type QueueItem struct {
	StationID   int
	ProgramID   int
	StartTime   time.Time
	Duration    time.Duration
	DequeueTime time.Time
}

// EndTime is the derived run end = StartTime + Duration.
func (q QueueItem) EndTime() time.Time {
	return q.StartTime.Add(q.Duration)
}

// Running reports whether the item is actively watering at `now`.
func (q QueueItem) Running(now time.Time) bool {
	return !now.Before(q.StartTime) && now.Before(q.EndTime())
}

// Queue is the runtime set of scheduled station runs. It is backed by an
// unordered slice plus a station -> index map so lookups, insertion, and
// removal are all O(1); removal swaps the tail element into the vacated
// slot and repairs the displaced entry's map entry.
type Queue struct {
	items    []QueueItem
	byStation map[int]int
}

// NewQueue returns an empty runtime queue.
func NewQueue() *Queue {
	return &Queue{byStation: make(map[int]int)}
}

// Len returns the number of queued items.
func (q *Queue) Len() int { return len(q.items) }

// StationQueued reports whether stationID already has a live queue entry.
func (q *Queue) StationQueued(stationID int) bool {
	_, ok := q.byStation[stationID]
	return ok
}

// FindByStation returns the queue item for a station, if any.
func (q *Queue) FindByStation(stationID int) (QueueItem, bool) {
	idx, ok := q.byStation[stationID]
	if !ok {
		return QueueItem{}, false
	}
	return q.items[idx], true
}

// Enqueue admits a new run. It refuses (ErrAlreadyQueued) if the station
// already has a live entry, enforcing the "exactly one item per station"
// invariant. dequeueTime defaults to start+duration when zero.
func (q *Queue) Enqueue(stationID, programID int, start time.Time, duration time.Duration, dequeueTime time.Time) error {
	if q.StationQueued(stationID) {
		return ErrAlreadyQueued
	}
	if dequeueTime.IsZero() {
		dequeueTime = start.Add(duration)
	}
	item := QueueItem{
		StationID:   stationID,
		ProgramID:   programID,
		StartTime:   start,
		Duration:    duration,
		DequeueTime: dequeueTime,
	}
	q.items = append(q.items, item)
	q.byStation[stationID] = len(q.items) - 1
	return nil
}

// Dequeue removes the item at index idx via swap-remove, keeping byStation
// consistent for the element that was moved into idx's place.
func (q *Queue) Dequeue(idx int) {
	if idx < 0 || idx >= len(q.items) {
		return
	}
	removedStation := q.items[idx].StationID
	last := len(q.items) - 1
	if idx != last {
		q.items[idx] = q.items[last]
		q.byStation[q.items[idx].StationID] = idx
	}
	q.items = q.items[:last]
	delete(q.byStation, removedStation)
}

// DequeueStation removes the queue entry for a station, if present.
func (q *Queue) DequeueStation(stationID int) {
	if idx, ok := q.byStation[stationID]; ok {
		q.Dequeue(idx)
	}
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.items = q.items[:0]
	q.byStation = make(map[int]int)
}

// RunningItems returns items whose [start,end) window contains now.
func (q *Queue) RunningItems(now time.Time) []QueueItem {
	var out []QueueItem
	for _, it := range q.items {
		if it.Running(now) {
			out = append(out, it)
		}
	}
	return out
}

// ActiveStationIDs returns the station ids of RunningItems(now).
func (q *Queue) ActiveStationIDs(now time.Time) map[int]bool {
	out := make(map[int]bool)
	for _, it := range q.items {
		if it.Running(now) {
			out[it.StationID] = true
		}
	}
	return out
}

// DequeueableIndexes returns the indexes of items whose DequeueTime has
// passed. Indexes are only valid until the next mutation of the queue.
func (q *Queue) DequeueableIndexes(now time.Time) []int {
	var out []int
	for i, it := range q.items {
		if !now.Before(it.DequeueTime) {
			out = append(out, i)
		}
	}
	return out
}

// RemoveDequeueable swap-removes every item whose DequeueTime has passed.
func (q *Queue) RemoveDequeueable(now time.Time) {
	for {
		removed := false
		for i, it := range q.items {
			if !now.Before(it.DequeueTime) {
				q.Dequeue(i)
				removed = true
				break
			}
		}
		if !removed {
			return
		}
	}
}

// All returns a snapshot copy of every queue item.
func (q *Queue) All() []QueueItem {
	out := make([]QueueItem, len(q.items))
	copy(out, q.items)
	return out
}

// Pause shifts every item to account for a suspension lasting `duration`,
// per spec section 4.4: running items are shortened to their remaining
// time and then pushed out by duration; not-yet-started items are simply
// delayed by duration. Items that already finished (now >= end) are left
// untouched.
func (q *Queue) Pause(now time.Time, duration time.Duration) {
	for i := range q.items {
		it := &q.items[i]
		end := it.EndTime()
		if !now.Before(end) {
			continue
		}
		if !now.Before(it.StartTime) {
			remaining := it.Duration - now.Sub(it.StartTime)
			it.Duration = remaining
			it.StartTime = now.Add(duration)
		} else {
			it.StartTime = it.StartTime.Add(duration)
		}
		it.DequeueTime = it.DequeueTime.Add(duration)
	}
}

// Resume reverses a prior Pause of the same duration, then adds one second
// to every item's StartTime and DequeueTime. That extra second absorbs the
// tick during which Resume itself runs, so the scheduler does not
// immediately re-trigger an item whose start time lands exactly on now.
// This fencepost behavior is preserved from the legacy firmware verbatim;
// see the "apply_resume" open question in DESIGN.md.
func (q *Queue) Resume(duration time.Duration) {
	for i := range q.items {
		it := &q.items[i]
		it.StartTime = it.StartTime.Add(-duration).Add(time.Second)
		it.DequeueTime = it.DequeueTime.Add(-duration).Add(time.Second)
	}
}
