package core

import (
	"testing"
	"time"
)

func TestQueueEnqueueRejectsDuplicateStation(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	if err := q.Enqueue(1, 1, now, time.Minute, time.Time{}); err != nil {
		t.Fatalf("unexpected error on first enqueue: %v", err)
	}
	if err := q.Enqueue(1, 2, now, time.Minute, time.Time{}); err != ErrAlreadyQueued {
		t.Fatalf("expected ErrAlreadyQueued, got %v", err)
	}
}

func TestQueueRunningItemsWindow(t *testing.T) {
	q := NewQueue()
	start := time.Now()
	_ = q.Enqueue(1, 1, start, 10*time.Second, time.Time{})

	if len(q.RunningItems(start.Add(-time.Second))) != 0 {
		t.Fatalf("item must not be running before its start time")
	}
	if len(q.RunningItems(start.Add(5*time.Second))) != 1 {
		t.Fatalf("item must be running mid-window")
	}
	if len(q.RunningItems(start.Add(10*time.Second))) != 0 {
		t.Fatalf("item must not be running once its window has elapsed")
	}
}

func TestQueueSwapRemovePreservesLookup(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	_ = q.Enqueue(1, 1, now, time.Minute, time.Time{})
	_ = q.Enqueue(2, 1, now, time.Minute, time.Time{})
	_ = q.Enqueue(3, 1, now, time.Minute, time.Time{})

	q.DequeueStation(1)

	if q.StationQueued(1) {
		t.Fatalf("station 1 should have been removed")
	}
	for _, id := range []int{2, 3} {
		if _, ok := q.FindByStation(id); !ok {
			t.Fatalf("station %d lookup broke after swap-remove", id)
		}
	}
	if q.Len() != 2 {
		t.Fatalf("expected 2 items left, got %d", q.Len())
	}
}

func TestQueueRemoveDequeueable(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	_ = q.Enqueue(1, 1, now.Add(-time.Minute), 30*time.Second, now.Add(-30*time.Second))
	_ = q.Enqueue(2, 1, now, time.Minute, time.Time{})

	q.RemoveDequeueable(now)

	if q.StationQueued(1) {
		t.Fatalf("station 1's item should have been dequeued")
	}
	if !q.StationQueued(2) {
		t.Fatalf("station 2's item should still be queued")
	}
}

func TestQueuePauseShortensRunningShiftsPending(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	_ = q.Enqueue(1, 1, now.Add(-10*time.Second), 30*time.Second, time.Time{})
	_ = q.Enqueue(2, 1, now.Add(time.Minute), time.Minute, time.Time{})

	q.Pause(now, 5*time.Minute)

	running, _ := q.FindByStation(1)
	if running.Duration != 20*time.Second {
		t.Fatalf("expected running item's remaining duration 20s, got %v", running.Duration)
	}
	if !running.StartTime.Equal(now.Add(5 * time.Minute)) {
		t.Fatalf("expected running item's new start to be now+pause duration")
	}

	pending, _ := q.FindByStation(2)
	if !pending.StartTime.Equal(now.Add(time.Minute).Add(5 * time.Minute)) {
		t.Fatalf("expected pending item's start to shift by the pause duration")
	}
}
