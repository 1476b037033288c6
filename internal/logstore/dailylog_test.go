package logstore

import (
	"testing"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
)

func TestDailyLogStoreRecordAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDailyLogStore(dir, nil)
	if err != nil {
		t.Fatalf("NewDailyLogStore: %v", err)
	}

	now := time.Date(2026, 7, 30, 6, 30, 0, 0, time.UTC)
	store.RecordRun(core.CompletedRun{
		StationID: 2,
		ProgramID: 5,
		Duration:  90 * time.Second,
		EndTime:   now,
		Kind:      core.RecordManual,
	})
	store.RecordSensorChange(1, true, now.Add(time.Minute))

	rows, err := store.Load(now)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	run := rows[0]
	if run[0] != 5 || run[1] != 2 || run[2] != 90 || run[4] != recordManual {
		t.Fatalf("unexpected run row: %+v", run)
	}

	sensor := rows[1]
	if sensor[1] != 200 || sensor[2] != 1 || sensor[4] != recordSensor {
		t.Fatalf("unexpected sensor row: %+v", sensor)
	}
}

func TestDailyLogStoreLoadMissingDayIsNotError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDailyLogStore(dir, nil)
	if err != nil {
		t.Fatalf("NewDailyLogStore: %v", err)
	}

	rows, err := store.Load(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected no error for a missing day, got %v", err)
	}
	if rows != nil {
		t.Fatalf("expected nil rows for a missing day, got %+v", rows)
	}
}

func TestFanoutBroadcastsToAllSinks(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	fanout := Fanout{a, b}

	now := time.Now()
	fanout.RecordRun(core.CompletedRun{StationID: 1, EndTime: now})
	fanout.RecordSensorChange(2, true, now)

	if len(a.runs) != 1 || len(b.runs) != 1 {
		t.Fatalf("expected both sinks to receive the run record")
	}
	if a.sensorCalls != 1 || b.sensorCalls != 1 {
		t.Fatalf("expected both sinks to receive the sensor record")
	}
}

type recordingSink struct {
	runs        []core.CompletedRun
	sensorCalls int
}

func (r *recordingSink) RecordRun(run core.CompletedRun) { r.runs = append(r.runs, run) }
func (r *recordingSink) RecordSensorChange(int, bool, time.Time) { r.sensorCalls++ }
