package core

import (
	"context"
	"testing"
	"time"
)

type fakeOutput struct {
	bits    map[int]bool
	applied bool
}

func newFakeOutput() *fakeOutput { return &fakeOutput{bits: make(map[int]bool)} }

func (f *fakeOutput) SetBit(stationID int, on bool) error {
	f.bits[stationID] = on
	return nil
}
func (f *fakeOutput) ClearAll() { f.bits = make(map[int]bool) }
func (f *fakeOutput) Apply(enabled bool) error {
	f.applied = enabled
	return nil
}

type fakeLogSink struct {
	runs []CompletedRun
}

func (f *fakeLogSink) RecordRun(run CompletedRun) { f.runs = append(f.runs, run) }
func (f *fakeLogSink) RecordSensorChange(int, bool, time.Time) {}

type fakeTelemetry struct {
	changes []valveChange
}

type valveChange struct {
	stationID int
	active    bool
}

func (f *fakeTelemetry) ValveChanged(stationID int, active bool, at time.Time) {
	f.changes = append(f.changes, valveChange{stationID, active})
}

func newTestController(t *testing.T) (*Controller, *fakeOutput, *fakeLogSink) {
	t.Helper()
	stations := NewStations([]Station{
		{Name: "zone1"},
		{Name: "zone2"},
	})
	programs := NewPrograms()
	queue := NewQueue()
	sched := NewScheduler(stations, queue)
	sensors := &Sensors{}
	output := newFakeOutput()
	ctrl := NewController(NewManualClock(time.Now()), stations, programs, sched, sensors, output)
	sink := &fakeLogSink{}
	ctrl.LogSink = sink
	return ctrl, output, sink
}

func TestControllerTickIsIdempotentPerSecond(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	now := time.Now().Truncate(time.Second)

	ctrl.Tick(context.Background(), now, 0, 0)
	firstMinute := ctrl.State.LastCheckedMinute

	ctrl.State.LastCheckedMinute = -999 // would show up as a second tick if Tick re-ran
	ctrl.Tick(context.Background(), now, 0, 0)

	if ctrl.State.LastCheckedMinute != -999 {
		t.Fatalf("Tick must be a no-op for a repeated integer second")
	}
	_ = firstMinute
}

func TestControllerActuatesAndLogsCompletedRun(t *testing.T) {
	ctrl, output, sink := newTestController(t)
	start := time.Now().Truncate(time.Second)

	if err := ctrl.Scheduler.ScheduleStation(start, 0, 7, 2*time.Second, QueueNormal); err != nil {
		t.Fatalf("ScheduleStation: %v", err)
	}

	ctrl.Tick(context.Background(), start, 0, 0)
	if !output.bits[0] {
		t.Fatalf("expected station 0's bit set while its run is active")
	}

	mid := start.Add(time.Second)
	ctrl.Tick(context.Background(), mid, 0, 0)
	if !output.bits[0] {
		t.Fatalf("expected station 0 still active mid-run")
	}

	end := start.Add(2 * time.Second)
	ctrl.Tick(context.Background(), end, 0, 0)

	if output.bits[0] {
		t.Fatalf("expected station 0's bit cleared once its run ends")
	}
	if len(sink.runs) != 1 {
		t.Fatalf("expected exactly one completed-run record, got %d", len(sink.runs))
	}
	if sink.runs[0].StationID != 0 || sink.runs[0].ProgramID != 7 {
		t.Fatalf("unexpected completed-run record: %+v", sink.runs[0])
	}
	if sink.runs[0].Duration != 2*time.Second {
		t.Fatalf("expected logged duration to match the scheduled duration, got %v", sink.runs[0].Duration)
	}
}

func TestControllerExcludesMasterOutputStationFromGenericBits(t *testing.T) {
	ctrl, output, _ := newTestController(t)
	ctrl.Options.Master1 = MasterConfig{StationID1Based: 1} // station id 0

	ctrl.applyStationBits(map[int]QueueItem{0: {StationID: 0}})

	if _, touched := output.bits[0]; touched {
		t.Fatalf("applyStationBits must not touch the master's own output station")
	}
}

func TestControllerRainDelayBlocksAdmission(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	now := time.Now().Truncate(time.Second)
	ctrl.SetRainDelay(now, 1)
	ctrl.Tick(context.Background(), now, 0, 0)

	if !ctrl.shouldSkipStation(0) {
		t.Fatalf("expected station admission to be skipped while rain-delayed")
	}
}

func TestControllerLastRunTracksMostRecentCompletion(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	start := time.Now().Truncate(time.Second)

	if err := ctrl.Scheduler.ScheduleStation(start, 1, 9, time.Second, QueueNormal); err != nil {
		t.Fatalf("ScheduleStation: %v", err)
	}

	ctrl.Tick(context.Background(), start, 0, 0)
	if ctrl.State.LastRun != nil {
		t.Fatalf("expected no completed run yet while station 1 is still active")
	}

	ctrl.Tick(context.Background(), start.Add(time.Second), 0, 0)
	if ctrl.State.LastRun == nil {
		t.Fatalf("expected LastRun to be populated once station 1's run completes")
	}
	if ctrl.State.LastRun.StationID != 1 || ctrl.State.LastRun.ProgramID != 9 {
		t.Fatalf("unexpected LastRun: %+v", ctrl.State.LastRun)
	}
}

func TestControllerActiveStationIDsReflectsAppliedBits(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	start := time.Now().Truncate(time.Second)

	if err := ctrl.Scheduler.ScheduleStation(start, 0, 7, 2*time.Second, QueueNormal); err != nil {
		t.Fatalf("ScheduleStation: %v", err)
	}

	ctrl.Tick(context.Background(), start, 0, 0)
	if active := ctrl.ActiveStationIDs(); !active[0] {
		t.Fatalf("expected station 0 in the active set while its run is live, got %+v", active)
	}

	ctrl.Tick(context.Background(), start.Add(2*time.Second), 0, 0)
	if active := ctrl.ActiveStationIDs(); active[0] {
		t.Fatalf("expected station 0 out of the active set once its run ends, got %+v", active)
	}
}

func TestControllerTelemetryFiresWhileStationStaysActive(t *testing.T) {
	ctrl, _, _ := newTestController(t)
	telem := &fakeTelemetry{}
	ctrl.Telemetry = telem
	start := time.Now().Truncate(time.Second)

	if err := ctrl.Scheduler.ScheduleStation(start, 0, 7, 3*time.Second, QueueNormal); err != nil {
		t.Fatalf("ScheduleStation: %v", err)
	}

	ctrl.Tick(context.Background(), start, 0, 0)               // off->on
	ctrl.Tick(context.Background(), start.Add(time.Second), 0, 0) // on->on
	ctrl.Tick(context.Background(), start.Add(3*time.Second), 0, 0) // on->off

	var onCount, offCount int
	for _, c := range telem.changes {
		if c.stationID != 0 {
			continue
		}
		if c.active {
			onCount++
		} else {
			offCount++
		}
	}
	if onCount != 2 {
		t.Fatalf("expected telemetry to fire for both the off->on and on->on ticks, got %d", onCount)
	}
	if offCount != 1 {
		t.Fatalf("expected telemetry to fire once for the on->off tick, got %d", offCount)
	}
}
