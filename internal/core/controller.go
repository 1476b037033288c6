package core

import (
	"context"
	"sync"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/constants"
)

// RecordKind classifies a completed-run log record.
type RecordKind int

const (
	RecordProgram RecordKind = iota
	RecordManual
	RecordRunOnce
	RecordSensor
)

func recordKindForProgram(programID int) RecordKind {
	switch programID {
	case constants.ProgramIDManual:
		return RecordManual
	case constants.ProgramIDRunOnce:
		return RecordRunOnce
	default:
		return RecordProgram
	}
}

// CompletedRun is emitted once a queued station run finishes.
type CompletedRun struct {
	StationID int
	ProgramID int
	Duration  time.Duration
	EndTime   time.Time
	Kind      RecordKind
}

// LogSink receives completed-run and sensor-transition records for
// persistence (the daily JSON log store) and for the in-process log view.
type LogSink interface {
	RecordRun(run CompletedRun)
	RecordSensorChange(sensorNum int, active bool, at time.Time)
}

// TelemetrySink receives per-tick valve state for the optional InfluxDB
// line-protocol exporter. Tick calls it synchronously, so a slow
// implementation delays the tick; failures are best-effort and never
// propagate back into Tick.
type TelemetrySink interface {
	ValveChanged(stationID int, active bool, at time.Time)
}

// OutputDriver is the subset of the shift-register driver the controller
// needs. Its SetBit's change-kind return is driver-internal bookkeeping;
// the controller derives on/off transitions itself by diffing active sets.
type OutputDriver interface {
	SetBit(stationID int, on bool) error
	ClearAll()
	Apply(enabled bool) error
}

// Actuator delegates network-station actuation (see internal/effector).
type Actuator interface {
	Actuate(ctx context.Context, station Station, on bool) error
}

// Options carries the handful of persisted settings the controller loop
// consults every tick. It is a read view; mutation happens through
// Controller methods, never by writing into a live Options value.
type Options struct {
	DeviceEnabled      bool
	IgnoreRainGlobally bool
	Master1            MasterConfig
	Master2            MasterConfig
}

// State is the controller's own mutable bookkeeping, separate from the
// queue (owned by Scheduler) and the station set.
type State struct {
	RainDelayStopTime time.Time
	RainDelayed       bool

	Paused        bool
	PauseTimer    time.Duration
	pauseDuration time.Duration

	LastTickSecond   int64
	LastCheckedMinute int

	// LastRun is the most recently completed run, for the "lrun" field of
	// the legacy status API. Nil until the first run completes.
	LastRun *CompletedRun

	// prevRunningItems is last tick's station->item snapshot, kept (not
	// re-derived from the queue) so a station that finishes and gets
	// swap-removed this tick can still be logged with its real duration
	// and program id. It also IS the active set as of the last tick, so
	// ActiveStationIDs reads it directly rather than re-deriving from the
	// queue (which RemoveDequeueable has already mutated for this tick).
	prevRunningItems map[int]QueueItem
}

// Controller is the single-threaded, once-per-second control loop (spec
// section 4.6). It is the sole mutator of the scheduler, queue, station
// set, sensors, and shift register; the tick loop and the HTTP layer both
// serialize their access to it through Lock/Unlock (see spec section 5).
type Controller struct {
	Clock Clock

	Stations  *Stations
	Programs  *Programs
	Scheduler *Scheduler
	Sensors   *Sensors
	Output    OutputDriver
	Network   Actuator

	Options Options
	State   State

	LogSink   LogSink
	Telemetry TelemetrySink

	// ReadSensorPins is called once per tick to obtain the raw (pre-debounce)
	// level of each configured sensor pin. It is injected rather than
	// hard-wired to a gpio.Controller so the core stays hardware-agnostic.
	ReadSensorPins func() (raw1, raw2 bool)

	// mu is the single exclusive lock spec section 5 requires: the tick
	// loop holds it for a whole Tick, and the HTTP layer holds it for a
	// whole request, so neither ever observes or mutates queue/scheduler/
	// station state while the other is mid-operation.
	mu sync.Mutex
}

// Lock acquires the controller's exclusive lock. Callers (the tick loop,
// the HTTP server's auth middleware) must hold it for the full duration of
// whatever sequence of controller calls they are about to make.
func (c *Controller) Lock() { c.mu.Lock() }

// Unlock releases the lock acquired by Lock.
func (c *Controller) Unlock() { c.mu.Unlock() }

// ActiveStationIDs reports the stations whose output bit was set as of the
// controller's last tick -- the same active set applyStationBits wrote to
// the shift register and detectChanges diffed against, so callers (the
// legacy API's sbits field) see exactly what Apply last wrote, not merely
// what is queued to run.
func (c *Controller) ActiveStationIDs() map[int]bool {
	out := make(map[int]bool, len(c.State.prevRunningItems))
	for id := range c.State.prevRunningItems {
		out[id] = true
	}
	return out
}

// NewController wires together an already-constructed scheduler, station
// set, and sensor pair into a ready-to-tick Controller.
func NewController(clock Clock, stations *Stations, programs *Programs, sched *Scheduler, sensors *Sensors, output OutputDriver) *Controller {
	return &Controller{
		Clock:     clock,
		Stations:  stations,
		Programs:  programs,
		Scheduler: sched,
		Sensors:   sensors,
		Output:    output,
		State:     State{prevRunningItems: make(map[int]QueueItem), LastCheckedMinute: -1, LastTickSecond: -1},
	}
}

// SetRainDelay sets an absolute stop time `hours` from now; zero cancels
// any active delay immediately.
func (c *Controller) SetRainDelay(now time.Time, hours int) {
	if hours <= 0 {
		c.State.RainDelayStopTime = time.Time{}
		c.State.RainDelayed = false
		return
	}
	c.State.RainDelayStopTime = now.Add(time.Duration(hours) * time.Hour)
}

// Pause suspends the queue for `d`, shortening running items to their
// remaining duration and pushing everything else out by d.
func (c *Controller) Pause(now time.Time, d time.Duration) {
	c.Scheduler.queue.Pause(now, d)
	c.State.Paused = true
	c.State.PauseTimer = d
	c.State.pauseDuration = d
}

// Resume unconditionally cancels a pause, reversing the prior Pause shift.
func (c *Controller) Resume() {
	if !c.State.Paused {
		return
	}
	c.Scheduler.queue.Resume(c.State.pauseDuration)
	c.State.Paused = false
	c.State.PauseTimer = 0
	c.State.pauseDuration = 0
}

// StopAllStations clears the queue and the shift register, regardless of
// any runs in flight.
func (c *Controller) StopAllStations() {
	c.Scheduler.StopAll()
	c.Output.ClearAll()
	_ = c.Output.Apply(c.Options.DeviceEnabled)
}

// watering Gate: a station should be skipped from program admission when
// rain-delayed globally, or when rain is sensed and neither the global
// ignore-rain option nor the station's own ignore-rain flag applies.
func (c *Controller) shouldSkipStation(stationID int) bool {
	if c.State.RainDelayed {
		return true
	}
	rainSensed := c.Sensors != nil && c.Sensors.RainSensed()
	if !rainSensed {
		return false
	}
	if c.Options.IgnoreRainGlobally {
		return false
	}
	st, err := c.Stations.Get(stationID)
	if err != nil {
		return true
	}
	return !st.IgnoreRain
}

// Tick advances the controller by exactly one logical second. Calling it
// twice within the same integer second is a no-op the second time,
// matching the at-most-one-tick-per-second invariant.
func (c *Controller) Tick(ctx context.Context, now time.Time, sunriseMin, sunsetMin int) {
	epochSecond := now.Unix()
	if epochSecond == c.State.LastTickSecond {
		return
	}
	c.State.LastTickSecond = epochSecond

	c.tickRainDelay(now)
	c.tickSensors(now)

	if now.Hour()*60+now.Minute() != c.State.LastCheckedMinute {
		c.State.LastCheckedMinute = now.Hour()*60 + now.Minute()
		c.matchAndAdmitPrograms(now, sunriseMin, sunsetMin)
	}

	c.tickPauseCountdown()

	active := c.activeSet(now)
	c.applyStationBits(active)
	c.applyMasterBits(now)
	c.actuateNetworkStations(ctx, now, active)
	c.detectChanges(now, active)
	_ = c.Output.Apply(c.Options.DeviceEnabled)

	c.Scheduler.RaiseSequentialStopTimes(now)
}

func (c *Controller) tickRainDelay(now time.Time) {
	if !c.State.RainDelayed && !c.State.RainDelayStopTime.IsZero() && c.State.RainDelayStopTime.After(now) {
		c.State.RainDelayed = true
	} else if c.State.RainDelayed && !now.Before(c.State.RainDelayStopTime) {
		c.State.RainDelayed = false
	}
}

func (c *Controller) tickSensors(now time.Time) {
	if c.Sensors == nil || c.ReadSensorPins == nil {
		return
	}
	raw1, raw2 := c.ReadSensorPins()
	changed1, changed2 := c.Sensors.Poll(now, raw1, raw2)
	if c.LogSink == nil {
		return
	}
	if changed1 {
		c.LogSink.RecordSensorChange(1, c.Sensors.Sensor1.Active, now)
	}
	if changed2 {
		c.LogSink.RecordSensorChange(2, c.Sensors.Sensor2.Active, now)
	}
}

func (c *Controller) matchAndAdmitPrograms(now time.Time, sunriseMin, sunsetMin int) {
	var toDelete []int
	for _, p := range c.Programs.All() {
		if !p.Enabled {
			continue
		}
		m := MatchProgram(&p, now, sunriseMin, sunsetMin)
		if !m.Matched {
			continue
		}
		c.Scheduler.ScheduleProgram(now, &p, c.shouldSkipStation)
		if p.Type == ProgramSingleRun {
			toDelete = append(toDelete, p.ID)
		}
	}
	for _, id := range toDelete {
		c.Programs.Delete(id)
	}
}

func (c *Controller) tickPauseCountdown() {
	if !c.State.Paused {
		return
	}
	c.State.PauseTimer -= time.Second
	if c.State.PauseTimer <= 0 {
		c.State.Paused = false
		c.State.PauseTimer = 0
		c.State.pauseDuration = 0
	}
}

// activeSet returns the queue items running at now, keyed by station id. It
// removes dequeueable items first, so a station whose run just ended this
// tick will not appear here -- but its last-known item is still available
// via State.prevRunningItems for detectChanges to log.
func (c *Controller) activeSet(now time.Time) map[int]QueueItem {
	if c.State.Paused {
		return map[int]QueueItem{}
	}
	c.Scheduler.queue.RemoveDequeueable(now)
	out := make(map[int]QueueItem)
	for _, it := range c.Scheduler.queue.RunningItems(now) {
		out[it.StationID] = it
	}
	return out
}

// applyStationBits sets every station's output bit from the active set,
// except the physical master/pump relay stations themselves -- those are
// driven by applyMasterBits from lead/lag timing, not straight membership.
func (c *Controller) applyStationBits(active map[int]QueueItem) {
	master1 := c.Options.Master1.StationID1Based - 1
	master2 := c.Options.Master2.StationID1Based - 1
	for _, st := range c.Stations.All() {
		if st.ID == master1 || st.ID == master2 {
			continue
		}
		_, on := active[st.ID]
		_ = c.Output.SetBit(st.ID, on)
	}
}

func (c *Controller) applyMasterBits(now time.Time) {
	if c.Options.Master1.StationID1Based > 0 {
		on := c.Scheduler.MasterShouldBeOn(now, c.Options.Master1)
		_ = c.Output.SetBit(c.Options.Master1.StationID1Based-1, on)
	}
	if c.Options.Master2.StationID1Based > 0 {
		on := c.Scheduler.MasterShouldBeOn(now, c.Options.Master2)
		_ = c.Output.SetBit(c.Options.Master2.StationID1Based-1, on)
	}
}

func (c *Controller) detectChanges(now time.Time, active map[int]QueueItem) {
	for id, it := range c.State.prevRunningItems {
		if _, stillActive := active[id]; stillActive {
			continue
		}
		if c.LogSink != nil {
			run := CompletedRun{
				StationID: id,
				ProgramID: it.ProgramID,
				Duration:  it.Duration,
				EndTime:   now,
				Kind:      recordKindForProgram(it.ProgramID),
			}
			c.LogSink.RecordRun(run)
			c.State.LastRun = &run
		}
		if c.Telemetry != nil {
			c.Telemetry.ValveChanged(id, false, now)
		}
	}
	// Every station active this tick reports to telemetry, whether it was
	// already on (on->on) or just turned on (off->on); only the turn-off
	// edge above reports a false value. See DESIGN.md's open question notes.
	if c.Telemetry != nil {
		for id := range active {
			c.Telemetry.ValveChanged(id, true, now)
		}
	}
	c.State.prevRunningItems = active
}

func (c *Controller) actuateNetworkStations(ctx context.Context, now time.Time, active map[int]QueueItem) {
	if c.Network == nil {
		return
	}
	for _, st := range c.Stations.All() {
		if !st.Kind.IsNetwork() {
			continue
		}
		_, on := active[st.ID]
		_ = c.Network.Actuate(ctx, st, on)
	}
}
