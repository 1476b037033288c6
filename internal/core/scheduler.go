package core

import (
	"time"

	"github.com/sprinklerd/sprinklerd/internal/constants"
)

// QueueOption modifies how Scheduler.ScheduleStation places a run.
type QueueOption int

const (
	// QueueNormal places the run per the station's group (parallel or
	// sequential-ordered behind its group's last stop time).
	QueueNormal QueueOption = iota
	// QueueInsertFront starts the run immediately, bypassing sequential
	// ordering. Used by certain manual admission paths.
	QueueInsertFront
	// QueueReplace clears the entire queue and zeroes sequential stop
	// times before admitting this run.
	QueueReplace
)

// MasterConfig describes one of the (up to two) pump/relay master stations
// and its lead/lag timing relative to the zones it serves.
type MasterConfig struct {
	// StationID1Based is 1-based per spec; 0 means "no master configured".
	StationID1Based int
	OnAdjust        time.Duration // lead: master turns on this long before the zone
	OffAdjust       time.Duration // lag: master stays on this long after the zone
}

// Scheduler admits runs into the Queue, enforcing sequential-group ordering
// and weather-based duration scaling, and derives master on/off state from
// the queue's contents.
type Scheduler struct {
	stations *Stations
	queue    *Queue

	SunriseMinute int
	SunsetMinute  int
	WaterPercent  int // 0-200, 100 = no adjustment

	lastSeqStopTimes [constants.NumSequentialGroups]time.Time
}

// NewScheduler wires a Scheduler to a station set and queue it does not own
// exclusively -- the controller is the sole mutator, per spec section 5.
func NewScheduler(stations *Stations, queue *Queue) *Scheduler {
	return &Scheduler{stations: stations, queue: queue, WaterPercent: 100}
}

// DurationFor applies weather scaling to a program's base per-station
// duration: if the program doesn't use weather adjustment, the base
// duration passes through unchanged. Otherwise it is scaled by
// WaterPercent, and very short adjusted durations at low percentages are
// skipped entirely (the station would barely wet the ground).
func (s *Scheduler) DurationFor(useWeather bool, base int) time.Duration {
	if !useWeather {
		return time.Duration(base) * time.Second
	}
	adjusted := base * s.WaterPercent / 100
	if s.WaterPercent < 20 && adjusted < 10 {
		return 0
	}
	return time.Duration(adjusted) * time.Second
}

// ScheduleStation admits a single station run. It rejects runs for
// disabled or out-of-range stations, and refuses (ErrAlreadyQueued) if the
// station already has a live queue entry.
func (s *Scheduler) ScheduleStation(now time.Time, stationID, programID int, duration time.Duration, opt QueueOption) error {
	st, err := s.stations.Get(stationID)
	if err != nil {
		return ErrOutOfRange
	}
	if !st.Runnable() {
		return ErrDisabled
	}
	if duration <= 0 {
		return nil
	}

	if opt == QueueReplace {
		s.queue.Clear()
		s.lastSeqStopTimes = [constants.NumSequentialGroups]time.Time{}
	}

	if s.queue.StationQueued(stationID) {
		return ErrAlreadyQueued
	}

	var start, dequeue time.Time

	switch {
	case opt == QueueInsertFront:
		start = now
		dequeue = now.Add(duration)
	case st.GroupID == constants.GroupParallel:
		start = now
		dequeue = start.Add(duration)
	default:
		g := st.GroupID
		if g < 0 || g >= constants.NumSequentialGroups {
			g = constants.NumSequentialGroups - 1
		}
		start = now
		if s.lastSeqStopTimes[g].After(start) {
			start = s.lastSeqStopTimes[g]
		}
		s.lastSeqStopTimes[g] = start.Add(duration)
		dequeue = start.Add(duration)
	}

	return s.queue.Enqueue(stationID, programID, start, duration, dequeue)
}

// ScheduleProgram admits every station with a non-zero duration in the
// program. Per-station filtering (rain gating) is the controller's job,
// not the scheduler's; see spec section 4.7.
func (s *Scheduler) ScheduleProgram(now time.Time, p *Program, skip func(stationID int) bool) {
	for _, st := range s.stations.All() {
		base := p.DurationFor(st.ID)
		if base <= 0 {
			continue
		}
		if skip != nil && skip(st.ID) {
			continue
		}
		duration := s.DurationFor(p.UseWeather, base)
		if duration <= 0 {
			continue
		}
		_ = s.ScheduleStation(now, st.ID, p.ID, duration, QueueNormal)
	}
}

// ManualRun admits a single station run tagged with the reserved manual
// program id.
func (s *Scheduler) ManualRun(now time.Time, stationID int, duration time.Duration) error {
	return s.ScheduleStation(now, stationID, constants.ProgramIDManual, duration, QueueNormal)
}

// RunOnce admits a single station run tagged with the reserved run-once
// program id, replacing the entire queue first (per spec section 4.5).
func (s *Scheduler) RunOnce(now time.Time, stationID int, duration time.Duration) error {
	return s.ScheduleStation(now, stationID, constants.ProgramIDRunOnce, duration, QueueReplace)
}

// StopAll clears the queue and resets sequential-group stop times.
func (s *Scheduler) StopAll() {
	s.queue.Clear()
	s.lastSeqStopTimes = [constants.NumSequentialGroups]time.Time{}
}

// MasterShouldBeOn reports whether the master at masterIndex (1 or 2)
// should be energized at `now`, given its lead/lag adjustment. A
// StationID1Based of 0 means no master is configured for that slot.
func (s *Scheduler) MasterShouldBeOn(now time.Time, cfg MasterConfig) bool {
	if cfg.StationID1Based <= 0 {
		return false
	}

	for _, it := range s.queue.All() {
		st, err := s.stations.Get(it.StationID)
		if err != nil {
			continue
		}
		if !boundTo(st, cfg.StationID1Based) {
			continue
		}
		windowStart := it.StartTime.Add(-cfg.OnAdjust)
		windowEnd := it.EndTime().Add(cfg.OffAdjust)
		if !now.Before(windowStart) && now.Before(windowEnd) {
			return true
		}
	}
	return false
}

func boundTo(st Station, masterIndex int) bool {
	return st.MasterIndex() == masterIndex
}

// ProgramStatus is one row of the program status table consumed by the API.
type ProgramStatus struct {
	ProgramID int
	Remaining time.Duration
	StartTime time.Time
	Duration  time.Duration
	Queued    bool
}

// ProgramStatusTable returns, for every station, its current queue status.
func (s *Scheduler) ProgramStatusTable(now time.Time) []ProgramStatus {
	out := make([]ProgramStatus, s.stations.Count())
	for i := range out {
		if it, ok := s.queue.FindByStation(i); ok {
			remaining := it.EndTime().Sub(now)
			if remaining < 0 {
				remaining = 0
			}
			out[i] = ProgramStatus{
				ProgramID: it.ProgramID,
				Remaining: remaining,
				StartTime: it.StartTime,
				Duration:  it.Duration,
				Queued:    true,
			}
		}
	}
	return out
}

// RaiseSequentialStopTimes bumps each group's recorded stop time up to the
// end of any still-future queued item in that group, guarding against
// underflow from concurrent admissions (spec section 4.6 step 11).
func (s *Scheduler) RaiseSequentialStopTimes(now time.Time) {
	for _, it := range s.queue.All() {
		st, err := s.stations.Get(it.StationID)
		if err != nil || st.GroupID == constants.GroupParallel {
			continue
		}
		g := st.GroupID
		if g < 0 || g >= constants.NumSequentialGroups {
			continue
		}
		end := it.EndTime()
		if end.After(now) && end.After(s.lastSeqStopTimes[g]) {
			s.lastSeqStopTimes[g] = end
		}
	}
}
