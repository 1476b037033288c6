// Package logstore persists completed-run and sensor-transition records
// (core.LogSink) to the file-based daily log format and, optionally, to a
// durable Postgres history table.
package logstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
	"go.uber.org/zap"
)

// recordKind matches the wire record_type encoding from spec section 6.
const (
	recordProgram = 0
	recordManual  = 1
	recordRunOnce = 2
	recordSensor  = 3
)

func wireRecordKind(k core.RecordKind) int {
	switch k {
	case core.RecordManual:
		return recordManual
	case core.RecordRunOnce:
		return recordRunOnce
	case core.RecordSensor:
		return recordSensor
	default:
		return recordProgram
	}
}

// entry is one row of a logs/YYYYMMDD.json array:
// [program_id, station_id, duration_s, epoch_end, record_type].
type entry [5]int64

// DailyLogStore appends completed-run and sensor records to one JSON file
// per calendar day under dir, grounded on the teacher's file-backed
// logging conventions (internal/log's buffer-to-disk posture) but
// specialized to the fixed 5-field array the legacy API expects.
type DailyLogStore struct {
	dir    string
	logger *zap.SugaredLogger

	mu      sync.Mutex
	day     string
	entries []entry
}

// NewDailyLogStore returns a store rooted at dir, creating it if absent.
func NewDailyLogStore(dir string, logger *zap.SugaredLogger) (*DailyLogStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("logstore: create dir: %w", err)
	}
	return &DailyLogStore{dir: dir, logger: logger}, nil
}

func (s *DailyLogStore) pathFor(t time.Time) string {
	return filepath.Join(s.dir, t.Format("20060102")+".json")
}

// ensureLoaded loads today's file into memory the first time it's touched
// in a process, so appends don't clobber entries from earlier in the day.
func (s *DailyLogStore) ensureLoaded(t time.Time) {
	day := t.Format("20060102")
	if s.day == day {
		return
	}
	s.day = day
	s.entries = nil
	b, err := os.ReadFile(s.pathFor(t))
	if err != nil {
		return
	}
	_ = json.Unmarshal(b, &s.entries)
}

func (s *DailyLogStore) flush(t time.Time) {
	b, err := json.Marshal(s.entries)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorw("logstore marshal failed", "error", err)
		}
		return
	}
	if err := os.WriteFile(s.pathFor(t), b, 0o644); err != nil {
		if s.logger != nil {
			s.logger.Errorw("logstore write failed", "error", err)
		}
	}
}

// RecordRun implements core.LogSink.
func (s *DailyLogStore) RecordRun(run core.CompletedRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(run.EndTime)
	s.entries = append(s.entries, entry{
		int64(run.ProgramID),
		int64(run.StationID),
		int64(run.Duration / time.Second),
		run.EndTime.Unix(),
		int64(wireRecordKind(run.Kind)),
	})
	s.flush(run.EndTime)
}

// RecordSensorChange implements core.LogSink. Sensor events use the
// pseudo station id 200+sensorNum-1 and duration 1/0 for active/inactive,
// per spec section 6.
func (s *DailyLogStore) RecordSensorChange(sensorNum int, active bool, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(at)
	dur := int64(0)
	if active {
		dur = 1
	}
	s.entries = append(s.entries, entry{
		0,
		int64(200 + sensorNum - 1),
		dur,
		at.Unix(),
		recordSensor,
	})
	s.flush(at)
}

// Load reads back the full set of records for the given day, for history
// queries. Returns nil, nil if no log file exists for that day.
func (s *DailyLogStore) Load(day time.Time) ([][5]int64, error) {
	b, err := os.ReadFile(s.pathFor(day))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out [][5]int64
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
