package logstore

import (
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
)

// Fanout broadcasts every record to each configured core.LogSink, letting
// the daily JSON log and the optional Postgres history store both observe
// the same stream without the controller knowing either exists.
type Fanout []core.LogSink

// RecordRun implements core.LogSink.
func (f Fanout) RecordRun(run core.CompletedRun) {
	for _, sink := range f {
		sink.RecordRun(run)
	}
}

// RecordSensorChange implements core.LogSink.
func (f Fanout) RecordSensorChange(sensorNum int, active bool, at time.Time) {
	for _, sink := range f {
		sink.RecordSensorChange(sensorNum, active, at)
	}
}
