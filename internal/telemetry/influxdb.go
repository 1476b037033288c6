// Package telemetry implements the optional InfluxDB line-protocol
// exporter (core.TelemetrySink), disabled unless a write URL is configured.
package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// InfluxExporter POSTs a line-protocol body to an InfluxDB HTTP write
// endpoint on every ValveChanged call. Failures are logged and
// swallowed -- best-effort telemetry must never interrupt watering.
type InfluxExporter struct {
	WriteURL string
	Client   *http.Client
	logger   *zap.SugaredLogger

	highestActive map[int]bool
}

// NewInfluxExporter returns an exporter posting to writeURL (e.g.
// "http://localhost:8086/write?db=sprinklerd").
func NewInfluxExporter(writeURL string, logger *zap.SugaredLogger) *InfluxExporter {
	return &InfluxExporter{
		WriteURL:      writeURL,
		Client:        &http.Client{Timeout: 5 * time.Second},
		logger:        logger,
		highestActive: make(map[int]bool),
	}
}

// ValveChanged implements core.TelemetrySink.
func (e *InfluxExporter) ValveChanged(stationID int, active bool, at time.Time) {
	e.highestActive[stationID] = active
	ts := at.UnixNano()

	v := 0
	if active {
		v = 1
	}
	body := fmt.Sprintf("valve%d value=%d %d\nvalves value=%d %d\n", stationID, v, ts, e.highestActiveID(), ts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.WriteURL, bytes.NewBufferString(body))
	if err != nil {
		return
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		if e.logger != nil {
			e.logger.Warnw("influxdb export failed", "error", err)
		}
		return
	}
	resp.Body.Close()
}

// highestActiveID returns the highest 1-based station id currently active,
// or 0 if none are, per spec section 6's "valves" aggregate line.
func (e *InfluxExporter) highestActiveID() int {
	highest := 0
	for id, active := range e.highestActive {
		if active && id+1 > highest {
			highest = id + 1
		}
	}
	return highest
}
