package effector

import (
	"context"

	"github.com/sprinklerd/sprinklerd/internal/core"
	"go.uber.org/zap"
)

// RFEffector actuates KindRF stations by logging the transmit request.
// Real RF station actuation requires a transmitter (e.g. a 433MHz module
// driven by its own device tree overlay) outside this repo's hardware
// contract; this effector exists so RF stations still participate in the
// scheduler and get a clearly logged "would have transmitted" record.
type RFEffector struct {
	logger *zap.SugaredLogger
}

// NewRFEffector returns an RFEffector that logs via logger.
func NewRFEffector(logger *zap.SugaredLogger) *RFEffector {
	return &RFEffector{logger: logger}
}

// Actuate logs the RF code that would be transmitted for station.
func (e *RFEffector) Actuate(_ context.Context, station core.Station, on bool) error {
	code := station.KindPayload["code"]
	e.logger.Infow("rf station actuation", "station_id", station.ID, "on", on, "code", code)
	return nil
}
