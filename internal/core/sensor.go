package core

import (
	"time"

	"github.com/sprinklerd/sprinklerd/internal/constants"
)

// SensorKind distinguishes a rain sensor from a soil-moisture sensor for the
// purposes of the rain/soil aggregate predicates below.
type SensorKind int

const (
	SensorRain SensorKind = iota
	SensorSoil
)

// SensorOption is the sensor's normally-open/normally-closed wiring, which
// determines which raw pin level counts as "triggered".
type SensorOption int

const (
	SensorNC SensorOption = iota // triggered when the circuit opens
	SensorNO                     // triggered when the circuit closes
)

// Sensor is one binary rain/soil input and its debounce state. Timers are
// stored as absolute epoch times, not countdowns, so the debouncer is a
// pure function of (raw reading, now) with no hidden per-tick decrement.
type Sensor struct {
	Kind SensorKind
	Option SensorOption

	OnDelay  time.Duration
	OffDelay time.Duration

	RawState bool
	Active   bool

	onTimer  time.Time
	offTimer time.Time

	LastActiveTime time.Time
}

// NewSensor returns a Sensor with delays clamped to the spec's 5s floor.
func NewSensor(kind SensorKind, option SensorOption, onDelay, offDelay time.Duration) *Sensor {
	if onDelay < constants.MinSensorDelaySeconds*time.Second {
		onDelay = constants.MinSensorDelaySeconds * time.Second
	}
	if offDelay < constants.MinSensorDelaySeconds*time.Second {
		offDelay = constants.MinSensorDelaySeconds * time.Second
	}
	return &Sensor{Kind: kind, Option: option, OnDelay: onDelay, OffDelay: offDelay}
}

// Poll feeds one raw pin reading through the debounce state machine and
// reports whether Active just changed (a rising or falling edge).
func (s *Sensor) Poll(now time.Time, raw bool) (changed bool) {
	s.RawState = raw

	triggered := raw != (s.Option == SensorNO)
	wasActive := s.Active

	if triggered {
		s.offTimer = time.Time{}
		if s.onTimer.IsZero() {
			s.onTimer = now.Add(s.OnDelay)
		} else if !now.Before(s.onTimer) {
			s.Active = true
		}
	} else {
		s.onTimer = time.Time{}
		if s.offTimer.IsZero() {
			s.offTimer = now.Add(s.OffDelay)
		} else if !now.Before(s.offTimer) {
			s.Active = false
		}
	}

	if s.Active && !wasActive {
		s.LastActiveTime = now
	}
	return s.Active != wasActive
}

// Sensors is the controller's pair of binary sensor inputs (rain and/or
// soil), each independently optional.
type Sensors struct {
	Sensor1 *Sensor
	Sensor2 *Sensor
}

// RainSensed reports whether any configured rain-kind sensor is active.
func (s *Sensors) RainSensed() bool {
	return sensorActiveOfKind(s.Sensor1, SensorRain) || sensorActiveOfKind(s.Sensor2, SensorRain)
}

// SoilSensed reports whether any configured soil-kind sensor is active.
func (s *Sensors) SoilSensed() bool {
	return sensorActiveOfKind(s.Sensor1, SensorSoil) || sensorActiveOfKind(s.Sensor2, SensorSoil)
}

func sensorActiveOfKind(s *Sensor, kind SensorKind) bool {
	return s != nil && s.Kind == kind && s.Active
}

// Poll polls both configured sensors and reports which changed.
func (s *Sensors) Poll(now time.Time, raw1, raw2 bool) (sensor1Changed, sensor2Changed bool) {
	if s.Sensor1 != nil {
		sensor1Changed = s.Sensor1.Poll(now, raw1)
	}
	if s.Sensor2 != nil {
		sensor2Changed = s.Sensor2.Poll(now, raw2)
	}
	return
}
