package config

import (
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
)

// ToCoreStation converts a persisted StationData into a core.Station. The
// caller assigns ID (see core.NewStations).
func ToCoreStation(d StationData) core.Station {
	return core.Station{
		Name:          d.Name,
		Kind:          core.ParseStationKind(d.Kind),
		GroupID:       d.GroupID,
		Master1Bound:  d.Master1Bound,
		Master2Bound:  d.Master2Bound,
		IgnoreSensor1: d.IgnoreSensor1,
		IgnoreSensor2: d.IgnoreSensor2,
		IgnoreRain:    d.IgnoreRain,
		Disabled:      d.Disabled,
		ActivateRelay: d.ActivateRelay,
		KindPayload:   d.KindPayload,
	}
}

// FromCoreStation converts a core.Station back to its persisted form.
func FromCoreStation(s core.Station) StationData {
	return StationData{
		Name:          s.Name,
		Kind:          s.Kind.String(),
		GroupID:       s.GroupID,
		Master1Bound:  s.Master1Bound,
		Master2Bound:  s.Master2Bound,
		IgnoreSensor1: s.IgnoreSensor1,
		IgnoreSensor2: s.IgnoreSensor2,
		IgnoreRain:    s.IgnoreRain,
		Disabled:      s.Disabled,
		ActivateRelay: s.ActivateRelay,
		KindPayload:   s.KindPayload,
	}
}

var programTypeNames = map[core.ProgramType]string{
	core.ProgramWeekly:    "weekly",
	core.ProgramSingleRun: "single_run",
	core.ProgramMonthly:   "monthly",
	core.ProgramInterval:  "interval",
}

var programTypeValues = map[string]core.ProgramType{
	"weekly":     core.ProgramWeekly,
	"single_run": core.ProgramSingleRun,
	"monthly":    core.ProgramMonthly,
	"interval":   core.ProgramInterval,
}

var oddEvenNames = map[core.OddEven]string{
	core.OddEvenNone: "",
	core.OddEvenOdd:  "odd",
	core.OddEvenEven: "even",
}

var oddEvenValues = map[string]core.OddEven{
	"":     core.OddEvenNone,
	"odd":  core.OddEvenOdd,
	"even": core.OddEvenEven,
}

// ToCoreProgram converts a persisted ProgramData into a core.Program. The
// caller assigns ID (see core.Programs.Add/Update).
func ToCoreProgram(d ProgramData) core.Program {
	mode := core.StartTimeFixed
	if d.StartTimeMode == "repeating" {
		mode = core.StartTimeRepeating
	}
	return core.Program{
		Name:          d.Name,
		Enabled:       d.Enabled,
		UseWeather:    d.UseWeather,
		Type:          programTypeValues[d.Type],
		OddEven:       oddEvenValues[d.OddEven],
		StartTimeMode: mode,
		Days:          d.Days,
		StartTimes:    d.StartTimes,
		Durations:     append([]int(nil), d.Durations...),
		DateRangeConfig: core.DateRange{
			Enabled: d.DateRangeOn,
			From:    d.DateRangeFrom,
			To:      d.DateRangeTo,
		},
	}
}

// FromCoreProgram converts a core.Program back to its persisted form.
func FromCoreProgram(p core.Program) ProgramData {
	mode := "fixed"
	if p.StartTimeMode == core.StartTimeRepeating {
		mode = "repeating"
	}
	return ProgramData{
		Name:          p.Name,
		Enabled:       p.Enabled,
		UseWeather:    p.UseWeather,
		Type:          programTypeNames[p.Type],
		OddEven:       oddEvenNames[p.OddEven],
		StartTimeMode: mode,
		Days:          p.Days,
		StartTimes:    p.StartTimes,
		Durations:     append([]int(nil), p.Durations...),
		DateRangeOn:   p.DateRangeConfig.Enabled,
		DateRangeFrom: p.DateRangeConfig.From,
		DateRangeTo:   p.DateRangeConfig.To,
	}
}

// ToCoreOptions splits the flat OptionsData document into the pieces
// core.Controller expects: the options view, both master configs, and the
// sensor pair (nil entries for unconfigured sensors).
func ToCoreOptions(o OptionsData) (core.Options, *core.Sensor, *core.Sensor) {
	opts := core.Options{
		DeviceEnabled:      o.DeviceEnabled,
		IgnoreRainGlobally: o.IgnoreRainGlobally,
		Master1: core.MasterConfig{
			StationID1Based: o.Master1Station,
			OnAdjust:        time.Duration(o.Master1OnAdjustS) * time.Second,
			OffAdjust:       time.Duration(o.Master1OffAdjustS) * time.Second,
		},
		Master2: core.MasterConfig{
			StationID1Based: o.Master2Station,
			OnAdjust:        time.Duration(o.Master2OnAdjustS) * time.Second,
			OffAdjust:       time.Duration(o.Master2OffAdjustS) * time.Second,
		},
	}
	sensor1 := buildSensor(o.Sensor1Kind, o.Sensor1Option, o.Sensor1OnDelayS, o.Sensor1OffDelayS)
	sensor2 := buildSensor(o.Sensor2Kind, o.Sensor2Option, o.Sensor2OnDelayS, o.Sensor2OffDelayS)
	return opts, sensor1, sensor2
}

func buildSensor(kind, option string, onDelayS, offDelayS int) *core.Sensor {
	if kind == "" {
		return nil
	}
	k := core.SensorRain
	if kind == "soil" {
		k = core.SensorSoil
	}
	o := core.SensorNC
	if option == "no" {
		o = core.SensorNO
	}
	return core.NewSensor(k, o, time.Duration(onDelayS)*time.Second, time.Duration(offDelayS)*time.Second)
}
