// Package solar computes sunrise and sunset clock times for a station's
// configured location. The scheduler core never touches latitude or
// longitude directly -- it only consumes the minutes-from-midnight values
// this package produces, per day, for the program matcher's solar-relative
// start times.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/unit"
)

// Times holds a day's sunrise and sunset expressed as minutes past local
// midnight. A value of -1 for either field means the sun does not cross
// the horizon that day (polar day or polar night at high latitudes).
type Times struct {
	SunriseMinute int
	SunsetMinute  int
}

// Calculate returns sunrise and sunset, in minutes from midnight in loc,
// for the civil date carried by `day` at the given latitude/longitude
// (degrees, north/east positive).
func Calculate(day time.Time, loc *time.Location, latitude, longitude float64) Times {
	noonLocal := time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	jd := julian.TimeToJD(noonLocal.UTC())

	decl := declination(jd)
	latRad := unit.AngleFromDeg(latitude)

	cosH := -math.Tan(float64(latRad)) * math.Tan(float64(decl))
	if cosH <= -1.0 || cosH >= 1.0 {
		// Midnight sun or polar night: no rise/set this day.
		return Times{SunriseMinute: -1, SunsetMinute: -1}
	}

	hourAngle := unit.Angle(math.Acos(cosH))
	halfDayMinutes := hourAngle.Deg() / 15.0 * 60.0

	eot := equationOfTimeMinutes(jd)
	solarNoonUTCMin := 720.0 - longitude*4.0 - eot

	_, tzOffset := noonLocal.Zone()
	solarNoonLocalMin := solarNoonUTCMin + float64(tzOffset)/60.0

	sunrise := normalizeMinute(solarNoonLocalMin - halfDayMinutes)
	sunset := normalizeMinute(solarNoonLocalMin + halfDayMinutes)

	return Times{SunriseMinute: sunrise, SunsetMinute: sunset}
}

// declination returns the sun's apparent declination for the given Julian
// day using the low-precision approximation from Meeus chapter 25,
// sufficient for minute-resolution sunrise/sunset.
func declination(jd float64) unit.Angle {
	d := jd - 2451545.0
	meanAnomaly := unit.AngleFromDeg(357.5291 + 0.98560028*d)
	meanLongitude := unit.AngleFromDeg(280.459 + 0.98564736*d)
	eclipticLongitudeDeg := meanLongitude.Deg() +
		1.915*math.Sin(float64(meanAnomaly)) +
		0.020*math.Sin(2*float64(meanAnomaly))
	obliquity := unit.AngleFromDeg(23.439 - 0.00000036*d)

	sinDecl := math.Sin(float64(obliquity)) * math.Sin(float64(unit.AngleFromDeg(eclipticLongitudeDeg)))
	return unit.Angle(math.Asin(sinDecl))
}

// equationOfTimeMinutes approximates the equation of time in minutes using
// the Spencer (1971) Fourier series on the fractional year angle.
func equationOfTimeMinutes(jd float64) float64 {
	dayOfYear := math.Mod(jd-2451545.0-0.5, 365.25)
	gamma := 2 * math.Pi / 365.25 * dayOfYear
	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	return eqTime
}

func normalizeMinute(m float64) int {
	m = math.Mod(m, 1440)
	if m < 0 {
		m += 1440
	}
	return int(math.Round(m))
}

// ClockString renders a minutes-from-midnight value as a h:mm AM/PM string
// for display purposes. Returns "" for the no-rise/no-set sentinel -1.
func ClockString(minute int) string {
	if minute < 0 {
		return ""
	}
	t := time.Date(2000, 1, 1, 0, minute, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}
