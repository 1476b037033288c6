package core

import "github.com/sprinklerd/sprinklerd/internal/constants"

// ProgramType selects how Program.Days is interpreted for day matching.
type ProgramType int

const (
	ProgramWeekly ProgramType = iota
	ProgramSingleRun
	ProgramMonthly
	ProgramInterval
)

// OddEven restricts a program to odd- or even-numbered days of the month.
type OddEven int

const (
	OddEvenNone OddEven = iota
	OddEvenOdd
	OddEvenEven
)

// StartTimeMode selects between up to four fixed start times or a single
// start time that repeats at an interval.
type StartTimeMode int

const (
	StartTimeFixed StartTimeMode = iota
	StartTimeRepeating
)

const (
	startTimeDisabledBit     = 1 << 15
	startTimeSunriseBit      = 1 << 14
	startTimeSunsetBit       = 1 << 13
	startTimeNegativeBit     = 1 << 12
	startTimeOffsetMask      = 0x7FF
	startTimeAbsoluteMask    = 0x7FF
	numStartTimeSlots        = 4
	dateRangeDayMask         = 0x1F
	dateRangeMonthShift      = 5
)

// DateRange gates a program to a month/day window; if From > To the window
// wraps across the new year.
type DateRange struct {
	Enabled bool
	From    int // (month<<5)|day
	To      int // (month<<5)|day
}

// Program is a recurring (or one-shot) watering schedule.
type Program struct {
	ID              int
	Name            string
	Enabled         bool
	UseWeather      bool
	Type            ProgramType
	OddEven         OddEven
	StartTimeMode   StartTimeMode
	Days            [2]int
	StartTimes      [numStartTimeSlots]uint16
	Durations       []int // per-station seconds; 0 means "not in this program"
	DateRangeConfig DateRange
}

// DurationFor returns the configured duration for a station, or 0 if the
// station is not part of this program.
func (p *Program) DurationFor(stationID int) int {
	if stationID < 0 || stationID >= len(p.Durations) {
		return 0
	}
	return p.Durations[stationID]
}

// decodedStart is a start-time slot decoded to an offset-from-midnight.
type decodedStart struct {
	minutes int
	ok      bool // false if the slot is disabled or malformed
}

// decodeStartTime interprets one 16-bit start-time slot given the day's
// sunrise/sunset (minutes from midnight). See spec package doc for the bit
// layout: bit15 disabled, bit14 sunrise-relative, bit13 sunset-relative,
// bit12 sign, bits0-10 magnitude in minutes.
func decodeStartTime(encoded uint16, sunriseMin, sunsetMin int) decodedStart {
	if encoded&startTimeDisabledBit != 0 {
		return decodedStart{ok: false}
	}

	if encoded&startTimeSunriseBit != 0 {
		offset := int(encoded & startTimeOffsetMask)
		if encoded&startTimeNegativeBit != 0 {
			offset = -offset
		}
		m := sunriseMin + offset
		if m < 0 {
			m = 0
		}
		return decodedStart{minutes: m, ok: true}
	}

	if encoded&startTimeSunsetBit != 0 {
		offset := int(encoded & startTimeOffsetMask)
		if encoded&startTimeNegativeBit != 0 {
			offset = -offset
		}
		m := sunsetMin + offset
		if m < 0 {
			m = 0
		}
		if m > 1439 {
			m = 1439
		}
		return decodedStart{minutes: m, ok: true}
	}

	return decodedStart{minutes: int(encoded & startTimeAbsoluteMask), ok: true}
}

// EncodeAbsoluteStartTime packs a plain minutes-from-midnight value into the
// wire start-time encoding, with no solar relativity.
func EncodeAbsoluteStartTime(minutesFromMidnight int) uint16 {
	return uint16(minutesFromMidnight & startTimeAbsoluteMask)
}

// EncodeSolarStartTime packs a sunrise- or sunset-relative start time.
func EncodeSolarStartTime(sunrise bool, offsetMinutes int) uint16 {
	var v uint16
	if sunrise {
		v |= startTimeSunriseBit
	} else {
		v |= startTimeSunsetBit
	}
	if offsetMinutes < 0 {
		v |= startTimeNegativeBit
		offsetMinutes = -offsetMinutes
	}
	v |= uint16(offsetMinutes) & startTimeOffsetMask
	return v
}

// EncodeDisabledStartTime returns the sentinel for "this slot is off".
func EncodeDisabledStartTime() uint16 {
	return startTimeDisabledBit
}

// ProgramFlags packs the wire flag byte described in spec section 6.
type ProgramFlags byte

const (
	flagEnabled          ProgramFlags = 1 << 0
	flagUseWeather       ProgramFlags = 1 << 1
	flagOddEvenShift                  = 2
	flagOddEvenMask      ProgramFlags = 0b11 << flagOddEvenShift
	flagTypeShift                     = 4
	flagTypeMask         ProgramFlags = 0b11 << flagTypeShift
	flagFixedStartTime   ProgramFlags = 1 << 6
	flagDateRangeEnabled ProgramFlags = 1 << 7
)

// DecodeFlags unpacks the wire flag byte into a Program's scheduling fields.
func DecodeFlags(b byte) (enabled, useWeather bool, oddEven OddEven, ptype ProgramType, startMode StartTimeMode, dateRangeEnabled bool) {
	f := ProgramFlags(b)
	enabled = f&flagEnabled != 0
	useWeather = f&flagUseWeather != 0
	oddEven = OddEven((f & flagOddEvenMask) >> flagOddEvenShift)
	ptype = ProgramType((f & flagTypeMask) >> flagTypeShift)
	if f&flagFixedStartTime != 0 {
		startMode = StartTimeFixed
	} else {
		startMode = StartTimeRepeating
	}
	dateRangeEnabled = f&flagDateRangeEnabled != 0
	return
}

// EncodeFlags packs a Program's scheduling fields into the wire flag byte.
func EncodeFlags(enabled, useWeather bool, oddEven OddEven, ptype ProgramType, startMode StartTimeMode, dateRangeEnabled bool) byte {
	var f ProgramFlags
	if enabled {
		f |= flagEnabled
	}
	if useWeather {
		f |= flagUseWeather
	}
	f |= ProgramFlags(oddEven) << flagOddEvenShift
	f |= ProgramFlags(ptype) << flagTypeShift
	if startMode == StartTimeFixed {
		f |= flagFixedStartTime
	}
	if dateRangeEnabled {
		f |= flagDateRangeEnabled
	}
	return byte(f)
}

// Programs is the in-memory program store, indexed by Program.ID.
type Programs struct {
	items map[int]*Program
	nextID int
}

// NewPrograms returns an empty program store.
func NewPrograms() *Programs {
	return &Programs{items: make(map[int]*Program), nextID: 0}
}

// Add inserts p, assigning it a fresh ID, and returns that ID. Returns an
// error if the store is at capacity.
func (ps *Programs) Add(p Program) (int, error) {
	if len(ps.items) >= constants.MaxPrograms {
		return 0, ErrCapacity
	}
	id := ps.nextID
	ps.nextID++
	p.ID = id
	ps.items[id] = &p
	return id, nil
}

// Get returns a copy of the program with the given id.
func (ps *Programs) Get(id int) (Program, bool) {
	p, ok := ps.items[id]
	if !ok {
		return Program{}, false
	}
	return *p, true
}

// Update replaces the program at id, preserving its ID.
func (ps *Programs) Update(id int, p Program) error {
	if _, ok := ps.items[id]; !ok {
		return ErrOutOfRange
	}
	p.ID = id
	ps.items[id] = &p
	return nil
}

// Delete removes a program.
func (ps *Programs) Delete(id int) {
	delete(ps.items, id)
}

// All returns every program, unordered.
func (ps *Programs) All() []Program {
	out := make([]Program, 0, len(ps.items))
	for _, p := range ps.items {
		out = append(out, *p)
	}
	return out
}

// Count returns the number of stored programs.
func (ps *Programs) Count() int { return len(ps.items) }
