package core

import (
	"fmt"

	"github.com/sprinklerd/sprinklerd/internal/constants"
)

// StationKind tags how a station is actuated. Standard and Gpio stations are
// driven directly through the shift-register bit array; the remaining kinds
// are network stations whose actuation is delegated to an Effector.
type StationKind int

const (
	KindStandard StationKind = iota
	KindGPIO
	KindHTTP
	KindRemoteIP
	KindRF
)

// String renders the kind the way the wire API and YAML files spell it.
func (k StationKind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindGPIO:
		return "gpio"
	case KindHTTP:
		return "http"
	case KindRemoteIP:
		return "remote_ip"
	case KindRF:
		return "rf"
	default:
		return "unknown"
	}
}

// ParseStationKind is the inverse of String; unrecognized input is KindStandard.
func ParseStationKind(s string) StationKind {
	switch s {
	case "gpio":
		return KindGPIO
	case "http":
		return KindHTTP
	case "remote_ip":
		return KindRemoteIP
	case "rf":
		return KindRF
	default:
		return KindStandard
	}
}

// IsNetwork reports whether this kind's actuation must be delegated to an Effector.
func (k StationKind) IsNetwork() bool {
	switch k {
	case KindHTTP, KindRemoteIP, KindRF:
		return true
	default:
		return false
	}
}

// Station is a single solenoid output channel. Its identity is its stable
// 0-based index within the Stations set; that index also determines its
// shift-register board and bit position.
type Station struct {
	ID            int
	Name          string
	Kind          StationKind
	GroupID       int // 0..NumSequentialGroups-1, or constants.GroupParallel
	Master1Bound  bool
	Master2Bound  bool
	IgnoreSensor1 bool
	IgnoreSensor2 bool
	IgnoreRain    bool
	Disabled      bool
	ActivateRelay bool // true = active-high actuation at the board

	// KindPayload carries kind-specific actuation parameters (host/port for
	// KindHTTP, IP/port/remote-station-id for KindRemoteIP, a code for
	// KindRF). Populated and interpreted only by the Effector.
	KindPayload map[string]string
}

// Board returns the 0-based shift-register board this station lives on.
func (s Station) Board() int { return s.ID >> 3 }

// Bit returns the 0-based bit position within Board().
func (s Station) Bit() uint { return uint(s.ID & 7) }

// Runnable reports whether the station can be admitted to the queue at all.
func (s Station) Runnable() bool {
	return !s.Disabled
}

// Stations is the fixed-identity station set, indexed by Station.ID.
type Stations struct {
	list []Station
}

// NewStations builds a Stations set from an ordered slice; the slice index
// becomes each station's ID, overriding any ID already set on the element.
func NewStations(list []Station) *Stations {
	out := make([]Station, len(list))
	for i, s := range list {
		s.ID = i
		out[i] = s
	}
	return &Stations{list: out}
}

// Count returns the number of stations in the set.
func (s *Stations) Count() int { return len(s.list) }

// Get returns the station at id, or an error if id is out of range.
func (s *Stations) Get(id int) (Station, error) {
	if id < 0 || id >= len(s.list) {
		return Station{}, fmt.Errorf("station id %d out of range [0,%d)", id, len(s.list))
	}
	return s.list[id], nil
}

// Set replaces the station at id, keeping id stable.
func (s *Stations) Set(id int, st Station) error {
	if id < 0 || id >= len(s.list) {
		return fmt.Errorf("station id %d out of range [0,%d)", id, len(s.list))
	}
	st.ID = id
	s.list[id] = st
	return nil
}

// All returns a snapshot copy of every station, in ID order.
func (s *Stations) All() []Station {
	out := make([]Station, len(s.list))
	copy(out, s.list)
	return out
}

// InRange reports whether id names a station in this set.
func (s *Stations) InRange(id int) bool {
	return id >= 0 && id < len(s.list)
}

// MasterIndex returns the 1-based master number (1 or 2) this station is
// bound to, or 0 if it isn't a bound master zone.
func (s Station) MasterIndex() int {
	if s.Master1Bound {
		return 1
	}
	if s.Master2Bound {
		return 2
	}
	return 0
}

// NumBoards returns how many shift-register boards this station count spans.
func NumBoards(stationCount int) int {
	n := (stationCount + 7) / 8
	if n > constants.MaxBoards {
		n = constants.MaxBoards
	}
	return n
}
