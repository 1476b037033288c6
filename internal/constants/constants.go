// Package constants defines application-wide constants and version information.
package constants

// Version holds the application version information. This is set at build time via -ldflags.
var Version = "1.0.0"

// CommitID holds the git commit hash. This is set at build time via -ldflags.
var CommitID = "unknown"

const (
	// MaxBoards is the number of 74HC595 shift-register boards supported.
	MaxBoards = 25
	// MaxStations is MaxBoards*8, the number of stations supported (ids 0..MaxStations-1).
	MaxStations = MaxBoards * 8
	// MaxPrograms is the capacity of the program store.
	MaxPrograms = 40
	// NumSequentialGroups is the count of serialized run-order buckets (0-3).
	NumSequentialGroups = 4
	// GroupParallel is the sentinel group id meaning "ignore serialization".
	GroupParallel = 255

	// ProgramIDManual is the reserved program id for manual station runs.
	ProgramIDManual = 99
	// ProgramIDRunOnce is the reserved program id for run-once requests.
	ProgramIDRunOnce = 254

	// MinSensorDelaySeconds is the enforced floor on sensor on/off debounce delays.
	MinSensorDelaySeconds = 5
)
