// Package snapshot persists the controller's restart-sensitive state
// (last_checked_minute, rain delay) across process restarts, resolving
// the "does last_checked_minute persist" open question: it does, via this
// msgpack-encoded file, so a restart mid-minute cannot double-match a
// program.
package snapshot

import (
	"os"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the on-disk shape of core.State's restart-sensitive fields.
type Snapshot struct {
	RainDelayStopTime time.Time
	RainDelayed       bool
	LastCheckedMinute int
}

// Save msgpack-encodes the relevant fields of state to path.
func Save(path string, state core.State) error {
	snap := Snapshot{
		RainDelayStopTime: state.RainDelayStopTime,
		RainDelayed:       state.RainDelayed,
		LastCheckedMinute: state.LastCheckedMinute,
	}
	b, err := msgpack.Marshal(&snap)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads path and reports the snapshot, or ok=false if the file does
// not exist yet (first boot).
func Load(path string) (snap Snapshot, ok bool, err error) {
	b, readErr := os.ReadFile(path)
	if os.IsNotExist(readErr) {
		return Snapshot{}, false, nil
	}
	if readErr != nil {
		return Snapshot{}, false, readErr
	}
	if err := msgpack.Unmarshal(b, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Apply writes a loaded snapshot's fields back into state.
func Apply(snap Snapshot, state *core.State) {
	state.RainDelayStopTime = snap.RainDelayStopTime
	state.RainDelayed = snap.RainDelayed
	state.LastCheckedMinute = snap.LastCheckedMinute
}
