// Package effector actuates network station kinds (http, remote_ip, rf)
// that the shift-register driver cannot reach directly. Spec section 1
// scopes their wire protocols out of the core; the core only knows it must
// call an Effector before Apply for any station of a network kind.
package effector

import (
	"context"

	"github.com/sprinklerd/sprinklerd/internal/core"
)

// Effector turns a desired on/off state for a network station into whatever
// action its kind requires (an HTTP GET, a TCP command, an RF code send).
type Effector interface {
	Actuate(ctx context.Context, station core.Station, on bool) error
}

// Chain dispatches to the first Effector whose Kind equals the station's
// kind, letting callers compose one Effector per station kind.
type Chain []KindEffector

// KindEffector pairs an Effector with the kind it serves.
type KindEffector struct {
	Kind core.StationKind
	Effector
}

// Actuate dispatches to the registered effector for station.Kind. Stations
// of unregistered network kinds are silently skipped and nil is returned,
// matching the spec's best-effort posture for external actuators.
func (c Chain) Actuate(ctx context.Context, station core.Station, on bool) error {
	for _, ke := range c {
		if ke.Kind == station.Kind {
			return ke.Effector.Actuate(ctx, station, on)
		}
	}
	return nil
}
