package effector

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
)

// RemoteIPEffector actuates KindRemoteIP stations -- a second controller on
// the network exposing its own stations over a short line-oriented TCP
// protocol: "STATION <remote-id> <ON|OFF>\n".
type RemoteIPEffector struct {
	DialTimeout time.Duration
}

// NewRemoteIPEffector returns a RemoteIPEffector with a sane dial timeout.
func NewRemoteIPEffector() *RemoteIPEffector {
	return &RemoteIPEffector{DialTimeout: 3 * time.Second}
}

// Actuate dials the remote controller and sends the actuation command.
func (e *RemoteIPEffector) Actuate(ctx context.Context, station core.Station, on bool) error {
	ip := station.KindPayload["ip"]
	port := station.KindPayload["port"]
	remoteStationID := station.KindPayload["station_id"]
	if ip == "" || port == "" {
		return nil
	}

	d := net.Dialer{Timeout: e.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(ip, port))
	if err != nil {
		return fmt.Errorf("remote_ip effector: station %d: %w", station.ID, err)
	}
	defer conn.Close()

	state := "OFF"
	if on {
		state = "ON"
	}
	_, err = fmt.Fprintf(conn, "STATION %s %s\n", remoteStationID, state)
	return err
}
