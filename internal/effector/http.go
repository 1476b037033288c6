package effector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
)

// HTTPEffector actuates KindHTTP stations by issuing a GET to the
// station's configured on/off command URLs.
type HTTPEffector struct {
	Client *http.Client
}

// NewHTTPEffector returns an HTTPEffector with a bounded request timeout.
func NewHTTPEffector() *HTTPEffector {
	return &HTTPEffector{Client: &http.Client{Timeout: 5 * time.Second}}
}

// Actuate issues the station's "on_cmd" or "off_cmd" payload URL.
func (e *HTTPEffector) Actuate(ctx context.Context, station core.Station, on bool) error {
	key := "off_cmd"
	if on {
		key = "on_cmd"
	}
	host := station.KindPayload["host"]
	port := station.KindPayload["port"]
	cmd := station.KindPayload[key]
	if host == "" || cmd == "" {
		return nil
	}
	url := fmt.Sprintf("http://%s:%s%s", host, port, cmd)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("http effector: station %d: %w", station.ID, err)
	}
	defer resp.Body.Close()
	return nil
}
