package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValveChangedPostsLineProtocolBody(t *testing.T) {
	var gotBody string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := NewInfluxExporter(srv.URL, nil)
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	e.ValveChanged(2, true, now)

	if gotMethod != http.MethodPost {
		t.Fatalf("expected a POST, got %s", gotMethod)
	}
	if !strings.Contains(gotBody, "valve2 value=1") {
		t.Fatalf("expected the per-valve line in the body, got %q", gotBody)
	}
	if !strings.Contains(gotBody, "valves value=3") {
		t.Fatalf("expected the aggregate \"valves\" line to report the 1-based highest active station, got %q", gotBody)
	}
}

func TestValveChangedSurvivesUnreachableEndpoint(t *testing.T) {
	e := NewInfluxExporter("http://127.0.0.1:1", nil)
	e.ValveChanged(0, true, time.Now())
}

func TestHighestActiveIDTracksOnlyActiveValves(t *testing.T) {
	e := NewInfluxExporter("http://unused.invalid", nil)
	e.highestActive[0] = true
	e.highestActive[4] = true
	e.highestActive[2] = false

	if got := e.highestActiveID(); got != 5 {
		t.Fatalf("expected highest active id 5 (station 4, 1-based), got %d", got)
	}

	e.highestActive[4] = false
	if got := e.highestActiveID(); got != 1 {
		t.Fatalf("expected highest active id 1 (station 0, 1-based) once station 4 turns off, got %d", got)
	}
}
