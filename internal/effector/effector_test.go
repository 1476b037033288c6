package effector

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
	"go.uber.org/zap"
)

func TestChainDispatchesByKindAndSkipsUnregistered(t *testing.T) {
	var called core.StationKind
	chain := Chain{
		{Kind: core.KindHTTP, Effector: actuateFunc(func(_ context.Context, s core.Station, _ bool) error {
			called = s.Kind
			return nil
		})},
	}

	if err := chain.Actuate(context.Background(), core.Station{Kind: core.KindHTTP}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != core.KindHTTP {
		t.Fatalf("expected the http effector to be invoked")
	}

	if err := chain.Actuate(context.Background(), core.Station{Kind: core.KindRF}, true); err != nil {
		t.Fatalf("expected unregistered kinds to be silently skipped, got %v", err)
	}
}

type actuateFunc func(ctx context.Context, s core.Station, on bool) error

func (f actuateFunc) Actuate(ctx context.Context, s core.Station, on bool) error { return f(ctx, s, on) }

func TestHTTPEffectorIssuesGetToOnOrOffCmd(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}

	e := NewHTTPEffector()
	station := core.Station{
		ID:   1,
		Kind: core.KindHTTP,
		KindPayload: map[string]string{
			"host":   host,
			"port":   port,
			"on_cmd": "/on",
		},
	}

	if err := e.Actuate(context.Background(), station, true); err != nil {
		t.Fatalf("Actuate: %v", err)
	}
	if gotPath != "/on" {
		t.Fatalf("expected request to /on, got %q", gotPath)
	}
}

func TestHTTPEffectorSkipsStationsMissingHostOrCommand(t *testing.T) {
	e := NewHTTPEffector()
	station := core.Station{ID: 1, Kind: core.KindHTTP}
	if err := e.Actuate(context.Background(), station, true); err != nil {
		t.Fatalf("expected a station with no host/command configured to be a silent no-op, got %v", err)
	}
}

func TestRemoteIPEffectorSendsLineProtocolCommand(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		n, _ := conn.Read(buf)
		received <- string(buf[:n])
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}

	e := NewRemoteIPEffector()
	station := core.Station{
		ID:   3,
		Kind: core.KindRemoteIP,
		KindPayload: map[string]string{
			"ip":         host,
			"port":       port,
			"station_id": "7",
		},
	}

	if err := e.Actuate(context.Background(), station, true); err != nil {
		t.Fatalf("Actuate: %v", err)
	}

	select {
	case line := <-received:
		if line != "STATION 7 ON\n" {
			t.Fatalf("unexpected wire command: %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the remote_ip effector's command")
	}
}

func TestRFEffectorNeverErrors(t *testing.T) {
	e := NewRFEffector(zap.NewNop().Sugar())
	station := core.Station{ID: 5, Kind: core.KindRF, KindPayload: map[string]string{"code": "101010"}}
	if err := e.Actuate(context.Background(), station, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
