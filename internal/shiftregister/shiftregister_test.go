package shiftregister

import (
	"testing"

	"github.com/sprinklerd/sprinklerd/internal/gpio"
)

func TestSetBitReportsChangeKind(t *testing.T) {
	ctl := gpio.NewMockController()
	d := New(ctl, 1, 2, 3, 4, 1)
	if err := d.Setup(); err != nil {
		t.Fatalf("Setup: %v", err)
	}

	kind, err := d.SetBit(0, true)
	if err != nil {
		t.Fatalf("SetBit: %v", err)
	}
	if kind != TurnedOn {
		t.Fatalf("expected TurnedOn, got %v", kind)
	}

	kind, err = d.SetBit(0, true)
	if err != nil {
		t.Fatalf("SetBit: %v", err)
	}
	if kind != NoChange {
		t.Fatalf("expected NoChange setting the same state twice, got %v", kind)
	}

	kind, err = d.SetBit(0, false)
	if err != nil {
		t.Fatalf("SetBit: %v", err)
	}
	if kind != TurnedOff {
		t.Fatalf("expected TurnedOff, got %v", kind)
	}
}

func TestSetBitOutOfRangeBoard(t *testing.T) {
	ctl := gpio.NewMockController()
	d := New(ctl, 1, 2, 3, 4, 1)
	if _, err := d.SetBit(8, true); err == nil {
		t.Fatalf("expected an error for a station id beyond the configured board count")
	}
}

func TestActiveStationsReflectsSetBits(t *testing.T) {
	ctl := gpio.NewMockController()
	d := New(ctl, 1, 2, 3, 4, 2)
	_, _ = d.SetBit(0, true)
	_, _ = d.SetBit(9, true)

	active := d.ActiveStations()
	if len(active) != 2 || active[0] != 0 || active[1] != 9 {
		t.Fatalf("expected active stations [0 9], got %v", active)
	}
}

func TestCoreOutputDropsChangeKind(t *testing.T) {
	ctl := gpio.NewMockController()
	d := New(ctl, 1, 2, 3, 4, 1)
	out := CoreOutput{Driver: d}

	if err := out.SetBit(0, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.boards[0]&1 == 0 {
		t.Fatalf("expected the underlying driver's bit to be set")
	}
}
