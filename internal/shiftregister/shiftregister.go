// Package shiftregister drives a stack of 74HC595 serial-in/parallel-out
// boards, one byte per board, shifted out over a software SPI-like
// bit-banged bus (latch, data, clock, output-enable).
package shiftregister

import (
	"fmt"

	"github.com/sprinklerd/sprinklerd/internal/gpio"
)

// ChangeKind describes what SetBit just did to the in-memory bit array.
type ChangeKind int

const (
	NoChange ChangeKind = iota
	TurnedOn
	TurnedOff
)

// Driver owns the in-memory bit array for every board and the four pins
// used to shift it out. All bit manipulation happens in memory; hardware
// is only touched during Setup and Apply.
type Driver struct {
	gpio gpio.Controller

	latch  gpio.Pin
	data   gpio.Pin
	clock  gpio.Pin
	oe     gpio.Pin // output-enable, active low

	boards []byte
}

// New returns a Driver sized for numBoards boards (one byte each).
func New(g gpio.Controller, latch, data, clock, outputEnable gpio.Pin, numBoards int) *Driver {
	return &Driver{
		gpio:   g,
		latch:  latch,
		data:   data,
		clock:  clock,
		oe:     outputEnable,
		boards: make([]byte, numBoards),
	}
}

// Setup configures the four control pins as outputs, latches high and
// enables the outputs (output-enable is active-low).
func (d *Driver) Setup() error {
	for _, p := range []gpio.Pin{d.latch, d.data, d.clock, d.oe} {
		if err := d.gpio.SetOutput(p); err != nil {
			return fmt.Errorf("shiftregister: configure pin %d: %w", p, err)
		}
	}
	if err := d.gpio.Write(d.latch, gpio.High); err != nil {
		return err
	}
	return d.gpio.Write(d.oe, gpio.Low)
}

// SetBit sets or clears station id's in-memory bit. It does not touch
// hardware; the change takes effect on the next Apply.
func (d *Driver) SetBit(stationID int, on bool) (ChangeKind, error) {
	board := stationID >> 3
	if board < 0 || board >= len(d.boards) {
		return NoChange, fmt.Errorf("shiftregister: station %d out of range", stationID)
	}
	bit := byte(1) << uint(stationID&7)
	was := d.boards[board]&bit != 0

	if on {
		d.boards[board] |= bit
	} else {
		d.boards[board] &^= bit
	}

	switch {
	case !was && on:
		return TurnedOn, nil
	case was && !on:
		return TurnedOff, nil
	default:
		return NoChange, nil
	}
}

// ClearAll zeros every board's in-memory bits.
func (d *Driver) ClearAll() {
	for i := range d.boards {
		d.boards[i] = 0
	}
}

// Apply shifts the in-memory bit pattern out to the hardware, MSB-first,
// from the highest board down to board zero, then pulses latch high. When
// enabled is false, zeros are shifted regardless of the in-memory state --
// used when the device is administratively disabled or the process is
// shutting down.
func (d *Driver) Apply(enabled bool) error {
	for b := len(d.boards) - 1; b >= 0; b-- {
		value := d.boards[b]
		if !enabled {
			value = 0
		}
		for bit := 7; bit >= 0; bit-- {
			level := gpio.Level(value&(1<<uint(bit)) != 0)
			if err := d.gpio.Write(d.data, level); err != nil {
				return err
			}
			if err := d.gpio.Write(d.clock, gpio.Low); err != nil {
				return err
			}
			if err := d.gpio.Write(d.clock, gpio.High); err != nil {
				return err
			}
		}
	}
	if err := d.gpio.Write(d.latch, gpio.Low); err != nil {
		return err
	}
	return d.gpio.Write(d.latch, gpio.High)
}

// ActiveStations returns the ids, in ascending order, of every station
// whose in-memory bit is currently set.
func (d *Driver) ActiveStations() []int {
	var out []int
	for b, byteVal := range d.boards {
		for bit := 0; bit < 8; bit++ {
			if byteVal&(1<<uint(bit)) != 0 {
				out = append(out, b*8+bit)
			}
		}
	}
	return out
}

// NumBoards returns how many boards this driver was configured for.
func (d *Driver) NumBoards() int { return len(d.boards) }
