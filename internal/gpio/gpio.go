// Package gpio defines the pin-level hardware contract the control loop is
// built on: pin mode configuration and digital read/write. The core never
// imports a concrete backend; main wires one in at startup.
package gpio

// Pin identifies a single BCM GPIO line.
type Pin int

// Level is a digital pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Controller is the hardware abstraction consumed by the shift-register
// driver and the sensor debouncer. Implementations must be safe to call
// from the single control-loop goroutine; no concurrency guarantees are
// required or provided.
type Controller interface {
	// SetOutput configures pin as a digital output.
	SetOutput(pin Pin) error
	// SetInput configures pin as a digital input.
	SetInput(pin Pin) error
	// Write drives pin to the given level. Pin must have been configured
	// with SetOutput.
	Write(pin Pin, level Level) error
	// Read samples pin's current level. Pin must have been configured
	// with SetInput.
	Read(pin Pin) (Level, error)
	// Close releases any resources held by the backend.
	Close() error
}
