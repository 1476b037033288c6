package gpio

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphController drives real BCM GPIO lines on a Raspberry Pi through
// periph.io, the same conn/host split the rest of the periph device
// ecosystem (e.g. its bmxx80 and scd4x drivers) is built on.
type PeriphController struct {
	mu   sync.Mutex
	pins map[Pin]gpio.PinIO
}

// NewPeriphController initializes the periph host drivers and returns a
// Controller backed by real hardware. Call once per process.
func NewPeriphController() (*PeriphController, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	return &PeriphController{pins: make(map[Pin]gpio.PinIO)}, nil
}

func (c *PeriphController) resolve(p Pin) (gpio.PinIO, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pin, ok := c.pins[p]; ok {
		return pin, nil
	}
	pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", int(p)))
	if pin == nil {
		return nil, fmt.Errorf("gpio: no such pin GPIO%d", int(p))
	}
	c.pins[p] = pin
	return pin, nil
}

// SetOutput configures pin as a digital output, initially driven low.
func (c *PeriphController) SetOutput(p Pin) error {
	pin, err := c.resolve(p)
	if err != nil {
		return err
	}
	return pin.Out(gpio.Low)
}

// SetInput configures pin as a digital input with no pull resistor; the
// controller board supplies its own sensor pull-up/down wiring.
func (c *PeriphController) SetInput(p Pin) error {
	pin, err := c.resolve(p)
	if err != nil {
		return err
	}
	return pin.In(gpio.Float, gpio.NoEdge)
}

// Write drives pin to the given level.
func (c *PeriphController) Write(p Pin, level Level) error {
	pin, err := c.resolve(p)
	if err != nil {
		return err
	}
	return pin.Out(gpio.Level(level))
}

// Read samples pin's current level.
func (c *PeriphController) Read(p Pin) (Level, error) {
	pin, err := c.resolve(p)
	if err != nil {
		return Low, err
	}
	return Level(pin.Read()), nil
}

// Close is a no-op; periph pins are process-wide and need no teardown.
func (c *PeriphController) Close() error {
	return nil
}
