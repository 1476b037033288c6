package gpio

import "sync"

// MockController is an in-memory Controller for tests and for running the
// daemon off a Pi when it is started with -mock-gpio. Writes are
// recorded and reads return whatever was last injected via SetInputLevel.
type MockController struct {
	mu      sync.Mutex
	outputs map[Pin]Level
	inputs  map[Pin]Level
	modes   map[Pin]string // "in" or "out", for test assertions
}

// NewMockController returns an empty MockController.
func NewMockController() *MockController {
	return &MockController{
		outputs: make(map[Pin]Level),
		inputs:  make(map[Pin]Level),
		modes:   make(map[Pin]string),
	}
}

func (m *MockController) SetOutput(p Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[p] = "out"
	return nil
}

func (m *MockController) SetInput(p Pin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[p] = "in"
	return nil
}

func (m *MockController) Write(p Pin, level Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[p] = level
	return nil
}

func (m *MockController) Read(p Pin) (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputs[p], nil
}

func (m *MockController) Close() error { return nil }

// SetInputLevel injects the next value Read(p) will return, so tests can
// drive rain/soil input scenarios.
func (m *MockController) SetInputLevel(p Pin, level Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs[p] = level
}

// OutputLevel returns the last level written to p, for test assertions.
func (m *MockController) OutputLevel(p Pin) Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outputs[p]
}

// Mode returns "in", "out", or "" if p has never been configured.
func (m *MockController) Mode(p Pin) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.modes[p]
}
