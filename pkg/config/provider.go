// Package config provides persistence for the controller's three
// configuration documents -- device-wide options, the station table, and
// the program table -- with the same cached-provider pattern used for the
// legacy wire API's underlying config store.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// OptionsData is the device-wide settings document (options.yml).
type OptionsData struct {
	Name               string  `yaml:"name"`
	Latitude           float64 `yaml:"latitude"`
	Longitude          float64 `yaml:"longitude"`
	Timezone           string  `yaml:"timezone"`
	NumBoards          int     `yaml:"num_boards"`
	DeviceEnabled      bool    `yaml:"device_enabled"`
	IgnoreRainGlobally bool    `yaml:"ignore_rain_globally"`
	WaterPercent       int     `yaml:"water_percent"`
	Master1Station     int     `yaml:"master1_station"` // 1-based, 0 = none
	Master1OnAdjustS   int     `yaml:"master1_on_adjust_s"`
	Master1OffAdjustS  int     `yaml:"master1_off_adjust_s"`
	Master2Station     int     `yaml:"master2_station"`
	Master2OnAdjustS   int     `yaml:"master2_on_adjust_s"`
	Master2OffAdjustS  int     `yaml:"master2_off_adjust_s"`
	Sensor1Kind        string  `yaml:"sensor1_kind,omitempty"`  // "", "rain", "soil"
	Sensor1Option      string  `yaml:"sensor1_option,omitempty"` // "nc", "no"
	Sensor1OnDelayS    int     `yaml:"sensor1_on_delay_s"`
	Sensor1OffDelayS   int     `yaml:"sensor1_off_delay_s"`
	Sensor2Kind        string  `yaml:"sensor2_kind,omitempty"`
	Sensor2Option      string  `yaml:"sensor2_option,omitempty"`
	Sensor2OnDelayS    int     `yaml:"sensor2_on_delay_s"`
	Sensor2OffDelayS   int     `yaml:"sensor2_off_delay_s"`
	PasswordHash       string  `yaml:"password_hash,omitempty"`
}

// StationData is the YAML representation of one core.Station.
type StationData struct {
	Name          string            `yaml:"name"`
	Kind          string            `yaml:"kind"`
	GroupID       int               `yaml:"group_id"`
	Master1Bound  bool              `yaml:"master1_bound"`
	Master2Bound  bool              `yaml:"master2_bound"`
	IgnoreSensor1 bool              `yaml:"ignore_sensor1"`
	IgnoreSensor2 bool              `yaml:"ignore_sensor2"`
	IgnoreRain    bool              `yaml:"ignore_rain"`
	Disabled      bool              `yaml:"disabled"`
	ActivateRelay bool              `yaml:"activate_relay"`
	KindPayload   map[string]string `yaml:"kind_payload,omitempty"`
}

// ProgramData is the YAML representation of one core.Program.
type ProgramData struct {
	Name          string    `yaml:"name"`
	Enabled       bool      `yaml:"enabled"`
	UseWeather    bool      `yaml:"use_weather"`
	Type          string    `yaml:"type"` // weekly, single_run, monthly, interval
	OddEven       string    `yaml:"odd_even,omitempty"`
	StartTimeMode string    `yaml:"start_time_mode"` // fixed, repeating
	Days          [2]int    `yaml:"days"`
	StartTimes    [4]uint16 `yaml:"start_times"`
	Durations     []int     `yaml:"durations"`
	DateRangeOn   bool      `yaml:"date_range_enabled"`
	DateRangeFrom int       `yaml:"date_range_from"`
	DateRangeTo   int       `yaml:"date_range_to"`
}

// ConfigProvider is the storage-backend-agnostic interface the controller
// and the legacy HTTP API use to read and persist configuration. A single
// implementation backs all three documents; see YAMLProvider.
type ConfigProvider interface {
	LoadOptions() (*OptionsData, error)
	SaveOptions(*OptionsData) error

	LoadStations() ([]StationData, error)
	SaveStations([]StationData) error

	LoadPrograms() (map[int]ProgramData, error)
	SavePrograms(map[int]ProgramData) error

	IsReadOnly() bool
	Close() error
}

// CachedConfigProvider wraps any ConfigProvider with a short-lived read
// cache, so the once-per-second controller loop and the HTTP API don't
// both hit disk on every call.
type CachedConfigProvider struct {
	provider ConfigProvider

	mu          sync.RWMutex
	options     *OptionsData
	stations    []StationData
	programs    map[int]ProgramData
	lastLoaded  time.Time
	cacheExpiry time.Duration
}

// NewCachedProvider wraps provider with a cache that expires after expiry
// (defaulting to 30s, matching the legacy cache window).
func NewCachedProvider(provider ConfigProvider, expiry time.Duration) *CachedConfigProvider {
	if expiry <= 0 {
		expiry = 30 * time.Second
	}
	return &CachedConfigProvider{provider: provider, cacheExpiry: expiry}
}

func (c *CachedConfigProvider) fresh() bool {
	return c.options != nil && time.Since(c.lastLoaded) < c.cacheExpiry
}

// LoadOptions returns the cached options document, reloading from the
// backing provider if the cache has expired.
func (c *CachedConfigProvider) LoadOptions() (*OptionsData, error) {
	c.mu.RLock()
	if c.fresh() {
		defer c.mu.RUnlock()
		return c.options, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fresh() {
		return c.options, nil
	}

	opts, err := c.provider.LoadOptions()
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	if errs := ValidateOptions(opts); len(errs) > 0 {
		return nil, fmt.Errorf("options validation failed:\n  - %s", joinValidationErrors(errs))
	}
	c.options = opts
	c.lastLoaded = time.Now()
	return c.options, nil
}

// SaveOptions writes through to the backing provider and invalidates the cache.
func (c *CachedConfigProvider) SaveOptions(o *OptionsData) error {
	if errs := ValidateOptions(o); len(errs) > 0 {
		return fmt.Errorf("options validation failed:\n  - %s", joinValidationErrors(errs))
	}
	if err := c.provider.SaveOptions(o); err != nil {
		return err
	}
	c.mu.Lock()
	c.options = nil
	c.mu.Unlock()
	return nil
}

// LoadStations returns the cached station table, reloading as needed.
func (c *CachedConfigProvider) LoadStations() ([]StationData, error) {
	c.mu.RLock()
	if c.stations != nil && c.fresh() {
		defer c.mu.RUnlock()
		return c.stations, nil
	}
	c.mu.RUnlock()

	stations, err := c.provider.LoadStations()
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	c.mu.Lock()
	c.stations = stations
	c.mu.Unlock()
	return stations, nil
}

// SaveStations writes through and invalidates the cache.
func (c *CachedConfigProvider) SaveStations(stations []StationData) error {
	if err := c.provider.SaveStations(stations); err != nil {
		return err
	}
	c.mu.Lock()
	c.stations = nil
	c.mu.Unlock()
	return nil
}

// LoadPrograms returns the cached program table, reloading as needed.
func (c *CachedConfigProvider) LoadPrograms() (map[int]ProgramData, error) {
	c.mu.RLock()
	if c.programs != nil && c.fresh() {
		defer c.mu.RUnlock()
		return c.programs, nil
	}
	c.mu.RUnlock()

	programs, err := c.provider.LoadPrograms()
	if err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	c.mu.Lock()
	c.programs = programs
	c.mu.Unlock()
	return programs, nil
}

// SavePrograms writes through and invalidates the cache.
func (c *CachedConfigProvider) SavePrograms(programs map[int]ProgramData) error {
	if err := c.provider.SavePrograms(programs); err != nil {
		return err
	}
	c.mu.Lock()
	c.programs = nil
	c.mu.Unlock()
	return nil
}

// IsReadOnly delegates to the underlying provider.
func (c *CachedConfigProvider) IsReadOnly() bool { return c.provider.IsReadOnly() }

// Close delegates to the underlying provider and drops the cache.
func (c *CachedConfigProvider) Close() error {
	c.mu.Lock()
	c.options, c.stations, c.programs = nil, nil, nil
	c.mu.Unlock()
	return c.provider.Close()
}

// InvalidateCache forces the next Load* call to hit the backing provider.
func (c *CachedConfigProvider) InvalidateCache() {
	c.mu.Lock()
	c.options, c.stations, c.programs = nil, nil, nil
	c.mu.Unlock()
}

// ValidationError reports one invalid field in a loaded config document.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %s)", ve.Field, ve.Message, ve.Value)
}

func joinValidationErrors(errs []ValidationError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n  - ")
}

// ValidateOptions checks the few invariants the controller relies on
// without ever re-deriving them at call sites.
func ValidateOptions(o *OptionsData) []ValidationError {
	var errs []ValidationError
	if o.WaterPercent < 0 || o.WaterPercent > 200 {
		errs = append(errs, ValidationError{"water_percent", fmt.Sprint(o.WaterPercent), "must be between 0 and 200"})
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		errs = append(errs, ValidationError{"latitude", fmt.Sprint(o.Latitude), "must be between -90 and 90"})
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		errs = append(errs, ValidationError{"longitude", fmt.Sprint(o.Longitude), "must be between -180 and 180"})
	}
	if o.NumBoards < 0 || o.NumBoards > 25 {
		errs = append(errs, ValidationError{"num_boards", fmt.Sprint(o.NumBoards), "must be between 0 and 25"})
	}
	return errs
}

// ValidateStations checks the station table's size and rejects negative
// group ids.
func ValidateStations(stations []StationData) []ValidationError {
	var errs []ValidationError
	if len(stations) > 200 {
		errs = append(errs, ValidationError{"stations", fmt.Sprint(len(stations)), "exceeds maximum station count"})
	}
	for i, st := range stations {
		if st.GroupID < 0 {
			errs = append(errs, ValidationError{fmt.Sprintf("stations[%d].group_id", i), fmt.Sprint(st.GroupID), "must be >= 0 or 255 (parallel)"})
		}
	}
	return errs
}

// ValidatePrograms checks the program table for malformed durations.
func ValidatePrograms(programs map[int]ProgramData) []ValidationError {
	var errs []ValidationError
	if len(programs) > 40 {
		errs = append(errs, ValidationError{"programs", fmt.Sprint(len(programs)), "exceeds maximum program count"})
	}
	for id, p := range programs {
		for s, d := range p.Durations {
			if d < 0 {
				errs = append(errs, ValidationError{fmt.Sprintf("programs[%d].durations[%d]", id, s), fmt.Sprint(d), "must not be negative"})
			}
		}
	}
	return errs
}
