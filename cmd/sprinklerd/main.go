// Command sprinklerd drives a 74HC595 shift-register irrigation controller
// board from a Raspberry Pi, serving the legacy wire API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sprinklerd/sprinklerd/internal/app"
	"github.com/sprinklerd/sprinklerd/internal/constants"
	"github.com/sprinklerd/sprinklerd/internal/gpio"
	"github.com/sprinklerd/sprinklerd/internal/log"
)

func main() {
	configDir := flag.String("config-dir", "/etc/sprinklerd", "Directory holding options.yml, stations.yml, programs.yml")
	logDir := flag.String("log-dir", "/var/log/sprinklerd", "Directory for daily run logs")
	snapshotPath := flag.String("snapshot", "/var/lib/sprinklerd/state.msgpack", "Path to the controller state snapshot")
	httpAddr := flag.String("http-addr", ":8080", "Address the legacy HTTP API listens on")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	ignorePassword := flag.Bool("ignore-password", false, "Disable the legacy API password check (development only)")
	mockGPIO := flag.Bool("mock-gpio", false, "Use an in-memory GPIO backend instead of real hardware")
	historyDSN := flag.String("history-dsn", "", "Postgres DSN for the optional run-history store (blank disables it)")
	influxURL := flag.String("influx-write-url", "", "InfluxDB line-protocol write URL for valve telemetry (blank disables it)")

	latchPin := flag.Int("latch-pin", 17, "BCM GPIO pin wired to the shift register's latch (ST_CP) line")
	dataPin := flag.Int("data-pin", 27, "BCM GPIO pin wired to the shift register's data (DS) line")
	clockPin := flag.Int("clock-pin", 22, "BCM GPIO pin wired to the shift register's clock (SH_CP) line")
	oePin := flag.Int("oe-pin", 23, "BCM GPIO pin wired to the shift register's output-enable line")
	sensor1Pin := flag.Int("sensor1-pin", 24, "BCM GPIO pin wired to sensor 1")
	sensor2Pin := flag.Int("sensor2-pin", 25, "BCM GPIO pin wired to sensor 2")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sprinklerd %s (%s/%s)\n", constants.Version, runtime.GOOS, runtime.GOARCH)
		os.Exit(0)
	}

	if err := log.InitWithFile(*debug, *logDir+"/sprinklerd.log"); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := os.MkdirAll(*configDir, 0o755); err != nil {
		log.Errorf("Failed to create config directory: %v", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(*logDir, 0o755); err != nil {
		log.Errorf("Failed to create log directory: %v", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*snapshotPath), 0o755); err != nil {
		log.Errorf("Failed to create snapshot directory: %v", err)
		os.Exit(1)
	}

	cfg := app.Config{
		ConfigDir:      *configDir,
		LogDir:         *logDir,
		SnapshotPath:   *snapshotPath,
		HTTPAddr:       *httpAddr,
		IgnorePassword: *ignorePassword,
		MockGPIO:       *mockGPIO,
		HistoryDSN:     *historyDSN,
		InfluxWriteURL: *influxURL,
		LatchPin:       gpio.Pin(*latchPin),
		DataPin:        gpio.Pin(*dataPin),
		ClockPin:       gpio.Pin(*clockPin),
		OEPin:          gpio.Pin(*oePin),
		Sensor1Pin:     gpio.Pin(*sensor1Pin),
		Sensor2Pin:     gpio.Pin(*sensor2Pin),
	}

	application := app.New(cfg, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}
