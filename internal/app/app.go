// Package app wires every sprinklerd component -- configuration, station
// and program state, the shift-register driver, network effectors, the
// controller loop, logging/telemetry sinks, and the legacy HTTP API --
// into a running daemon, and owns its startup and graceful-shutdown
// sequencing.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sprinklerd/sprinklerd/internal/core"
	"github.com/sprinklerd/sprinklerd/internal/effector"
	"github.com/sprinklerd/sprinklerd/internal/gpio"
	"github.com/sprinklerd/sprinklerd/internal/log"
	"github.com/sprinklerd/sprinklerd/internal/logstore"
	"github.com/sprinklerd/sprinklerd/internal/restapi"
	"github.com/sprinklerd/sprinklerd/internal/shiftregister"
	"github.com/sprinklerd/sprinklerd/internal/snapshot"
	"github.com/sprinklerd/sprinklerd/internal/telemetry"
	"github.com/sprinklerd/sprinklerd/pkg/config"
	"github.com/sprinklerd/sprinklerd/pkg/solar"
	"go.uber.org/zap"
)

// Config is the set of startup options the CLI entrypoint assembles from
// flags before calling New.
type Config struct {
	ConfigDir      string
	LogDir         string
	SnapshotPath   string
	HTTPAddr       string
	IgnorePassword bool
	MockGPIO       bool
	HistoryDSN     string // optional Postgres DSN for the run-history store
	InfluxWriteURL string // optional InfluxDB line-protocol write endpoint

	LatchPin, DataPin, ClockPin, OEPin gpio.Pin
	Sensor1Pin, Sensor2Pin             gpio.Pin
}

// App owns the assembled component graph and the tick/HTTP goroutines
// that drive it.
type App struct {
	cfg    Config
	logger *zap.SugaredLogger

	configProvider *config.CachedConfigProvider
	ctrl           *core.Controller
	gpioCtl        gpio.Controller
	driver         *shiftregister.Driver
	server         *restapi.Server
	logs           *logstore.DailyLogStore
	history        *logstore.HistoryStore
}

// New returns an App ready to Run.
func New(cfg Config, logger *zap.SugaredLogger) *App {
	return &App{cfg: cfg, logger: logger}
}

// Run builds the component graph and blocks until ctx is cancelled or a
// shutdown signal arrives, then persists a final snapshot and returns.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.build(); err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.server.Start(ctx); err != nil {
			a.logger.Errorw("http server stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.tickLoop(ctx)
	}()

	log.Info("sprinklerd started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}
	cancel()

	log.Info("waiting for all workers to terminate...")
	wg.Wait()

	a.ctrl.StopAllStations()
	if err := snapshot.Save(a.cfg.SnapshotPath, a.ctrl.State); err != nil {
		a.logger.Warnw("failed to save snapshot on shutdown", "error", err)
	}
	log.Info("shutdown complete")
	return nil
}

// build assembles every component from persisted configuration. It is
// split out of Run so tests can construct an App's pieces without
// starting goroutines.
func (a *App) build() error {
	provider := config.NewYAMLProvider(a.cfg.ConfigDir)
	a.configProvider = config.NewCachedProvider(provider, 30*time.Second)

	opts, err := a.configProvider.LoadOptions()
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	stationData, err := a.configProvider.LoadStations()
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}
	programData, err := a.configProvider.LoadPrograms()
	if err != nil {
		return fmt.Errorf("load programs: %w", err)
	}

	coreStations := make([]core.Station, len(stationData))
	for i, sd := range stationData {
		coreStations[i] = config.ToCoreStation(sd)
	}
	stations := core.NewStations(coreStations)

	programs := core.NewPrograms()
	for _, pd := range programData {
		if _, err := programs.Add(config.ToCoreProgram(pd)); err != nil {
			a.logger.Warnw("dropping program at load, store is full", "name", pd.Name)
		}
	}

	coreOpts, sensor1, sensor2 := config.ToCoreOptions(*opts)
	sensors := &core.Sensors{Sensor1: sensor1, Sensor2: sensor2}

	queue := core.NewQueue()
	scheduler := core.NewScheduler(stations, queue)
	if opts.WaterPercent > 0 {
		scheduler.WaterPercent = opts.WaterPercent
	}

	gpioCtl, err := a.buildGPIO()
	if err != nil {
		return err
	}
	a.gpioCtl = gpioCtl

	numBoards := core.NumBoards(stations.Count())
	driver := shiftregister.New(gpioCtl, a.cfg.LatchPin, a.cfg.DataPin, a.cfg.ClockPin, a.cfg.OEPin, numBoards)
	if err := driver.Setup(); err != nil {
		return fmt.Errorf("shift register setup: %w", err)
	}
	a.driver = driver

	clock := core.SystemClock{}
	ctrl := core.NewController(clock, stations, programs, scheduler, sensors, shiftregister.CoreOutput{Driver: driver})
	ctrl.Options = coreOpts

	if err := gpioCtl.SetInput(a.cfg.Sensor1Pin); err != nil {
		a.logger.Warnw("failed to configure sensor1 pin", "error", err)
	}
	if err := gpioCtl.SetInput(a.cfg.Sensor2Pin); err != nil {
		a.logger.Warnw("failed to configure sensor2 pin", "error", err)
	}
	ctrl.ReadSensorPins = func() (bool, bool) {
		l1, _ := gpioCtl.Read(a.cfg.Sensor1Pin)
		l2, _ := gpioCtl.Read(a.cfg.Sensor2Pin)
		return bool(l1), bool(l2)
	}

	ctrl.Network = effector.Chain{
		{Kind: core.KindHTTP, Effector: effector.NewHTTPEffector()},
		{Kind: core.KindRemoteIP, Effector: effector.NewRemoteIPEffector()},
		{Kind: core.KindRF, Effector: effector.NewRFEffector(a.logger)},
	}

	logs, err := logstore.NewDailyLogStore(a.cfg.LogDir, a.logger)
	if err != nil {
		return fmt.Errorf("daily log store: %w", err)
	}
	a.logs = logs
	sinks := logstore.Fanout{logs}
	if a.cfg.HistoryDSN != "" {
		hist, err := logstore.NewHistoryStore(a.cfg.HistoryDSN, a.logger)
		if err != nil {
			a.logger.Warnw("history store unavailable, continuing without it", "error", err)
		} else {
			a.history = hist
			sinks = append(sinks, hist)
		}
	}
	ctrl.LogSink = sinks

	if a.cfg.InfluxWriteURL != "" {
		ctrl.Telemetry = telemetry.NewInfluxExporter(a.cfg.InfluxWriteURL, a.logger)
	}

	if snap, ok, err := snapshot.Load(a.cfg.SnapshotPath); err != nil {
		a.logger.Warnw("failed to load snapshot, starting fresh", "error", err)
	} else if ok {
		snapshot.Apply(snap, &ctrl.State)
	}

	a.ctrl = ctrl

	a.server = restapi.NewServer(a.cfg.HTTPAddr, restapi.ControllerView{
		Ctrl:   ctrl,
		Config: a.configProvider,
		Logs:   logs,
		SunCalc: func() (int, int) {
			latest, err := a.configProvider.LoadOptions()
			if err != nil {
				return 0, 0
			}
			t := solar.Calculate(clock.Now(), time.Local, latest.Latitude, latest.Longitude)
			return t.SunriseMinute, t.SunsetMinute
		},
	}, opts.PasswordHash, a.cfg.IgnorePassword, a.logger)

	return nil
}

func (a *App) buildGPIO() (gpio.Controller, error) {
	if a.cfg.MockGPIO {
		return gpio.NewMockController(), nil
	}
	ctl, err := gpio.NewPeriphController()
	if err != nil {
		return nil, fmt.Errorf("gpio init: %w", err)
	}
	return ctl, nil
}

// tickLoop drives the controller at ~10Hz; Tick itself is a no-op unless
// the wall-clock second has advanced, so the finer polling interval only
// buys lower latency between a second rolling over and the loop noticing.
func (a *App) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	snapTicker := time.NewTicker(30 * time.Second)
	defer snapTicker.Stop()

	var sunrise, sunset int
	var sunDay int

	for {
		select {
		case <-ctx.Done():
			return
		case <-snapTicker.C:
			a.ctrl.Lock()
			state := a.ctrl.State
			a.ctrl.Unlock()
			if err := snapshot.Save(a.cfg.SnapshotPath, state); err != nil {
				a.logger.Warnw("periodic snapshot save failed", "error", err)
			}
		case now := <-ticker.C:
			if now.YearDay() != sunDay {
				sunDay = now.YearDay()
				if opts, err := a.configProvider.LoadOptions(); err == nil {
					t := solar.Calculate(now, time.Local, opts.Latitude, opts.Longitude)
					sunrise, sunset = t.SunriseMinute, t.SunsetMinute
				}
			}
			a.ctrl.Lock()
			a.ctrl.Tick(ctx, now, sunrise, sunset)
			a.ctrl.Unlock()
		}
	}
}
