package restapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	applog "github.com/sprinklerd/sprinklerd/internal/log"
	"github.com/sprinklerd/sprinklerd/internal/core"
	"github.com/sprinklerd/sprinklerd/internal/logstore"
	"github.com/sprinklerd/sprinklerd/pkg/config"
)

// --- read endpoints ----------------------------------------------------

// handleJC implements /jc: controller variables, per spec section 6.
func (s *Server) handleJC(w http.ResponseWriter, r *http.Request) {
	c := s.Controller.Ctrl
	now := c.Clock.Now()

	table := c.Scheduler.ProgramStatusTable(now)

	// sbits reflects the shift register's actual bits (spec section 8's
	// "Apply matches active"), not the queue's Queued flag -- a station
	// still waiting its turn in a sequential group is queued but not yet
	// active, and must not show up here as on.
	active := c.ActiveStationIDs()
	sbits := make([]int, len(table))
	for i := range table {
		if active[i] {
			sbits[i] = 1
		}
	}

	var sn1, sn2 bool
	if c.Sensors != nil {
		sn1 = c.Sensors.Sensor1 != nil && c.Sensors.Sensor1.Active
		sn2 = c.Sensors.Sensor2 != nil && c.Sensors.Sensor2.Active
	}

	var lrun interface{}
	if c.State.LastRun != nil {
		lrun = c.State.LastRun
	}

	resp := map[string]interface{}{
		"devt":  c.Options.DeviceEnabled,
		"nbrd":  core.NumBoards(c.Stations.Count()),
		"en":    boolToInt(c.Options.DeviceEnabled),
		"rd":    boolToInt(c.State.RainDelayed),
		"rs":    c.Sensors != nil && c.Sensors.RainSensed(),
		"rdst":  c.State.RainDelayStopTime.Unix(),
		"sbits": sbits,
		"ps":    table,
		"lrun":  lrun,
		"sn1":   sn1,
		"sn2":   sn2,
		"pq":    boolToInt(c.State.Paused),
		"pt":    int(c.State.PauseTimer / time.Second),
	}
	writeJSON(w, resp)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// handleJO implements /jo: the device-wide options document.
func (s *Server) handleJO(w http.ResponseWriter, r *http.Request) {
	opts, err := s.Controller.Config.LoadOptions()
	if err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	writeJSON(w, opts)
}

// handleJP implements /jp: the program table, wire-encoded per spec
// section 6's [flag, days0, days1, starttimes[4], durations[], name,
// [dr_en, dr_from, dr_to]] shape.
func (s *Server) handleJP(w http.ResponseWriter, r *http.Request) {
	c := s.Controller.Ctrl
	programs := c.Programs.All()
	pd := make([][]interface{}, 0, len(programs))
	for _, p := range programs {
		flag := core.EncodeFlags(p.Enabled, p.UseWeather, p.OddEven, p.Type, p.StartTimeMode, p.DateRangeConfig.Enabled)
		pd = append(pd, []interface{}{
			flag,
			p.Days[0], p.Days[1],
			p.StartTimes,
			p.Durations,
			p.Name,
			[]int{boolToInt(p.DateRangeConfig.Enabled), p.DateRangeConfig.From, p.DateRangeConfig.To},
		})
	}
	writeJSON(w, map[string]interface{}{"pd": pd})
}

// handleJS implements /js: current station run status.
func (s *Server) handleJS(w http.ResponseWriter, r *http.Request) {
	c := s.Controller.Ctrl
	now := c.Clock.Now()
	table := c.Scheduler.ProgramStatusTable(now)
	writeJSON(w, map[string]interface{}{"ps": table})
}

// handleJN implements /jn: station names, in id order.
func (s *Server) handleJN(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for _, st := range s.Controller.Ctrl.Stations.All() {
		names = append(names, st.Name)
	}
	writeJSON(w, map[string]interface{}{"snames": names})
}

// handleJE implements /je: per-station kind and actuation payload, for
// network (HTTP/remote-IP/RF) stations.
func (s *Server) handleJE(w http.ResponseWriter, r *http.Request) {
	c := s.Controller.Ctrl
	type extra struct {
		Kind    string            `json:"kind"`
		Payload map[string]string `json:"payload,omitempty"`
	}
	out := make([]extra, 0, c.Stations.Count())
	for _, st := range c.Stations.All() {
		out = append(out, extra{Kind: st.Kind.String(), Payload: st.KindPayload})
	}
	writeJSON(w, map[string]interface{}{"se": out})
}

// handleJL implements /jl: the recent in-process log buffer.
func (s *Server) handleJL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{"log": applog.GetLogBuffer().GetLogs(false)})
}

// handleJA implements /ja: an aggregate of jc+js, for UIs that poll once.
func (s *Server) handleJA(w http.ResponseWriter, r *http.Request) {
	jcRec := newJSONRecorder()
	s.handleJC(jcRec, r)
	jsRec := newJSONRecorder()
	s.handleJS(jsRec, r)
	writeJSON(w, map[string]interface{}{"jc": jcRec.decoded(), "js": jsRec.decoded()})
}

// --- write endpoints -----------------------------------------------------

// handleCV implements /cv: change runtime variables (rain delay hours via
// rd=, device enable via en=0|1).
func (s *Server) handleCV(w http.ResponseWriter, r *http.Request) {
	c := s.Controller.Ctrl
	q := r.URL.Query()
	now := c.Clock.Now()
	if v := q.Get("rd"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			writeResult(w, ResultFormatError)
			return
		}
		c.SetRainDelay(now, hours)
	}
	if v := q.Get("en"); v != "" {
		c.Options.DeviceEnabled = v == "1"
	}
	writeResult(w, ResultSuccess)
}

// handleCO implements /co: change a single named option (name=, val=).
func (s *Server) handleCO(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name, val := q.Get("name"), q.Get("val")
	if name == "" {
		writeResult(w, ResultDataMissing)
		return
	}
	opts, err := s.Controller.Config.LoadOptions()
	if err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	cp := *opts
	if !applyOption(&cp, name, val) {
		writeResult(w, ResultFormatError)
		return
	}
	if err := s.Controller.Config.SaveOptions(&cp); err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	writeResult(w, ResultSuccess)
}

// applyOption mutates a single named field of the options document from its
// wire string form. Returns false for an unrecognized name or a value that
// doesn't parse for that field's type.
func applyOption(o *config.OptionsData, name, val string) bool {
	atoi := func(s string) (int, bool) {
		n, err := strconv.Atoi(s)
		return n, err == nil
	}
	switch name {
	case "name":
		o.Name = val
	case "timezone":
		o.Timezone = val
	case "device_enabled":
		o.DeviceEnabled = val == "1"
	case "ignore_rain_globally":
		o.IgnoreRainGlobally = val == "1"
	case "water_percent":
		n, ok := atoi(val)
		if !ok {
			return false
		}
		o.WaterPercent = n
	case "master1_station":
		n, ok := atoi(val)
		if !ok {
			return false
		}
		o.Master1Station = n
	case "master2_station":
		n, ok := atoi(val)
		if !ok {
			return false
		}
		o.Master2Station = n
	case "password_hash":
		o.PasswordHash = val
	default:
		return false
	}
	return true
}

// handleCP implements /cp: create or replace a program from a JSON object
// with pid, name, enabled, use_weather, fixed, days, start_times and
// durations fields; a pid above 0 replaces that program, otherwise a new
// one is added.
func (s *Server) handleCP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PID        int       `json:"pid"`
		Name       string    `json:"name"`
		Enabled    bool      `json:"enabled"`
		UseWeather bool      `json:"use_weather"`
		Fixed      bool      `json:"fixed"`
		Days       [2]int    `json:"days"`
		StartTimes [4]uint16 `json:"start_times"`
		Durations  []int     `json:"durations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeResult(w, ResultFormatError)
		return
	}
	c := s.Controller.Ctrl
	mode := core.StartTimeRepeating
	if body.Fixed {
		mode = core.StartTimeFixed
	}
	p := core.Program{
		Name:          body.Name,
		Enabled:       body.Enabled,
		UseWeather:    body.UseWeather,
		StartTimeMode: mode,
		Days:          body.Days,
		StartTimes:    body.StartTimes,
		Durations:     body.Durations,
	}
	if body.PID > 0 {
		if err := c.Programs.Update(body.PID, p); err != nil {
			writeResult(w, ResultOutOfBounds)
			return
		}
	} else if _, err := c.Programs.Add(p); err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	writeResult(w, ResultSuccess)
}

// handleDP implements /dp: delete a program (pid=).
func (s *Server) handleDP(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.Atoi(r.URL.Query().Get("pid"))
	if err != nil {
		writeResult(w, ResultDataMissing)
		return
	}
	s.Controller.Ctrl.Programs.Delete(pid)
	writeResult(w, ResultSuccess)
}

// handleUP implements /up: rename a station (sid=, name=).
func (s *Server) handleUP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid, err := strconv.Atoi(q.Get("sid"))
	if err != nil {
		writeResult(w, ResultDataMissing)
		return
	}
	c := s.Controller.Ctrl
	st, err := c.Stations.Get(sid)
	if err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	if name := q.Get("name"); name != "" {
		st.Name = name
	}
	if err := c.Stations.Set(sid, st); err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	writeResult(w, ResultSuccess)
}

// handleMP implements /mp: a manual station run (sid=, sec=).
func (s *Server) handleMP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid, err1 := strconv.Atoi(q.Get("sid"))
	sec, err2 := strconv.Atoi(q.Get("sec"))
	if err1 != nil || err2 != nil {
		writeResult(w, ResultDataMissing)
		return
	}
	c := s.Controller.Ctrl
	if err := c.Scheduler.ManualRun(c.Clock.Now(), sid, time.Duration(sec)*time.Second); err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	writeResult(w, ResultSuccess)
}

// handleCS implements /cs: change a station's disabled flag (sid=, d=0|1).
func (s *Server) handleCS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid, err := strconv.Atoi(q.Get("sid"))
	if err != nil {
		writeResult(w, ResultDataMissing)
		return
	}
	c := s.Controller.Ctrl
	st, err := c.Stations.Get(sid)
	if err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	st.Disabled = q.Get("d") == "1"
	_ = c.Stations.Set(sid, st)
	writeResult(w, ResultSuccess)
}

// handleCM implements /cm: configure a master station's binding and
// lead/lag timing (m=1|2, sid=, on=, off=, all in seconds).
func (s *Server) handleCM(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	idx, _ := strconv.Atoi(q.Get("m"))
	sid, _ := strconv.Atoi(q.Get("sid"))
	onS, _ := strconv.Atoi(q.Get("on"))
	offS, _ := strconv.Atoi(q.Get("off"))
	cfg := core.MasterConfig{
		StationID1Based: sid,
		OnAdjust:        time.Duration(onS) * time.Second,
		OffAdjust:       time.Duration(offS) * time.Second,
	}
	c := s.Controller.Ctrl
	switch idx {
	case 1:
		c.Options.Master1 = cfg
	case 2:
		c.Options.Master2 = cfg
	default:
		writeResult(w, ResultFormatError)
		return
	}
	writeResult(w, ResultSuccess)
}

// handleCR implements /cr: run-once a single station, replacing the queue
// (sid=, sec=).
func (s *Server) handleCR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sid, err1 := strconv.Atoi(q.Get("sid"))
	sec, err2 := strconv.Atoi(q.Get("sec"))
	if err1 != nil || err2 != nil {
		writeResult(w, ResultDataMissing)
		return
	}
	c := s.Controller.Ctrl
	if err := c.Scheduler.RunOnce(c.Clock.Now(), sid, time.Duration(sec)*time.Second); err != nil {
		writeResult(w, ResultOutOfBounds)
		return
	}
	writeResult(w, ResultSuccess)
}

// handlePQ implements /pq: pause (sec=N) or, with sec=0, resume the queue.
func (s *Server) handlePQ(w http.ResponseWriter, r *http.Request) {
	sec, err := strconv.Atoi(r.URL.Query().Get("sec"))
	if err != nil {
		writeResult(w, ResultDataMissing)
		return
	}
	c := s.Controller.Ctrl
	if sec <= 0 {
		c.Resume()
	} else {
		c.Pause(c.Clock.Now(), time.Duration(sec)*time.Second)
	}
	writeResult(w, ResultSuccess)
}

// handleDL implements /dl. The legacy API never exposed deleting individual
// day logs over HTTP; admins manage the log directory directly.
func (s *Server) handleDL(w http.ResponseWriter, r *http.Request) {
	writeResult(w, ResultNotPermitted)
}

// handleStats implements /stats: aggregated per-station run statistics
// over the trailing 7 days.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Controller.Logs == nil {
		writeJSON(w, map[string]interface{}{"stats": []logstore.StationStats{}})
		return
	}
	now := s.Controller.Ctrl.Clock.Now()
	var daySlices [][][5]int64
	for i := 0; i < 7; i++ {
		day, err := s.Controller.Logs.Load(now.AddDate(0, 0, -i))
		if err != nil {
			continue
		}
		daySlices = append(daySlices, day)
	}
	writeJSON(w, map[string]interface{}{"stats": logstore.Stats(daySlices)})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// jsonRecorder is a minimal http.ResponseWriter that captures a JSON body
// in memory, used to compose /ja from the other handlers' own encoders
// without duplicating their field-building logic.
type jsonRecorder struct {
	header http.Header
	body   []byte
}

func newJSONRecorder() *jsonRecorder {
	return &jsonRecorder{header: make(http.Header)}
}

func (j *jsonRecorder) Header() http.Header         { return j.header }
func (j *jsonRecorder) WriteHeader(statusCode int)  {}
func (j *jsonRecorder) Write(p []byte) (int, error) {
	j.body = append(j.body, p...)
	return len(p), nil
}

func (j *jsonRecorder) decoded() interface{} {
	var v interface{}
	_ = json.Unmarshal(j.body, &v)
	return v
}
