package restapi

import (
	"strconv"

	"github.com/sprinklerd/sprinklerd/internal/auth"
	"github.com/sprinklerd/sprinklerd/internal/core"
	"github.com/sprinklerd/sprinklerd/internal/logstore"
	"github.com/sprinklerd/sprinklerd/pkg/config"
)

// ControllerView is the server's handle on live state: the controller
// itself, the config provider that /co saves options through, and the
// daily log store backing /stats. Station and program edits made over the
// API change only the controller's in-memory sets and are not written
// back to YAML. It is the sole
// injection point for handlers -- no global singleton, per spec section
// 9's design note.
type ControllerView struct {
	Ctrl    *core.Controller
	Config  config.ConfigProvider
	Logs    *logstore.DailyLogStore
	SunCalc func() (sunrise, sunset int)
}

func checkPassword(configuredHash, supplied string) bool {
	return auth.Check(configuredHash, supplied)
}

func writeResult(w interface{ Write([]byte) (int, error) }, code int) {
	w.Write([]byte(`{"result":` + strconv.Itoa(code) + `}`))
}
