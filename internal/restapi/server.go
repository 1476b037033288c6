// Package restapi exposes the fixed legacy HTTP/JSON API (spec section 6)
// over the shared *core.Controller: one mux route per wire endpoint, a
// single exclusive lock held for each handler's duration, and an MD5
// password gate in front of everything but "/" and "/healthz".
package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/google/uuid"
	"go.uber.org/zap"

	applog "github.com/sprinklerd/sprinklerd/internal/log"
)

// Result codes from spec section 6.
const (
	ResultSuccess       = 1
	ResultUnauthorized  = 2
	ResultMismatch      = 3
	ResultDataMissing   = 16
	ResultOutOfBounds   = 17
	ResultFormatError   = 18
	ResultPageNotFound  = 32
	ResultNotPermitted  = 48
)

// Server is the legacy API's HTTP front end.
type Server struct {
	Addr           string
	Controller     ControllerView
	PasswordHash   string
	IgnorePassword bool
	Logger         *zap.SugaredLogger

	server *http.Server
}

// NewServer wires up the mux router and middleware chain.
func NewServer(addr string, ctrl ControllerView, passwordHash string, ignorePassword bool, logger *zap.SugaredLogger) *Server {
	s := &Server{
		Addr:           addr,
		Controller:     ctrl,
		PasswordHash:   passwordHash,
		IgnorePassword: ignorePassword,
		Logger:         logger,
	}
	s.server = &http.Server{Addr: addr, Handler: s.router()}
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot)

	r.HandleFunc("/jc", s.withAuth(s.handleJC))
	r.HandleFunc("/jo", s.withAuth(s.handleJO))
	r.HandleFunc("/jp", s.withAuth(s.handleJP))
	r.HandleFunc("/js", s.withAuth(s.handleJS))
	r.HandleFunc("/jn", s.withAuth(s.handleJN))
	r.HandleFunc("/je", s.withAuth(s.handleJE))
	r.HandleFunc("/jl", s.withAuth(s.handleJL))
	r.HandleFunc("/ja", s.withAuth(s.handleJA))

	r.HandleFunc("/cv", s.withAuth(s.handleCV))
	r.HandleFunc("/co", s.withAuth(s.handleCO))
	r.HandleFunc("/cp", s.withAuth(s.handleCP))
	r.HandleFunc("/dp", s.withAuth(s.handleDP))
	r.HandleFunc("/up", s.withAuth(s.handleUP))
	r.HandleFunc("/mp", s.withAuth(s.handleMP))
	r.HandleFunc("/cs", s.withAuth(s.handleCS))
	r.HandleFunc("/cm", s.withAuth(s.handleCM))
	r.HandleFunc("/cr", s.withAuth(s.handleCR))
	r.HandleFunc("/pq", s.withAuth(s.handlePQ))
	r.HandleFunc("/dl", s.withAuth(s.handleDL))

	r.HandleFunc("/healthz", s.handleHealthz)
	r.HandleFunc("/stats", s.withAuth(s.handleStats))

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, ResultPageNotFound)
	})

	return handlers.CombinedLoggingHandler(&accessLogWriter{logger: s.Logger}, withRequestID(r))
}

// withRequestID tags every request with a correlation id, attached to the
// response header and available to handlers via request context.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

// accessLogWriter adapts gorilla/handlers' combined-log output into the
// structured HTTP log buffer instead of a bare io.Writer sink.
type accessLogWriter struct {
	logger *zap.SugaredLogger
}

func (a *accessLogWriter) Write(p []byte) (int, error) {
	applog.GetHTTPLogBuffer().AddEntry(applog.LogEntry{
		Timestamp: time.Now(),
		Level:     "info",
		Message:   string(p),
	})
	if a.logger != nil {
		a.logger.Debugw("http access", "line", string(p))
	}
	return len(p), nil
}

// withAuth gates handler behind the legacy MD5 password check, then takes
// the controller's exclusive lock for the handler's whole duration -- the
// same lock the tick loop holds for a whole Tick, so neither ever runs
// concurrently with the other (spec section 5).
func (s *Server) withAuth(handler func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.IgnorePassword {
			pw := r.URL.Query().Get("pw")
			if !checkPassword(s.PasswordHash, pw) {
				writeResult(w, ResultUnauthorized)
				return
			}
		}
		s.Controller.Ctrl.Lock()
		defer s.Controller.Ctrl.Unlock()
		handler(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("sprinklerd"))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
