// Package diagnostics is the bench debugging HTTP/WS surface of
// SPEC_FULL.md §4.L: a read-only window into controller state, gated by
// local JWT auth exactly as the teacher's main.go/auth.go gate their API.
// It cannot command channels and adds no input surface.
package diagnostics

import (
	"net/http"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/pdmcore/pdm-core/internal/control"
)

// Server holds the dependencies routes need; unexported, built once by
// New and closed over by the registered handlers.
type Server struct {
	ctrl      *control.Controller
	db        *storm.DB
	jwtSecret []byte
	jwtIssuer string
	debug     bool
}

// New builds the chi router. jwtSecret must be non-empty in non-debug
// mode; debug mode (PDM_DEBUG or the -sim CLI flag) skips the JWT gate entirely, the
// same relationship main.go's ENV.DEBUG bears to ValidateJWT.
func New(ctrl *control.Controller, db *storm.DB, jwtSecret []byte, jwtIssuer string, debug bool) http.Handler {
	s := &Server{ctrl: ctrl, db: db, jwtSecret: jwtSecret, jwtIssuer: jwtIssuer, debug: debug}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Recoverer)

	r.Post("/api/login", s.loginHandler)

	r.Group(func(gr chi.Router) {
		if !s.debug {
			gr.Use(s.validateJWT)
		}
		gr.Get("/api/status", s.statusHandler)
		gr.Get("/ws/telemetry", s.telemetryHandler)
	})

	return r
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.ctrl.Snapshot())
}

const telemetryPushInterval = 250 * time.Millisecond
