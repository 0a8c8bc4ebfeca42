// Package httpapi is the HTTP surface of the academic records service.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"gradebook.org/internal/auth"
	"gradebook.org/internal/grades"
	"gradebook.org/internal/identity"
	"gradebook.org/internal/obs"
	"gradebook.org/internal/registry"
	"gradebook.org/internal/stream"
)

// ReadyProbe reports readiness, pinging the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config bundles the collaborators the API serves.
type Config struct {
	Scores      grades.Service
	Auth        *auth.Service
	Provisioner *identity.Provisioner
	Students    registry.StudentDirectory
	Teachers    registry.TeacherDirectory
	Admins      registry.AdminDirectory
	Accounts    auth.AccountStore
	Stream      *stream.Stream
	Ready       ReadyProbe
	Version     string
}

// API is the HTTP layer.
type API struct {
	mux         *http.ServeMux
	scores      grades.Service
	auth        *auth.Service
	provisioner *identity.Provisioner
	students    registry.StudentDirectory
	teachers    registry.TeacherDirectory
	admins      registry.AdminDirectory
	accounts    auth.AccountStore
	stream      *stream.Stream
	readyProbe  ReadyProbe
	version     string
}

func New(cfg Config) *API {
	a := &API{
		mux:         http.NewServeMux(),
		scores:      cfg.Scores,
		auth:        cfg.Auth,
		provisioner: cfg.Provisioner,
		students:    cfg.Students,
		teachers:    cfg.Teachers,
		admins:      cfg.Admins,
		accounts:    cfg.Accounts,
		stream:      cfg.Stream,
		readyProbe:  cfg.Ready,
		version:     cfg.Version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)

	a.mux.HandleFunc("/v1/scores", a.handleScoresCollection)
	a.mux.HandleFunc("/v1/scores/stream", a.Stream)
	a.mux.HandleFunc("/v1/scores/", a.handleScoreResource)

	a.mux.HandleFunc("/v1/students", a.handleStudentsCollection)
	a.mux.HandleFunc("/v1/students/", a.handleStudentResource)
	a.mux.HandleFunc("/v1/teachers", a.handleTeachersCollection)
	a.mux.HandleFunc("/v1/teachers/", a.handleTeacherResource)
	a.mux.HandleFunc("/v1/admins", a.handleAdminsCollection)
	a.mux.HandleFunc("/v1/admins/", a.handleAdminResource)

	a.mux.HandleFunc("/v1/accounts", a.handleAccountsCollection)
	a.mux.HandleFunc("/v1/accounts/", a.handleAccountResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	return obs.Instrument(a.withAuth(a.mux))
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "gradebook-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "gradebook-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
