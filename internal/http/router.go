package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/varshaislur/MindLink/internal/app"
	"github.com/varshaislur/MindLink/internal/exec"
	"github.com/varshaislur/MindLink/internal/room"
	"github.com/varshaislur/MindLink/internal/store"
	"github.com/varshaislur/MindLink/internal/ws"
	"github.com/varshaislur/MindLink/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, reg *room.Registry, execc *exec.Client, runs store.Store) http.Handler {
	mw := NewMiddleware(cfg)
	execAPI := &ExecAPI{Exec: execc, Runs: runs, Log: logger}
	roomsAPI := &RoomsAPI{Reg: reg}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	// Health / readiness / metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint; stays outside the counting middleware so the
	// upgrade can hijack the raw response writer
	r.Get("/ws", hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(Metrics)
		r.Post("/execute", execAPI.Execute)
		r.Get("/runs", execAPI.Recent)
		r.Post("/rooms", roomsAPI.Create)
		r.Get("/rooms/{roomID}/members", roomsAPI.Members)
	})

	return mw.Wrap(r)
}
