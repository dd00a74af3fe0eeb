package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/varshaislur/MindLink/internal/exec"
	"github.com/varshaislur/MindLink/internal/room"
	"github.com/varshaislur/MindLink/internal/store"
	"github.com/varshaislur/MindLink/pkg/metrics"
)

type ExecAPI struct {
	Exec *exec.Client
	Runs store.Store
	Log  *slog.Logger
}

type executeReq struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Code     string `json:"code"`
	RoomID   string `json:"roomId"`
}

type executeResp struct {
	Run *exec.Result `json:"run,omitempty"`
	Err string       `json:"error,omitempty"`
}

// Execute forwards a run request to the execution service. Service
// failures come back as an error string in the body; they never affect
// room state or the session.
func (a *ExecAPI) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := a.Exec.Run(r.Context(), exec.Request{
		Language: req.Language,
		Version:  req.Version,
		Code:     req.Code,
	})
	if err != nil {
		if errors.Is(err, exec.ErrInvalidRequest) {
			metrics.ExecRequests.WithLabelValues(req.Language, "error").Inc()
			writeStatusJSON(w, http.StatusBadRequest, executeResp{Err: err.Error()})
			return
		}
		metrics.ExecRequests.WithLabelValues(req.Language, "error").Inc()
		a.saveRun(r, req, exec.Result{}, err, time.Since(start))
		writeStatusJSON(w, http.StatusBadGateway, executeResp{Err: err.Error()})
		return
	}

	metrics.ExecRequests.WithLabelValues(req.Language, "ok").Inc()
	a.saveRun(r, req, res, nil, time.Since(start))
	writeJSON(w, executeResp{Run: &res})
}

func (a *ExecAPI) saveRun(r *http.Request, req executeReq, res exec.Result, runErr error, dur time.Duration) {
	rec := store.Run{
		ID:        uuid.NewString(),
		RoomID:    req.RoomID,
		Language:  req.Language,
		Version:   req.Version,
		ExitCode:  res.ExitCode,
		Output:    res.Output,
		Duration:  dur,
		CreatedAt: time.Now(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := a.Runs.SaveRun(r.Context(), rec); err != nil {
		a.Log.Warn("run.save", "err", err)
	}
}

type runDTO struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId,omitempty"`
	Language  string    `json:"language"`
	Version   string    `json:"version,omitempty"`
	ExitCode  int       `json:"exitCode"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Recent lists the newest execution runs
func (a *ExecAPI) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 500 {
		limit = v
	}

	runs, err := a.Runs.RecentRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, lo.Map(runs, func(rn store.Run, _ int) runDTO {
		return runDTO{
			ID: rn.ID, RoomID: rn.RoomID, Language: rn.Language, Version: rn.Version,
			ExitCode: rn.ExitCode, Error: rn.Error, CreatedAt: rn.CreatedAt,
		}
	}))
}

type RoomsAPI struct {
	Reg *room.Registry
}

// Create hands out a fresh room identifier. Nothing is registered:
// rooms come into existence on the first JOIN.
func (a *RoomsAPI) Create(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"roomId": uuid.NewString()})
}

type memberDTO struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
}

// Members returns the room's current participant snapshot. Unknown
// rooms are simply empty, matching the registry's lifecycle.
func (a *RoomsAPI) Members(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	members := lo.Map(a.Reg.Members(roomID), func(p room.Participant, _ int) memberDTO {
		return memberDTO{SocketID: p.ConnID, Username: p.Name}
	})
	writeJSON(w, map[string]any{"roomId": roomID, "members": members})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatusJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
