// Package diag exposes a read-only HTTP view over a Manager's current robot
// registry, for operators and monitoring — explicitly not part of the
// core's public API (spec.md §1 calls out CLI/config/logging as external
// collaborators; this is the same kind of ambient surface).
package diag

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chianfern/free-fleet/robot"
)

// Source is the read-only subset of Manager this package depends on.
type Source interface {
	RobotNames() []string
	Robot(name string) (robot.View, bool)
	AllRobots() []robot.View
}

// NewRouter builds the diagnostics HTTP handler over src.
func NewRouter(src Source) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/robots", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, toWireViews(src.AllRobots()))
	})

	r.Get("/robots/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		view, ok := src.Robot(name)
		if !ok {
			http.Error(w, "robot not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toWireView(view))
	})

	return r
}

// wireView is the JSON shape of a robot.View served by this package.
type wireView struct {
	Name           string    `json:"name"`
	Model          string    `json:"model"`
	FirstFound     time.Time `json:"first_found"`
	LastUpdated    time.Time `json:"last_updated"`
	TrackingState  string    `json:"tracking_state"`
	TrackingIndex  int       `json:"tracking_index"`
	AllocatedCount int       `json:"allocated_count"`
}

func toWireView(v robot.View) wireView {
	return wireView{
		Name:           v.Name,
		Model:          v.Model,
		FirstFound:     v.FirstFound,
		LastUpdated:    v.LastUpdated,
		TrackingState:  v.TrackingState.String(),
		TrackingIndex:  v.TrackingIndex,
		AllocatedCount: v.AllocatedCount,
	}
}

func toWireViews(views []robot.View) []wireView {
	out := make([]wireView, len(views))
	for i, v := range views {
		out[i] = toWireView(v)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
