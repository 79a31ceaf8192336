// Package api exposes the calendar engine to the front-end as JSON.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"prodcal/internal/calendar"
	"prodcal/internal/domain"
	"prodcal/internal/timeutil"
)

type Server struct {
	r    *chi.Mux
	orch *calendar.Orchestrator
}

func NewServer(orch *calendar.Orchestrator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	s := &Server{r: r, orch: orch}

	r.Get("/health", s.health)
	r.Get("/api/calendar", s.snapshot)
	r.Post("/api/calendar/range", s.applyRange)
	r.Post("/api/calendar/widget-range", s.widgetRange)
	r.Post("/api/calendar/navigate", s.navigate)
	r.Post("/api/calendar/detail", s.setDetail)
	r.Post("/api/calendar/grouping", s.setGrouping)
	r.Post("/api/calendar/filters/customers", s.setCustomerFilter)
	r.Post("/api/calendar/filters/workstations", s.setWorkstationFilter)
	r.Post("/api/calendar/edit-mode", s.setEditMode)
	r.Post("/api/calendar/coloring", s.setColoring)
	r.Post("/api/calendar/tasks/{id}/move", s.moveTask)
	r.Post("/api/calendar/tasks/{id}/resize", s.resizeTask)
	r.Post("/api/calendar/refresh", s.refresh)

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

type rangeReq struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *Server) applyRange(w http.ResponseWriter, r *http.Request) {
	var req rangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	start, okS := timeutil.ToInstant(req.Start)
	end, okE := timeutil.ToInstant(req.End)
	if !okS || !okE {
		http.Error(w, "start and end must be ISO-8601 timestamps", 400)
		return
	}
	s.run(w, r, s.orch.ApplyCustomRange(r.Context(), start, end))
}

func (s *Server) widgetRange(w http.ResponseWriter, r *http.Request) {
	var req rangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	start, okS := timeutil.ToInstant(req.Start)
	end, okE := timeutil.ToInstant(req.End)
	if !okS || !okE {
		http.Error(w, "start and end must be ISO-8601 timestamps", 400)
		return
	}
	s.run(w, r, s.orch.WidgetRangeChanged(r.Context(), start, end))
}

type navigateReq struct {
	Direction string `json:"direction"` // prev, next, today
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.run(w, r, s.orch.Navigate(r.Context(), req.Direction))
}

type detailReq struct {
	Detail string `json:"detail"`
	Clamp  bool   `json:"clamp"`
}

func (s *Server) setDetail(w http.ResponseWriter, r *http.Request) {
	var req detailReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.run(w, r, s.orch.SetDetail(r.Context(), domain.DetailLevel(req.Detail), req.Clamp))
}

type groupingReq struct {
	GroupBy string `json:"group_by"`
}

func (s *Server) setGrouping(w http.ResponseWriter, r *http.Request) {
	var req groupingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.run(w, r, s.orch.SetGrouping(r.Context(), domain.GroupMode(req.GroupBy)))
}

type filterReq struct {
	Selected map[string]bool `json:"selected"`
}

func (s *Server) setCustomerFilter(w http.ResponseWriter, r *http.Request) {
	var req filterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.orch.SetCustomerFilter(req.Selected)
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) setWorkstationFilter(w http.ResponseWriter, r *http.Request) {
	var req filterReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.orch.SetWorkstationFilter(req.Selected)
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

type toggleReq struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) setEditMode(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.orch.SetEditEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) setColoring(w http.ResponseWriter, r *http.Request) {
	var req toggleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	s.orch.SetWorkstationColoring(req.Enabled)
	writeJSON(w, http.StatusOK, s.orch.Snapshot())
}

func (s *Server) moveTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req rangeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	start, ok := timeutil.ToInstant(req.Start)
	if !ok {
		http.Error(w, "start must be an ISO-8601 timestamp", 400)
		return
	}
	end, _ := timeutil.ToInstant(req.End) // end is optional on a move
	s.run(w, r, s.orch.MoveTask(r.Context(), id, start, end))
}

type resizeReq struct {
	End string `json:"end"`
}

func (s *Server) resizeTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req resizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	end, ok := timeutil.ToInstant(req.End)
	if !ok {
		http.Error(w, "end must be an ISO-8601 timestamp", 400)
		return
	}
	s.run(w, r, s.orch.ResizeTask(r.Context(), id, end))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.run(w, r, s.orch.Refresh(r.Context()))
}

// run maps an orchestrator action result to a response. Every action
// answers with a fresh snapshot so the front-end always re-renders from
// authoritative state; fetch failures still return the snapshot (with the
// previous task set and the notice) under a 502.
func (s *Server) run(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusOK
	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		code = http.StatusBadRequest
	case errors.Is(err, calendar.ErrUnknownTask):
		code = http.StatusNotFound
	case errors.Is(err, calendar.ErrBadInput):
		code = http.StatusBadRequest
	case err != nil:
		code = http.StatusBadGateway
	}
	writeJSON(w, code, s.orch.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
