package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"skyplan/internal/fleet"
	"skyplan/internal/model"
	"skyplan/internal/report"
	"skyplan/internal/session"
)

// SessionsHandler handles POST /v1/sessions (start a game).
func (s *Server) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req model.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateStartRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid session request", err.Error(), r.URL.Path)
		return
	}
	sess, err := s.Sessions.Start(r.Context(), model.Planes(req.Planes))
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	s.Broker.Publish(sess.ID, SSEEvent{Type: "session.started", Data: map[string]any{"sessionId": sess.ID, "planes": sess.Planes}})
	writeJSON(w, http.StatusCreated, sess)
}

// SessionByIDHandler handles GET/DELETE /v1/sessions/{id} and the
// /rounds, /report.xlsx and /stream sub-resources.
func (s *Server) SessionByIDHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	if rest == path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			sess, err := s.Sessions.Get(r.Context(), id)
			if err != nil {
				writeSessionError(w, r, err)
				return
			}
			out := map[string]any{"session": sess}
			if rep, ok := s.Sessions.LastReport(id); ok {
				out["lastReport"] = rep
			}
			writeJSON(w, http.StatusOK, out)
		case http.MethodDelete:
			if err := s.Sessions.End(r.Context(), id); err != nil {
				writeSessionError(w, r, err)
				return
			}
			s.Broker.Publish(id, SSEEvent{Type: "session.ended", Data: map[string]any{"sessionId": id}})
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}
	switch parts[1] {
	case "rounds":
		s.roundsHandler(w, r, id)
	case "report.xlsx":
		s.reportHandler(w, r, id)
	case "stream":
		s.StreamHandler(w, r, id)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", path)
	}
}

func (s *Server) roundsHandler(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodPost:
		var req model.RoundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if err := validateRoundRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid round request", err.Error(), r.URL.Path)
			return
		}
		resp, err := s.Sessions.Update(r.Context(), id, req.Round, model.Planes(req.Planes), req.Headings)
		if err != nil {
			writeSessionError(w, r, err)
			return
		}
		s.Broker.Publish(id, SSEEvent{Type: "round.optimized", Data: map[string]any{
			"sessionId":   id,
			"round":       resp.Round,
			"headings":    resp.Headings,
			"iterations":  resp.Report.Iterations,
			"cost":        resp.Report.FinalCost.Total,
			"temperature": resp.Report.TemperatureAfter,
		}})
		writeJSON(w, http.StatusOK, resp)
	case http.MethodGet:
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		recs, err := s.Sessions.Rounds(r.Context(), id, limit)
		if err != nil {
			writeSessionError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": recs})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	recs, err := s.Sessions.Rounds(r.Context(), id, 0)
	if err != nil {
		writeSessionError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="session_`+id+`.xlsx"`)
	if err := report.Write(w, sess, recs); err != nil {
		s.Log.Warn("report export failed", "session", id, "err", err)
	}
}

// OptimizerConfigHandler returns the optimizer configuration new sessions use.
func (s *Server) OptimizerConfigHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/optimizer/config" || r.Method != http.MethodGet {
		writeProblem(w, 404, "Not Found", "", r.URL.Path)
		return
	}
	writeJSON(w, 200, map[string]any{"defaults": s.Sessions.Config()})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, 200, map[string]string{"status": "ready"})
}

func writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownSession):
		writeProblem(w, http.StatusNotFound, "Session not found", err.Error(), r.URL.Path)
	case errors.Is(err, session.ErrSessionEnded):
		writeProblem(w, http.StatusConflict, "Session ended", err.Error(), r.URL.Path)
	case errors.Is(err, session.ErrFleetSize),
		errors.Is(err, fleet.ErrHeadingCount),
		errors.Is(err, fleet.ErrEmptyFleet),
		errors.Is(err, fleet.ErrNegativeDeparture),
		errors.Is(err, fleet.ErrNegativeRound),
		errors.Is(err, fleet.ErrNonFinitePosition):
		writeProblem(w, http.StatusBadRequest, "Invalid fleet", err.Error(), r.URL.Path)
	default:
		writeProblem(w, http.StatusInternalServerError, "Session failed", err.Error(), r.URL.Path)
	}
}
