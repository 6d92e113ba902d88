package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/featrans/internal/engine"
	"github.com/hyperjump/featrans/internal/models"
)

// transformRequest is the body of POST /api/v1/transform.
type transformRequest struct {
	Rows []models.Row `json:"rows"`
}

// transformResponse is the body returned by POST /api/v1/transform.
type transformResponse struct {
	Samples []*models.Sample `json:"samples"`
}

type summaryResponse struct {
	IndexFrom   int                  `json:"index_from"`
	Columns     []string             `json:"columns"`
	NumFeatures int                  `json:"num_features"`
	Ranges      []engine.ColumnRange `json:"ranges"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("transform request", zap.Int("rows", len(req.Rows)))

	s.mu.Lock()
	defer s.mu.Unlock()
	resp := transformResponse{Samples: make([]*models.Sample, 0, len(req.Rows))}
	for i, row := range req.Rows {
		sample, err := s.engine.TransformRow(row)
		if err != nil {
			s.logger.Debug("transform failed", zap.Int("row", i), zap.Error(err))
			s.respondError(w, statusFor(err), "row "+strconv.Itoa(i)+": "+err.Error())
			return
		}
		resp.Samples = append(resp.Samples, sample)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeatureName(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		s.respondError(w, http.StatusBadRequest, "index must be a non-negative integer")
		return
	}
	s.mu.Lock()
	name, ok, err := s.engine.FeatureName(index)
	s.mu.Unlock()
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if !ok {
		s.respondError(w, http.StatusNotFound, "feature not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"index": index, "name": name})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ranges, err := s.engine.Ranges()
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	n, err := s.engine.NumFeatures()
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, summaryResponse{
		IndexFrom:   s.engine.IndexFrom(),
		Columns:     s.engine.Columns(),
		NumFeatures: n,
		Ranges:      ranges,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := map[string]interface{}{
		"discovered": s.engine.Discovered(),
		"columns":    s.engine.Columns(),
	}
	if s.snapshot != nil {
		resp["snapshot"] = s.snapshot
	}
	s.mu.Unlock()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrMissingTransformer):
		return http.StatusInternalServerError
	case errors.Is(err, models.ErrMissingColumn),
		errors.Is(err, models.ErrEmptyLabel),
		errors.Is(err, models.ErrInvalidNumber),
		errors.Is(err, models.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
