package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/equitysage/equitysage/internal/domain"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, &domain.ValidationError{Detail: "not found"}, http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "equitysage",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"llm_configured": s.insight.Configured(),
		"model":          s.insight.Model(),
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker, err := domain.ParseTicker(r.PathValue("ticker"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	quote, err := s.quotes.Quote(r.Context(), ticker)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker, err := domain.ParseTicker(r.PathValue("ticker"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), ticker)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("tickers"))
	if raw == "" {
		s.writeDomainError(w, &domain.ValidationError{Detail: "tickers query parameter is required"})
		return
	}

	var tickers []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}

	result, err := s.comparer.Compare(r.Context(), tickers)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// writeDomainError maps the error taxonomy to HTTP statuses: validation
// errors are the caller's fault, an unresolvable ticker is 404, and any
// other upstream or pipeline failure is 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var upstream *domain.UpstreamDataError

	switch {
	case errors.As(err, &validation):
		s.writeError(w, err, http.StatusBadRequest)
	case errors.As(err, &upstream) && upstream.NotFound:
		s.writeError(w, err, http.StatusNotFound)
	default:
		s.writeError(w, err, http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, status int) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	s.writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encode failed", zap.Error(err))
	}
}
