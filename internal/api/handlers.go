package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

// handleScrape fetches raw records from the given source endpoints and runs
// them through the ingestion pipeline. A batch with invalid records still
// succeeds; both partitions come back in the response.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Sources) == 0 {
		respondError(w, http.StatusBadRequest, "sources must be a non-empty array")
		return
	}

	result, err := s.pipeline.IngestFromSources(r.Context(), req.Sources)
	if err != nil {
		zap.L().Error("api: scrape failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "scrape failed")
		return
	}

	recordIngestMetrics(result)
	respondJSON(w, http.StatusOK, result)
}

// handleIngest ingests raw records supplied directly in the request body.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Records []model.RawRecord `json:"records"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Records) == 0 {
		respondError(w, http.StatusBadRequest, "records must be a non-empty array")
		return
	}

	result, err := s.pipeline.Ingest(r.Context(), req.Records)
	if err != nil {
		zap.L().Error("api: ingest failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	recordIngestMetrics(result)
	respondJSON(w, http.StatusOK, result)
}

func recordIngestMetrics(result *pipeline.IngestResult) {
	leadsIngested.Add(float64(len(result.Inserted)))
	for _, rej := range result.Rejected {
		leadsRejected.WithLabelValues(string(rej.Reason)).Inc()
	}
}

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	var filter store.LeadFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := model.ParseStatus(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}

	leads, err := s.store.List(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: list leads failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "list failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "lead not found")
			return
		}
		zap.L().Error("api: get lead failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "get failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"lead": lead})
}

// handleTransition moves a lead to a new status. The transition graph is
// deliberately permissive: any valid status is reachable from any other, so
// manual corrections (including reopening closed leads) always work.
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.Status == "" {
		respondError(w, http.StatusBadRequest, "id and status are required")
		return
	}

	lead, err := s.store.Transition(r.Context(), req.ID, model.Status(req.Status))
	if err != nil {
		switch {
		case eris.Is(err, store.ErrNotFound):
			respondError(w, http.StatusNotFound, "lead not found")
		case eris.Is(err, store.ErrInvalidStatus):
			respondError(w, http.StatusBadRequest, "invalid status")
		default:
			zap.L().Error("api: transition failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "transition failed")
		}
		return
	}

	leadTransitions.WithLabelValues(string(lead.Status)).Inc()
	respondJSON(w, http.StatusOK, map[string]any{"lead": lead})
}

// handleExport writes the (optionally status-filtered) lead list to a file in
// the configured export directory.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Format   string `json:"format"`
		Filename string `json:"filename"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var filter store.LeadFilter
	if req.Status != "" {
		status, ok := model.ParseStatus(req.Status)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = status
	}

	leads, err := s.store.List(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: export list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	if req.Filename == "" {
		req.Filename = "leads." + req.Format
	}
	path := filepath.Join(s.cfg.Export.Dir, filepath.Base(req.Filename))

	switch req.Format {
	case "xlsx":
		err = export.WriteXLSX(path, s.cfg.Export.SheetName, leads)
	case "csv":
		err = export.WriteCSV(path, leads)
	case "sqlite":
		err = export.WriteSQLite(r.Context(), path, leads)
	default:
		respondError(w, http.StatusBadRequest, "format must be one of xlsx, csv, sqlite")
		return
	}
	if err != nil {
		zap.L().Error("api: export write failed", zap.String("path", path), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"path": path, "count": len(leads)})
}
