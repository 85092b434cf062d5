// Package handlers implements the HTTP endpoints of the report API:
// cached reports, planting records and asynchronous generation jobs.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/dvloznov/agrofin/internal/api/middleware"
	"github.com/dvloznov/agrofin/internal/cache"
	"github.com/dvloznov/agrofin/internal/domain"
	"github.com/dvloznov/agrofin/internal/jobs"
	"github.com/dvloznov/agrofin/internal/plantio"
)

// ReportsHandler serves cached reports and enqueues regenerations.
type ReportsHandler struct {
	cache     cache.Store
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(store cache.Store, publisher jobs.Publisher, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{
		cache:     store,
		publisher: publisher,
		log:       log,
	}
}

// GetReport handles GET /api/reports/{empresa}/{tipo}.
func (h *ReportsHandler) GetReport(w http.ResponseWriter, r *http.Request, empresa, tipo string) {
	if tipo != cache.TipoDRE && tipo != cache.TipoFluxo {
		middleware.WriteError(w, http.StatusBadRequest, "tipo must be dre or fluxo_caixa")
		return
	}

	doc, err := h.cache.Load(r.Context(), empresa, tipo)
	if errors.Is(err, cache.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Report not generated yet")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("empresa", empresa).Str("tipo", tipo).Msg("Failed to load report")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load report")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, doc)
}

// EnqueueGeneration handles POST /api/reports/generate.
func (h *ReportsHandler) EnqueueGeneration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Empresa     string `json:"empresa"`
		Tipo        string `json:"tipo"`
		FeedPath    string `json:"feed_path"`
		WithParecer bool   `json:"with_parecer"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Empresa == "" || req.FeedPath == "" {
		middleware.WriteError(w, http.StatusBadRequest, "empresa and feed_path are required")
		return
	}
	if req.Tipo == "" {
		req.Tipo = cache.TipoDRE
	}
	if req.Tipo != cache.TipoDRE && req.Tipo != cache.TipoFluxo {
		middleware.WriteError(w, http.StatusBadRequest, "tipo must be dre or fluxo_caixa")
		return
	}

	job := &jobs.GenerateReportJob{
		Empresa:     req.Empresa,
		Tipo:        req.Tipo,
		FeedPath:    req.FeedPath,
		WithParecer: req.WithParecer,
	}

	if err := h.publisher.PublishGenerateReport(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("empresa", req.Empresa).Msg("Failed to enqueue report job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue report job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("empresa", req.Empresa).Str("tipo", req.Tipo).Msg("Report job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"empresa": req.Empresa,
		"tipo":    req.Tipo,
		"status":  string(job.Status),
	})
}

// PlantiosHandler serves the planting records CRUD.
type PlantiosHandler struct {
	store *plantio.Store
	log   zerolog.Logger
}

// NewPlantiosHandler creates a new plantios handler.
func NewPlantiosHandler(store *plantio.Store, log zerolog.Logger) *PlantiosHandler {
	return &PlantiosHandler{
		store: store,
		log:   log,
	}
}

// ListPlantios handles GET /api/plantios.
func (h *PlantiosHandler) ListPlantios(w http.ResponseWriter, _ *http.Request) {
	list := h.store.List()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plantios": list,
		"count":    len(list),
	})
}

// SavePlantio handles POST /api/plantios (create or replace).
func (h *PlantiosHandler) SavePlantio(w http.ResponseWriter, r *http.Request) {
	var p domain.Plantio
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if p.Crop == "" {
		middleware.WriteError(w, http.StatusBadRequest, "cultura is required")
		return
	}
	if p.Hectares < 0 {
		middleware.WriteError(w, http.StatusBadRequest, "hectares must not be negative")
		return
	}

	saved, err := h.store.Save(p)
	if err != nil {
		h.log.Error().Err(err).Str("cultura", p.Crop).Msg("Failed to save plantio")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save plantio")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, saved)
}

// GetPlantio handles GET /api/plantios/{id}.
func (h *PlantiosHandler) GetPlantio(w http.ResponseWriter, _ *http.Request, id string) {
	p, err := h.store.Get(id)
	if errors.Is(err, plantio.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Plantio not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to get plantio")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get plantio")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

// DeletePlantio handles DELETE /api/plantios/{id}. The record is
// deactivated, not removed; it stays visible in listings with ativo=false.
func (h *PlantiosHandler) DeletePlantio(w http.ResponseWriter, _ *http.Request, id string) {
	err := h.store.Delete(id)
	if errors.Is(err, plantio.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Plantio not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete plantio")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete plantio")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "inativo"})
}

// JobsHandler serves job status queries.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs.
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Empresa: query.Get("empresa"),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
