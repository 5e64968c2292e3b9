/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/camposur/agroguardian/internal/alerting"
	"github.com/camposur/agroguardian/internal/config"
	"github.com/camposur/agroguardian/internal/engine"
	"github.com/camposur/agroguardian/internal/events"
	"github.com/camposur/agroguardian/internal/rainfall"
	"github.com/camposur/agroguardian/internal/reports"
	"github.com/camposur/agroguardian/internal/scheduler"
	"github.com/camposur/agroguardian/internal/store"
)

// Handlers contains all API handlers
type Handlers struct {
	store        store.Store
	config       *config.Config
	orchestrator *engine.Orchestrator
	alerts       *alerting.Engine
	rainfall     *rainfall.Checker
	reports      *reports.Generator
	pruner       *scheduler.HistoryPruner
	emitter      *events.Emitter
	startTime    time.Time
}

// HandlerOptions contains dependencies for creating the handlers
type HandlerOptions struct {
	Store        store.Store
	Config       *config.Config
	Orchestrator *engine.Orchestrator
	Alerts       *alerting.Engine
	Rainfall     *rainfall.Checker
	Reports      *reports.Generator
	Pruner       *scheduler.HistoryPruner
	Emitter      *events.Emitter
	StartTime    time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(opts HandlerOptions) *Handlers {
	return &Handlers{
		store:        opts.Store,
		config:       opts.Config,
		orchestrator: opts.Orchestrator,
		alerts:       opts.Alerts,
		rainfall:     opts.Rainfall,
		reports:      opts.Reports,
		pruner:       opts.Pruner,
		emitter:      opts.Emitter,
		startTime:    opts.StartTime,
	}
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func queryInt64(r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func queryTime(r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// GetHealth handles GET /api/v1/health
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	storageStatus := "connected"
	if err := h.store.Health(ctx); err != nil {
		storageStatus = "error: " + err.Error()
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Storage: storageStatus,
		Version: Version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// GetStats handles GET /api/v1/stats
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	firms, err := h.store.ListActiveFirms(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	defs, err := h.store.ListKPIDefinitions(ctx, "", true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	_, pending, err := h.store.ListAlerts(ctx, store.AlertQuery{Estado: store.AlertPendiente, Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	_, histTotal, err := h.store.ListKPIHistory(ctx, store.KPIHistoryQuery{Limit: 1})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalFirms:     len(firms),
		TotalKPIs:      len(defs),
		PendingAlerts:  pending,
		HistoryRecords: histTotal,
	})
}

// TriggerRun handles POST /api/v1/runs/{frequency}
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	frequency := chi.URLParam(r, "frequency")
	switch frequency {
	case store.FrequencyDaily, store.FrequencyWeekly, store.FrequencyMonthly:
	default:
		writeError(w, http.StatusBadRequest, "INVALID_FREQUENCY", "frequency must be DAILY, WEEKLY or MONTHLY")
		return
	}

	var req RunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
			return
		}
	}

	var summary *engine.RunSummary
	var err error
	if req.FirmID != nil {
		summary, err = h.orchestrator.RunFirm(r.Context(), frequency, *req.FirmID)
	} else {
		summary, err = h.orchestrator.Run(r.Context(), frequency)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "RUN_FAILED", err.Error())
		return
	}

	h.emitter.Emit(events.Event{
		Type:   events.TypeAudit,
		Action: "run_manual",
		Actor:  "api",
		Detail: fmt.Sprintf("corrida %s disparada manualmente", frequency),
	})

	writeJSON(w, http.StatusOK, summary)
}

// ListKPIs handles GET /api/v1/kpis
func (h *Handlers) ListKPIs(w http.ResponseWriter, r *http.Request) {
	defs, err := h.store.ListKPIDefinitions(r.Context(), r.URL.Query().Get("frequency"), false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, KPIListResponse{Items: defs})
}

// PutThreshold handles PUT /api/v1/kpis/{code}/threshold
func (h *Handlers) PutThreshold(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	def, err := h.store.GetKPIDefinitionByCode(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if def == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown kpi code "+code)
		return
	}

	var req ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.Mode == store.ThresholdPercentOfTarget && req.Target == nil {
		writeError(w, http.StatusBadRequest, "INVALID_THRESHOLD", "percent_of_target mode requires a target")
		return
	}

	t := store.KPIThreshold{
		KPIID:     def.ID,
		Direction: req.Direction,
		Mode:      req.Mode,
		Target:    req.Target,
		Warning:   req.Warning,
		Critical:  req.Critical,
	}
	if err := h.store.SaveKPIThreshold(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	h.alerts.InvalidateThreshold(def.ID)

	writeJSON(w, http.StatusOK, t)
}

// GetHistory handles GET /api/v1/kpis/{code}/history
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	def, err := h.store.GetKPIDefinitionByCode(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if def == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown kpi code "+code)
		return
	}

	q := store.KPIHistoryQuery{KPIID: def.ID, Limit: 100}
	if firmID, ok := queryInt64(r, "firm"); ok {
		q.FirmID = firmID
	}
	if lotID, ok := queryInt64(r, "lot"); ok {
		q.LotID = &lotID
	}
	if from, ok := queryTime(r, "from"); ok {
		q.From = &from
	}
	if to, ok := queryTime(r, "to"); ok {
		q.To = &to
	}
	if limit, ok := queryInt64(r, "limit"); ok && limit > 0 {
		q.Limit = int(limit)
	}
	if offset, ok := queryInt64(r, "offset"); ok && offset > 0 {
		q.Offset = int(offset)
	}

	rows, total, err := h.store.ListKPIHistory(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Items: rows, Total: total})
}

// ListAlerts handles GET /api/v1/alerts
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := store.AlertQuery{
		Origen:    r.URL.Query().Get("origen"),
		Estado:    r.URL.Query().Get("estado"),
		Prioridad: r.URL.Query().Get("prioridad"),
		Limit:     100,
	}
	if firmID, ok := queryInt64(r, "firm"); ok {
		q.FirmID = firmID
	}
	if since, ok := queryTime(r, "since"); ok {
		q.Since = &since
	}
	if limit, ok := queryInt64(r, "limit"); ok && limit > 0 {
		q.Limit = int(limit)
	}
	if offset, ok := queryInt64(r, "offset"); ok && offset > 0 {
		q.Offset = int(offset)
	}

	alerts, total, err := h.store.ListAlerts(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AlertListResponse{Items: alerts, Total: total})
}

// CreateAlert handles POST /api/v1/alerts (manual alerts)
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.FirmID == 0 || req.Titulo == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "firm_id and titulo are required")
		return
	}

	prioridad := req.Prioridad
	if prioridad == "" {
		prioridad = store.PrioridadMedia
	}

	alert := store.Alert{
		ID:          uuid.NewString(),
		FirmID:      req.FirmID,
		LotID:       req.LotID,
		Origen:      store.OrigenManual,
		Tipo:        req.Tipo,
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		Prioridad:   prioridad,
		Estado:      store.AlertPendiente,
		Fecha:       time.Now().UTC(),
	}
	if err := h.store.CreateAlert(r.Context(), alert); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, alert)
}

// ResolveAlert handles POST /api/v1/alerts/{id}/resolve
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	var req ResolveAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.ResolvedBy == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "resolved_by is required")
		return
	}

	alert, err := h.alerts.ResolveKPIAlert(r.Context(), alertID, req.ResolvedBy, req.Notas)
	if err != nil {
		writeError(w, http.StatusConflict, "RESOLVE_FAILED", err.Error())
		return
	}

	h.emitter.Emit(events.Event{
		Type:   events.TypeAudit,
		FirmID: alert.FirmID,
		Actor:  req.ResolvedBy,
		Action: "alert_resolved",
		Detail: fmt.Sprintf("alerta %s resuelta", alertID),
	})

	writeJSON(w, http.StatusOK, alert)
}

// CancelAlert handles POST /api/v1/alerts/{id}/cancel
func (h *Handlers) CancelAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = "api"
	}

	alert, err := h.store.CancelAlert(r.Context(), alertID, userID)
	if err != nil {
		writeError(w, http.StatusConflict, "CANCEL_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// ListRecommendations handles GET /api/v1/recommendations
func (h *Handlers) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	firmID, ok := queryInt64(r, "firm")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "firm is required")
		return
	}
	limit, _ := queryInt64(r, "limit")

	recs, err := h.store.ListRecommendations(r.Context(), firmID, int(limit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RecommendationListResponse{Items: recs})
}

// GetExecutiveReport handles GET /api/v1/reports/executive
func (h *Handlers) GetExecutiveReport(w http.ResponseWriter, r *http.Request) {
	firmID, ok := queryInt64(r, "firm")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "firm is required")
		return
	}
	year, _ := queryInt64(r, "year")
	month, _ := queryInt64(r, "month")
	if year == 0 || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "year and month (1-12) are required")
		return
	}

	report, err := h.reports.Executive(r.Context(), firmID, int(year), time.Month(month))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REPORT_FAILED", err.Error())
		return
	}
	h.writeReport(w, r, report, fmt.Sprintf("ejecutivo_%d_%04d-%02d.json", firmID, year, month))
}

// GetComparativeReport handles GET /api/v1/reports/comparative
func (h *Handlers) GetComparativeReport(w http.ResponseWriter, r *http.Request) {
	firmID, ok := queryInt64(r, "firm")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "firm is required")
		return
	}
	year, _ := queryInt64(r, "year")
	if year == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "year is required")
		return
	}

	report, err := h.reports.Comparative(r.Context(), firmID, int(year))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REPORT_FAILED", err.Error())
		return
	}
	h.writeReport(w, r, report, fmt.Sprintf("comparativo_%d_%d.json", firmID, year))
}

// GetLearningReport handles GET /api/v1/reports/learning
func (h *Handlers) GetLearningReport(w http.ResponseWriter, r *http.Request) {
	firmID, ok := queryInt64(r, "firm")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "firm is required")
		return
	}
	from, okFrom := queryTime(r, "from")
	to, okTo := queryTime(r, "to")
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "from and to (YYYY-MM-DD) are required")
		return
	}

	report, err := h.reports.Learning(r.Context(), firmID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REPORT_FAILED", err.Error())
		return
	}
	h.writeReport(w, r, report, fmt.Sprintf("aprendizaje_%d.json", firmID))
}

// writeReport serializes a report, optionally as a download attachment.
func (h *Handlers) writeReport(w http.ResponseWriter, r *http.Request, report any, filename string) {
	if r.URL.Query().Get("download") == "true" {
		data, err := reports.ExportJSON(report)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CreateRainfall handles POST /api/v1/rainfall
func (h *Handlers) CreateRainfall(w http.ResponseWriter, r *http.Request) {
	var req RainfallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if req.FirmID == 0 || req.PremiseID == 0 || req.Fecha.IsZero() {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "firm_id, premise_id and fecha are required")
		return
	}
	if req.Mm < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "mm cannot be negative")
		return
	}

	campaign := int64(rainfall.CampaignYear(req.Fecha))
	rec, err := h.store.CreateRainfallRecord(r.Context(), store.RainfallRecord{
		FirmID:     req.FirmID,
		PremiseID:  req.PremiseID,
		Fecha:      req.Fecha.UTC(),
		Mm:         req.Mm,
		Usuario:    req.Usuario,
		CampaignID: &campaign,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// ListRainfall handles GET /api/v1/rainfall
func (h *Handlers) ListRainfall(w http.ResponseWriter, r *http.Request) {
	premiseID, ok := queryInt64(r, "premise")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "premise is required")
		return
	}
	from, okFrom := queryTime(r, "from")
	to, okTo := queryTime(r, "to")
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "from and to (YYYY-MM-DD) are required")
		return
	}

	records, err := h.store.ListRainfall(r.Context(), premiseID, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	var total float64
	for _, rec := range records {
		total += rec.Mm
	}
	writeJSON(w, http.StatusOK, RainfallListResponse{Items: records, Total: total})
}

// DeleteRainfall handles DELETE /api/v1/rainfall/{id}. Records are
// immutable; deletion is only allowed within the configured edit
// window after creation.
func (h *Handlers) DeleteRainfall(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "id must be numeric")
		return
	}

	rec, err := h.store.GetRainfallRecord(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "rainfall record not found")
		return
	}

	window := time.Duration(h.config.Rainfall.EditWindowHours) * time.Hour
	if time.Since(rec.CreatedAt) > window {
		writeError(w, http.StatusForbidden, "EDIT_WINDOW_CLOSED",
			fmt.Sprintf("record is older than the %dh edit window", h.config.Rainfall.EditWindowHours))
		return
	}

	if err := h.store.DeleteRainfallRecord(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	h.emitter.Emit(events.Event{
		Type:   events.TypeAudit,
		FirmID: rec.FirmID,
		Actor:  "api",
		Action: "rainfall_deleted",
		Detail: fmt.Sprintf("registro de lluvia %d eliminado (%.1f mm del %s)", id, rec.Mm, rec.Fecha.Format("2006-01-02")),
	})

	w.WriteHeader(http.StatusNoContent)
}

// CheckRainfall handles POST /api/v1/rainfall/check
func (h *Handlers) CheckRainfall(w http.ResponseWriter, r *http.Request) {
	firmID, ok := queryInt64(r, "firm")
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_QUERY", "firm is required")
		return
	}

	results, err := h.rainfall.CheckFirm(r.Context(), firmID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "CHECK_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// TriggerPrune handles POST /api/v1/maintenance/prune
func (h *Handlers) TriggerPrune(w http.ResponseWriter, r *http.Request) {
	if days, ok := queryInt64(r, "days"); ok {
		if days <= 0 || int(days) > h.config.HistoryRetention.MaxDays {
			writeError(w, http.StatusBadRequest, "INVALID_QUERY",
				fmt.Sprintf("days must be between 1 and %d", h.config.HistoryRetention.MaxDays))
			return
		}
		h.pruner.SetRetentionDays(int(days))
	}
	h.pruner.Prune(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
