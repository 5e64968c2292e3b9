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

package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/metrics"
	"github.com/camposur/agroguardian/internal/store"
)

const (
	// AlertTypeKPI is the alert type for threshold-breach alerts.
	AlertTypeKPI = "kpi"
	// AlertTypeKPICombined is the alert type for multi-rule aggregated alerts.
	AlertTypeKPICombined = "kpi_combinada"

	// CombinedRule is the regla_aplicada value of aggregated alerts.
	CombinedRule = "KPI_COMBINADA"

	// ThresholdWarning and ThresholdCritical label which threshold the
	// linked history row breached.
	ThresholdWarning  = "WARNING"
	ThresholdCritical = "CRITICAL"

	// combinedWindow is how far back pending KPI alerts count towards
	// a combined alert.
	combinedWindow = 7 * 24 * time.Hour

	// warningWindow is how recent a history row must be to count as an
	// active warning for consecutive-day tracking.
	warningWindow = 24 * time.Hour

	thresholdCacheSize = 256
)

// Engine turns KPI results into history rows and alerts. It owns the
// threshold lookup (cached), the pending-alert deduplication and the
// consecutive-warning counters.
type Engine struct {
	store      store.Store
	logger     zerolog.Logger
	thresholds *lru.Cache[int64, *store.KPIThreshold]
}

// NewEngine creates an alert engine backed by the given store.
func NewEngine(st store.Store, logger zerolog.Logger) *Engine {
	cache, _ := lru.New[int64, *store.KPIThreshold](thresholdCacheSize)
	return &Engine{
		store:      st,
		logger:     logger.With().Str("component", "alerting").Logger(),
		thresholds: cache,
	}
}

// SaveResult persists a KPI result into the history, classifies it
// against its threshold bands and raises an alert when the status is
// AMARILLO or ROJO. Re-running the same period overwrites the history
// row and, thanks to deduplication, never duplicates the alert.
func (e *Engine) SaveResult(ctx context.Context, def store.KPIDefinition, in kpi.Input, res kpi.Result, calculatedBy string) (*store.KPIHistory, *store.Alert, error) {
	status := store.StatusSinDatos
	if res.HasValue() {
		threshold, err := e.threshold(ctx, def.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading threshold for %s: %w", def.Code, err)
		}
		status = Classify(*res.Value, threshold)
	}

	var lotID int64
	if in.LotID != nil {
		lotID = *in.LotID
	}

	row := store.KPIHistory{
		FirmID:       in.FirmID,
		KPIID:        def.ID,
		LotID:        lotID,
		PeriodStart:  in.PeriodStart,
		PeriodEnd:    in.PeriodEnd,
		Value:        res.Value,
		Unit:         res.Unit,
		Status:       status,
		CalculatedAt: time.Now().UTC(),
		CalculatedBy: calculatedBy,
	}
	if res.Metadata != nil {
		if err := row.SetMetadata(res.Metadata); err != nil {
			return nil, nil, fmt.Errorf("encoding metadata for %s: %w", def.Code, err)
		}
	}

	saved, err := e.store.SaveKPIHistory(ctx, row)
	if err != nil {
		return nil, nil, fmt.Errorf("saving history for %s: %w", def.Code, err)
	}

	if res.HasValue() {
		metrics.UpdateKPIValue(fmt.Sprintf("%d", in.FirmID), def.Code, *res.Value)
	}

	if status != store.StatusAmarillo && status != store.StatusRojo {
		return saved, nil, nil
	}

	alert, err := e.raiseKPIAlert(ctx, def, saved, status)
	if err != nil {
		return saved, nil, err
	}
	return saved, alert, nil
}

// raiseKPIAlert creates (or finds) the pending alert for a threshold
// breach. The dedup key keeps at most one pending automatic alert per
// firm, lot and rule; resolving the alert frees the slot.
func (e *Engine) raiseKPIAlert(ctx context.Context, def store.KPIDefinition, row *store.KPIHistory, status string) (*store.Alert, error) {
	rule := fmt.Sprintf("KPI_%s_%s", def.Code, status)
	dedupKey := fmt.Sprintf("%d:%d:%s", row.FirmID, row.LotID, rule)

	priority := store.PrioridadMedia
	if status == store.StatusRojo {
		priority = store.PrioridadAlta
	}

	alert := store.Alert{
		ID:            uuid.NewString(),
		FirmID:        row.FirmID,
		Tipo:          AlertTypeKPI,
		Titulo:        fmt.Sprintf("KPI %s en estado %s", def.Name, status),
		Descripcion:   e.describeBreach(def, row, status),
		Prioridad:     priority,
		Estado:        store.AlertPendiente,
		Origen:        store.OrigenAutomatica,
		ReglaAplicada: rule,
		DedupKey:      &dedupKey,
		Fecha:         time.Now().UTC(),
	}

	created, existing, err := e.store.CreateAlertIfAbsent(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("creating alert %s: %w", rule, err)
	}
	if !created {
		metrics.RecordAlertDeduped(AlertTypeKPI)
		e.logger.Debug().
			Str("rule", rule).
			Int64("firm", row.FirmID).
			Str("alert", existing.ID).
			Msg("pending alert already exists, skipping")
		return existing, nil
	}

	metrics.RecordAlert(AlertTypeKPI, priority)
	e.logger.Info().
		Str("rule", rule).
		Int64("firm", row.FirmID).
		Str("priority", priority).
		Str("alert", existing.ID).
		Msg("alert created")

	thresholdType := ThresholdWarning
	if status == store.StatusRojo {
		thresholdType = ThresholdCritical
	}

	// Link failures are logged but never undo the alert: the alert is
	// the primary record, the link is navigation metadata.
	link := store.KPIAlertLink{
		AlertID:       existing.ID,
		KPIHistoryID:  row.ID,
		ThresholdType: thresholdType,
		CreatedAt:     time.Now().UTC(),
	}
	if row.Value != nil {
		link.CurrentValue = *row.Value
	}
	if err := e.store.CreateKPIAlertLink(ctx, link); err != nil {
		e.logger.Warn().Err(err).Str("alert", existing.ID).Msg("failed to link alert to history row")
	}

	return existing, nil
}

func (e *Engine) describeBreach(def store.KPIDefinition, row *store.KPIHistory, status string) string {
	if row.Value == nil {
		return fmt.Sprintf("El KPI %s quedó en estado %s para el período %s a %s.",
			def.Name, status,
			row.PeriodStart.Format("2006-01-02"), row.PeriodEnd.Format("2006-01-02"))
	}
	return fmt.Sprintf("El KPI %s registró %.2f %s (estado %s) para el período %s a %s.",
		def.Name, *row.Value, row.Unit, status,
		row.PeriodStart.Format("2006-01-02"), row.PeriodEnd.Format("2006-01-02"))
}

// ResolveKPIAlert marks an automatic alert as completed with the given
// resolution notes. Resolving an already-completed alert overwrites the
// notes so retried resolutions stay idempotent.
func (e *Engine) ResolveKPIAlert(ctx context.Context, alertID, resolvedBy, notes string) (*store.Alert, error) {
	alert, err := e.store.GetAlert(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, fmt.Errorf("alert %s not found", alertID)
	}
	if alert.Estado == store.AlertCancelled {
		return nil, fmt.Errorf("alert %s is cancelled and cannot be resolved", alertID)
	}
	return e.store.ResolveAlert(ctx, alertID, resolvedBy, notes)
}

// UpdateConsecutiveWarnings refreshes the consecutive-warning counter
// for every active KPI of a firm: a latest history row in AMARILLO
// within the last 24h increments the streak, anything else resets it.
func (e *Engine) UpdateConsecutiveWarnings(ctx context.Context, firmID int64, now time.Time) error {
	defs, err := e.store.ListKPIDefinitions(ctx, "", true)
	if err != nil {
		return fmt.Errorf("listing kpi definitions: %w", err)
	}

	for _, def := range defs {
		latest, err := e.store.GetLatestKPIHistory(ctx, firmID, def.ID)
		if err != nil {
			return fmt.Errorf("loading latest history for %s: %w", def.Code, err)
		}

		warning := latest != nil &&
			latest.Status == store.StatusAmarillo &&
			now.Sub(latest.CalculatedAt) <= warningWindow

		if warning {
			if err := e.store.IncrementConsecutiveWarning(ctx, firmID, def.ID, now); err != nil {
				return fmt.Errorf("incrementing warning streak for %s: %w", def.Code, err)
			}
		} else {
			if err := e.store.ResetConsecutiveWarning(ctx, firmID, def.ID); err != nil {
				return fmt.Errorf("resetting warning streak for %s: %w", def.Code, err)
			}
		}
	}
	return nil
}

// DetectCombinedAlerts raises one high-priority aggregated alert per
// firm that has two or more distinct pending KPI rules within the last
// seven days. The aggregated alert dedups like any other.
func (e *Engine) DetectCombinedAlerts(ctx context.Context) (int, error) {
	since := time.Now().UTC().Add(-combinedWindow)
	counts, err := e.store.CountPendingKPIAlertsByFirm(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("counting pending kpi alerts: %w", err)
	}

	raised := 0
	for _, c := range counts {
		if c.DistinctRules < 2 {
			continue
		}

		dedupKey := fmt.Sprintf("%d:0:%s", c.FirmID, CombinedRule)
		alert := store.Alert{
			ID:     uuid.NewString(),
			FirmID: c.FirmID,
			Tipo:   AlertTypeKPICombined,
			Titulo: "Múltiples KPIs fuera de rango",
			Descripcion: fmt.Sprintf(
				"La firma tiene %d reglas de KPI distintas con alertas pendientes en los últimos 7 días (%d alertas en total). Revisar la situación general del establecimiento.",
				c.DistinctRules, c.Total),
			Prioridad:     store.PrioridadAlta,
			Estado:        store.AlertPendiente,
			Origen:        store.OrigenAutomatica,
			ReglaAplicada: CombinedRule,
			DedupKey:      &dedupKey,
			Fecha:         time.Now().UTC(),
		}

		created, _, err := e.store.CreateAlertIfAbsent(ctx, alert)
		if err != nil {
			return raised, fmt.Errorf("creating combined alert for firm %d: %w", c.FirmID, err)
		}
		if created {
			raised++
			metrics.RecordAlert(AlertTypeKPICombined, store.PrioridadAlta)
			e.logger.Info().Int64("firm", c.FirmID).Int64("rules", c.DistinctRules).Msg("combined alert created")
		} else {
			metrics.RecordAlertDeduped(AlertTypeKPICombined)
		}
	}
	return raised, nil
}

// InvalidateThreshold drops the cached threshold for a KPI. Called
// after threshold updates through the API.
func (e *Engine) InvalidateThreshold(kpiID int64) {
	e.thresholds.Remove(kpiID)
}

func (e *Engine) threshold(ctx context.Context, kpiID int64) (*store.KPIThreshold, error) {
	if cached, ok := e.thresholds.Get(kpiID); ok {
		return cached, nil
	}
	t, err := e.store.GetKPIThreshold(ctx, kpiID)
	if err != nil {
		return nil, err
	}
	e.thresholds.Add(kpiID, t)
	return t, nil
}
