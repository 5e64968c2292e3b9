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

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/camposur/agroguardian/internal/alerting"
	"github.com/camposur/agroguardian/internal/events"
	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/metrics"
	"github.com/camposur/agroguardian/internal/store"
)

// calculatedBy is recorded on history rows written by scheduled runs.
const calculatedBy = "orquestador"

// RunSummary describes the outcome of one orchestrator run.
type RunSummary struct {
	Frequency           string    `json:"frecuencia"`
	StartedAt           time.Time `json:"iniciado_en"`
	DurationMs          int64     `json:"duracion_ms"`
	FirmasProcesadas    int       `json:"firmas_procesadas"`
	TotalKpisCalculados int       `json:"total_kpis_calculados"`
	ErroresCount        int       `json:"errores_count"`
}

// Orchestrator drives the periodic KPI calculation tiers: it resolves
// the period, walks active firms against the tier's active KPI
// definitions and hands results to the alert engine. A calculation
// failure on one (firm, kpi) pair never stops the rest of the batch;
// a persistence failure aborts and fails the run.
type Orchestrator struct {
	store   store.Store
	alerts  *alerting.Engine
	emitter *events.Emitter
	logger  zerolog.Logger
}

// NewOrchestrator wires an orchestrator over the store and engine.
func NewOrchestrator(st store.Store, alerts *alerting.Engine, emitter *events.Emitter, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   st,
		alerts:  alerts,
		emitter: emitter,
		logger:  logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes one calculation pass for a frequency tier across all
// active firms.
func (o *Orchestrator) Run(ctx context.Context, frequency string) (*RunSummary, error) {
	return o.run(ctx, frequency, nil)
}

// RunFirm executes one calculation pass scoped to a single firm, for
// manual or test invocation.
func (o *Orchestrator) RunFirm(ctx context.Context, frequency string, firmID int64) (*RunSummary, error) {
	return o.run(ctx, frequency, &firmID)
}

func (o *Orchestrator) run(ctx context.Context, frequency string, firmID *int64) (*RunSummary, error) {
	started := time.Now().UTC()
	summary := &RunSummary{Frequency: frequency, StartedAt: started}

	periodStart, periodEnd, err := ResolvePeriod(frequency, started)
	if err != nil {
		return nil, err
	}

	firms, err := o.resolveFirms(ctx, firmID)
	if err != nil {
		return nil, err
	}

	defs, err := o.store.ListKPIDefinitions(ctx, frequency, true)
	if err != nil {
		return nil, fmt.Errorf("listing %s kpi definitions: %w", frequency, err)
	}

	o.logger.Info().
		Str("frequency", frequency).
		Int("firms", len(firms)).
		Int("kpis", len(defs)).
		Time("period_start", periodStart).
		Time("period_end", periodEnd).
		Msg("starting calculation run")

	for _, firm := range firms {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		calculated, errores, err := o.runFirm(ctx, firm, defs, periodStart, periodEnd)
		summary.FirmasProcesadas++
		summary.TotalKpisCalculados += calculated
		summary.ErroresCount += errores
		if err != nil {
			summary.ErroresCount++
			summary.DurationMs = time.Since(started).Milliseconds()
			o.logger.Error().Err(err).
				Str("frequency", frequency).
				Int64("firm", firm.ID).
				Msg("calculation run aborted")
			return summary, err
		}
	}

	if frequency == store.FrequencyMonthly {
		o.runMonthlyFollowups(ctx, firms, summary)
	}

	summary.DurationMs = time.Since(started).Milliseconds()
	metrics.UpdateRunDuration(frequency, time.Since(started).Seconds())

	o.logger.Info().
		Str("frequency", frequency).
		Int("firms", summary.FirmasProcesadas).
		Int("calculated", summary.TotalKpisCalculados).
		Int("errors", summary.ErroresCount).
		Int64("duration_ms", summary.DurationMs).
		Msg("calculation run finished")

	o.emitter.Emit(events.Event{
		Type:   events.TypeRunCompleted,
		Detail: fmt.Sprintf("corrida %s: %d KPIs calculados, %d errores", frequency, summary.TotalKpisCalculados, summary.ErroresCount),
	})

	return summary, nil
}

func (o *Orchestrator) resolveFirms(ctx context.Context, firmID *int64) ([]store.Firm, error) {
	if firmID == nil {
		firms, err := o.store.ListActiveFirms(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing active firms: %w", err)
		}
		return firms, nil
	}

	firm, err := o.store.GetFirm(ctx, *firmID)
	if err != nil {
		return nil, fmt.Errorf("loading firm %d: %w", *firmID, err)
	}
	if firm == nil {
		return nil, fmt.Errorf("firm %d not found", *firmID)
	}
	return []store.Firm{*firm}, nil
}

// runFirm evaluates every definition for one firm. Calculation errors
// are counted and logged per pair and no-data results are skipped
// without counting either way; persistence failures abort the firm and
// are returned so the run fails loudly instead of masking a broken
// store.
func (o *Orchestrator) runFirm(ctx context.Context, firm store.Firm, defs []store.KPIDefinition, periodStart, periodEnd time.Time) (calculated, errores int, err error) {
	in := kpi.Input{FirmID: firm.ID, PeriodStart: periodStart, PeriodEnd: periodEnd}

	for _, def := range defs {
		res, err := kpi.Calculate(ctx, o.store, kpi.Code(def.Code), in)
		if err != nil {
			errores++
			metrics.RecordCalculation(def.CalculationFrequency, "error")
			o.logger.Error().Err(err).
				Int64("firm", firm.ID).
				Str("kpi", def.Code).
				Msg("kpi calculation failed")
			continue
		}
		if !res.HasValue() {
			o.logger.Debug().
				Int64("firm", firm.ID).
				Str("kpi", def.Code).
				Str("reason", res.Message).
				Msg("kpi skipped, no data")
			continue
		}

		if _, _, err := o.alerts.SaveResult(ctx, def, in, res, calculatedBy); err != nil {
			metrics.RecordCalculation(def.CalculationFrequency, "error")
			o.logger.Error().Err(err).
				Int64("firm", firm.ID).
				Str("kpi", def.Code).
				Msg("kpi persistence failed")
			return calculated, errores, fmt.Errorf("persisting %s for firm %d: %w", def.Code, firm.ID, err)
		}

		calculated++
		metrics.RecordCalculation(def.CalculationFrequency, "ok")
	}
	return calculated, errores, nil
}

// runMonthlyFollowups executes the best-effort post steps of the
// monthly tier: warning streak maintenance, combined-alert detection
// and recommendation emission. Failures are logged, never fatal.
func (o *Orchestrator) runMonthlyFollowups(ctx context.Context, firms []store.Firm, summary *RunSummary) {
	now := time.Now().UTC()
	for _, firm := range firms {
		if err := o.alerts.UpdateConsecutiveWarnings(ctx, firm.ID, now); err != nil {
			summary.ErroresCount++
			o.logger.Error().Err(err).Int64("firm", firm.ID).Msg("consecutive warning update failed")
		}
	}

	if _, err := o.alerts.DetectCombinedAlerts(ctx); err != nil {
		summary.ErroresCount++
		o.logger.Error().Err(err).Msg("combined alert detection failed")
	}

	o.emitRecommendations(ctx, firms)
}

// emitRecommendations turns critical KPIs and long-running warning
// streaks into recommendation events. Purely advisory.
func (o *Orchestrator) emitRecommendations(ctx context.Context, firms []store.Firm) {
	const streakThreshold = 3

	defs, err := o.store.ListKPIDefinitions(ctx, "", false)
	if err != nil {
		o.logger.Warn().Err(err).Msg("listing kpi definitions for recommendations failed")
		return
	}
	byID := make(map[int64]store.KPIDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	for _, firm := range firms {
		for _, def := range defs {
			latest, err := o.store.GetLatestKPIHistory(ctx, firm.ID, def.ID)
			if err != nil {
				o.logger.Warn().Err(err).Int64("firm", firm.ID).Str("kpi", def.Code).Msg("loading latest history for recommendations failed")
				continue
			}
			if latest == nil || latest.Status != store.StatusRojo {
				continue
			}
			o.emitter.Emit(events.Event{
				Type:   events.TypeRecommendation,
				FirmID: firm.ID,
				KPIID:  def.ID,
				Detail: fmt.Sprintf("El KPI %s está en estado crítico. Revisar el manejo asociado de forma prioritaria.", def.Name),
			})
		}

		warnings, err := o.store.ListConsecutiveWarnings(ctx, firm.ID, streakThreshold)
		if err != nil {
			o.logger.Warn().Err(err).Int64("firm", firm.ID).Msg("listing warning streaks failed")
			continue
		}
		for _, w := range warnings {
			def, ok := byID[w.KPIID]
			if !ok {
				continue
			}
			o.emitter.Emit(events.Event{
				Type:   events.TypeRecommendation,
				FirmID: firm.ID,
				KPIID:  w.KPIID,
				Detail: fmt.Sprintf("El KPI %s lleva %d días consecutivos en advertencia. Revisar el manejo asociado.", def.Name, w.ConsecutiveWarningDays),
			})
		}
	}
}
