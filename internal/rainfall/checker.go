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

package rainfall

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/camposur/agroguardian/internal/metrics"
	"github.com/camposur/agroguardian/internal/store"
)

// AlertTypeRainfall is the alert type for rainfall rule findings.
const AlertTypeRainfall = "lluvia"

// historicalYears is how many prior campaigns feed the historical
// average of the campaign-dry rule.
const historicalYears = 5

// CheckResult carries one rule's outcome for one premise. A nil
// Finding with a nil Err means the rule did not trigger.
type CheckResult struct {
	Rule      string
	PremiseID int64
	Finding   *Finding
	Err       error
}

// Checker evaluates all rainfall rules against the premises of a firm
// and turns findings into deduplicated alerts.
type Checker struct {
	store     store.Store
	analytics *Analytics
	rules     []Rule
	logger    zerolog.Logger
}

// NewChecker creates a checker with the default rule set.
func NewChecker(st store.Store, logger zerolog.Logger) *Checker {
	return &Checker{
		store:     st,
		analytics: NewAnalytics(st),
		rules:     DefaultRules(),
		logger:    logger.With().Str("component", "rainfall").Logger(),
	}
}

// CheckAllRules evaluates every enabled rule for one premise. The four
// checks fan out concurrently; each carries its own error so a failed
// fetch in one check never masks another's finding.
func (c *Checker) CheckAllRules(ctx context.Context, premiseID int64, asOf time.Time) []CheckResult {
	results := make([]CheckResult, len(c.rules))
	var wg sync.WaitGroup

	for i, rule := range c.rules {
		if !rule.Enabled {
			results[i] = CheckResult{Rule: rule.Name, PremiseID: premiseID}
			continue
		}
		wg.Add(1)
		go func(i int, rule Rule) {
			defer wg.Done()
			results[i] = c.checkRule(ctx, rule, premiseID, asOf)
		}(i, rule)
	}
	wg.Wait()
	return results
}

func (c *Checker) checkRule(ctx context.Context, rule Rule, premiseID int64, asOf time.Time) CheckResult {
	obs, err := c.observe(ctx, rule.Name, premiseID, asOf)
	if err != nil {
		metrics.RecordRainfallCheck(rule.Name, "error")
		return CheckResult{Rule: rule.Name, PremiseID: premiseID, Err: err}
	}

	triggered, severity := rule.Validar(obs)
	if !triggered {
		metrics.RecordRainfallCheck(rule.Name, "ok")
		return CheckResult{Rule: rule.Name, PremiseID: premiseID}
	}

	finding := rule.GenerarMensaje(obs, severity)
	metrics.RecordRainfallCheck(rule.Name, "triggered")
	return CheckResult{Rule: rule.Name, PremiseID: premiseID, Finding: &finding}
}

// observe fetches only the measurements the given rule consumes.
func (c *Checker) observe(ctx context.Context, rule string, premiseID int64, asOf time.Time) (Observation, error) {
	var obs Observation
	var err error

	switch rule {
	case RuleDrought:
		obs.Accumulated30D, err = c.analytics.AccumulatedDays(ctx, premiseID, 30, asOf)
	case RuleExcess:
		obs.Accumulated7D, err = c.analytics.AccumulatedDays(ctx, premiseID, 7, asOf)
	case RuleCampaignDry:
		obs.CampaignToDate, err = c.analytics.CampaignToDate(ctx, premiseID, asOf)
		if err == nil {
			start, _ := CampaignRange(CampaignYear(asOf))
			obs.CampaignHistoric, err = c.analytics.HistoricalAverage(ctx, premiseID, start, asOf, historicalYears)
		}
	case RuleDryStreak:
		obs.DryDays, err = c.analytics.ConsecutiveDryDays(ctx, premiseID, asOf)
	default:
		err = fmt.Errorf("unknown rainfall rule %q", rule)
	}
	return obs, err
}

// CheckFirm runs every rule over every premise of a firm and raises a
// deduplicated alert per finding. Returns all per-check results so the
// caller can report partial failures.
func (c *Checker) CheckFirm(ctx context.Context, firmID int64, asOf time.Time) ([]CheckResult, error) {
	premises, err := c.store.ListPremises(ctx, firmID)
	if err != nil {
		return nil, fmt.Errorf("listing premises for firm %d: %w", firmID, err)
	}

	var all []CheckResult
	for _, premise := range premises {
		results := c.CheckAllRules(ctx, premise.ID, asOf)
		for i := range results {
			res := &results[i]
			if res.Err != nil {
				c.logger.Error().Err(res.Err).
					Int64("premise", premise.ID).
					Str("rule", res.Rule).
					Msg("rainfall check failed")
				continue
			}
			if res.Finding == nil {
				continue
			}
			if err := c.raiseAlert(ctx, firmID, premise.ID, *res.Finding); err != nil {
				res.Err = err
				c.logger.Error().Err(err).
					Int64("premise", premise.ID).
					Str("rule", res.Rule).
					Msg("rainfall alert creation failed")
			}
		}
		all = append(all, results...)
	}
	return all, nil
}

func (c *Checker) raiseAlert(ctx context.Context, firmID, premiseID int64, finding Finding) error {
	dedupKey := fmt.Sprintf("%d:p%d:%s", firmID, premiseID, finding.Rule)

	alert := store.Alert{
		ID:            uuid.NewString(),
		FirmID:        firmID,
		PremiseID:     &premiseID,
		Tipo:          AlertTypeRainfall,
		Titulo:        finding.Titulo,
		Descripcion:   finding.Descripcion + " " + finding.Recomendacion,
		Prioridad:     priorityFor(finding.Severity),
		Estado:        store.AlertPendiente,
		Origen:        store.OrigenAutomatica,
		ReglaAplicada: finding.Rule,
		DedupKey:      &dedupKey,
		Fecha:         time.Now().UTC(),
	}

	created, _, err := c.store.CreateAlertIfAbsent(ctx, alert)
	if err != nil {
		return err
	}
	if created {
		metrics.RecordAlert(AlertTypeRainfall, alert.Prioridad)
		c.logger.Info().
			Int64("firm", firmID).
			Int64("premise", premiseID).
			Str("rule", finding.Rule).
			Str("severity", string(finding.Severity)).
			Msg("rainfall alert created")
	} else {
		metrics.RecordAlertDeduped(AlertTypeRainfall)
	}
	return nil
}

func priorityFor(sev Severity) string {
	switch sev {
	case SeveritySevero:
		return store.PrioridadAlta
	case SeverityModerado:
		return store.PrioridadMedia
	default:
		return store.PrioridadBaja
	}
}
