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
	"time"

	"github.com/camposur/agroguardian/internal/store"
)

// Severity classifies how far an accumulation sits from its rule
// threshold.
type Severity string

const (
	SeverityNinguno  Severity = "NINGUNO"
	SeverityLeve     Severity = "LEVE"
	SeverityModerado Severity = "MODERADO"
	SeveritySevero   Severity = "SEVERO"
)

// dryDayLookback bounds the consecutive-dry-days scan. A premise with
// no readings at all inside the lookback reports the full window.
const dryDayLookback = 90

// DeficitSeverity classifies a shortfall by percentage of threshold
// reached: at or above 100% there is no deficit, then LEVE down to
// 70%, MODERADO down to 40%, SEVERO below that.
func DeficitSeverity(accumulated, threshold float64) Severity {
	if threshold <= 0 {
		return SeverityNinguno
	}
	pct := 100 * accumulated / threshold
	switch {
	case pct >= 100:
		return SeverityNinguno
	case pct >= 70:
		return SeverityLeve
	case pct >= 40:
		return SeverityModerado
	default:
		return SeveritySevero
	}
}

// ExcessSeverity classifies a surplus by percentage over threshold:
// at or below the threshold there is no excess, then LEVE up to 20%
// over, MODERADO up to 50% over, SEVERO beyond.
func ExcessSeverity(accumulated, threshold float64) Severity {
	if threshold <= 0 {
		return SeverityNinguno
	}
	over := 100 * (accumulated - threshold) / threshold
	switch {
	case over <= 0:
		return SeverityNinguno
	case over <= 20:
		return SeverityLeve
	case over <= 50:
		return SeverityModerado
	default:
		return SeveritySevero
	}
}

// Analytics computes rolling rainfall accumulations and historical
// comparisons for a premise.
type Analytics struct {
	store store.Store
}

// NewAnalytics creates a rainfall analytics helper over the store.
func NewAnalytics(st store.Store) *Analytics {
	return &Analytics{store: st}
}

// Accumulated returns total mm for a premise over [from, to].
func (a *Analytics) Accumulated(ctx context.Context, premiseID int64, from, to time.Time) (float64, error) {
	return a.store.SumRainfall(ctx, premiseID, from, to)
}

// AccumulatedDays returns total mm for the trailing window of the
// given number of days, ending at asOf.
func (a *Analytics) AccumulatedDays(ctx context.Context, premiseID int64, days int, asOf time.Time) (float64, error) {
	return a.store.SumRainfall(ctx, premiseID, asOf.AddDate(0, 0, -days), asOf)
}

// CampaignToDate returns total mm from the start of the campaign
// containing asOf up to asOf.
func (a *Analytics) CampaignToDate(ctx context.Context, premiseID int64, asOf time.Time) (float64, error) {
	start, _ := CampaignRange(CampaignYear(asOf))
	return a.store.SumRainfall(ctx, premiseID, start, asOf)
}

// HistoricalAverage returns the mean accumulation over the same
// calendar window in the previous `years` years. Years with zero
// readings still count toward the mean: a historically dry window is
// signal, not missing data.
func (a *Analytics) HistoricalAverage(ctx context.Context, premiseID int64, from, to time.Time, years int) (float64, error) {
	if years <= 0 {
		return 0, nil
	}
	var total float64
	for i := 1; i <= years; i++ {
		mm, err := a.store.SumRainfall(ctx, premiseID, from.AddDate(-i, 0, 0), to.AddDate(-i, 0, 0))
		if err != nil {
			return 0, err
		}
		total += mm
	}
	return total / float64(years), nil
}

// ConsecutiveDryDays returns the number of whole days since the last
// reading with measurable rain, capped at the lookback window.
func (a *Analytics) ConsecutiveDryDays(ctx context.Context, premiseID int64, asOf time.Time) (int, error) {
	from := asOf.AddDate(0, 0, -dryDayLookback)
	records, err := a.store.ListRainfall(ctx, premiseID, from, asOf)
	if err != nil {
		return 0, err
	}

	lastRain := time.Time{}
	for _, rec := range records {
		if rec.Mm > 0 && rec.Fecha.After(lastRain) {
			lastRain = rec.Fecha
		}
	}
	if lastRain.IsZero() {
		return dryDayLookback, nil
	}

	days := int(asOf.Sub(lastRain).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return days, nil
}
