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

package kpi

import (
	"context"
	"time"

	"github.com/camposur/agroguardian/internal/rainfall"
	"github.com/camposur/agroguardian/internal/store"
)

// firmRainfall accumulates mm over [from, to] across all premises of the firm
// and returns the per-premise average plus how many readings backed it.
func firmRainfall(ctx context.Context, st store.Store, firmID int64, from, to time.Time) (float64, int, int, error) {
	premises, err := st.ListPremises(ctx, firmID)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(premises) == 0 {
		return 0, 0, 0, nil
	}

	var total float64
	var readings int
	for _, p := range premises {
		recs, err := st.ListRainfall(ctx, p.ID, from, to)
		if err != nil {
			return 0, 0, 0, err
		}
		readings += len(recs)
		for _, r := range recs {
			total += r.Mm
		}
	}

	return total / float64(len(premises)), readings, len(premises), nil
}

// calcLluviaAcumulada30D reports the 30-day rolling accumulation ending at the
// period end, averaged across the firm's premises.
func calcLluviaAcumulada30D(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeLluviaAcumulada30D.Unit()

	from := in.PeriodEnd.AddDate(0, 0, -30)
	avg, readings, premises, err := firmRainfall(ctx, st, in.FirmID, from, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if premises == 0 {
		return noData(unit, "La firma no registra establecimientos"), nil
	}
	if readings == 0 {
		return noData(unit, "Sin registros de lluvia en los últimos 30 días"), nil
	}

	return value(avg, unit, 2, map[string]any{
		"registros":        readings,
		"establecimientos": premises,
		"desde":            from.Format("2006-01-02"),
	}), nil
}

// calcLluviaCampania reports campaign-to-date accumulation for the campaign
// containing the period end.
func calcLluviaCampania(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeLluviaCampania.Unit()

	year := rainfall.CampaignYear(in.PeriodEnd)
	campaignStart, _ := rainfall.CampaignRange(year)

	avg, readings, premises, err := firmRainfall(ctx, st, in.FirmID, campaignStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if premises == 0 {
		return noData(unit, "La firma no registra establecimientos"), nil
	}
	if readings == 0 {
		return noData(unit, "Sin registros de lluvia en la campaña"), nil
	}

	return value(avg, unit, 2, map[string]any{
		"campania":  year,
		"registros": readings,
	}), nil
}

// historicalYears is how many prior campaigns back the historical average
const historicalYears = 5

// calcDesvioLluviaHistorica compares campaign-to-date accumulation against the
// average of the same window over prior campaigns, as a percentage deviation.
func calcDesvioLluviaHistorica(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeDesvioLluviaHistorica.Unit()

	year := rainfall.CampaignYear(in.PeriodEnd)
	campaignStart, _ := rainfall.CampaignRange(year)

	current, readings, premises, err := firmRainfall(ctx, st, in.FirmID, campaignStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if premises == 0 {
		return noData(unit, "La firma no registra establecimientos"), nil
	}
	if readings == 0 {
		return noData(unit, "Sin registros de lluvia en la campaña"), nil
	}

	var histTotal float64
	var histCount int
	for i := 1; i <= historicalYears; i++ {
		from := campaignStart.AddDate(-i, 0, 0)
		to := in.PeriodEnd.AddDate(-i, 0, 0)
		avg, histReadings, _, err := firmRainfall(ctx, st, in.FirmID, from, to)
		if err != nil {
			return Result{}, err
		}
		if histReadings > 0 {
			histTotal += avg
			histCount++
		}
	}
	if histCount == 0 {
		return noData(unit, "Sin historial de lluvias de campañas anteriores"), nil
	}

	histAvg := histTotal / float64(histCount)
	if histAvg == 0 {
		return noData(unit, "El promedio histórico de lluvias es cero"), nil
	}

	deviation := 100 * (current - histAvg) / histAvg
	return value(deviation, unit, 2, map[string]any{
		"mm_campania":  Round(current, 2),
		"mm_historico": Round(histAvg, 2),
		"campanias":    histCount,
	}), nil
}
