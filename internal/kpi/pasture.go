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

	"github.com/camposur/agroguardian/internal/store"
)

// calcAlturaPasto averages grass height readings over the period.
func calcAlturaPasto(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeAlturaPasto.Unit()

	readings, err := st.ListPastureMeasurements(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if len(readings) == 0 {
		return noData(unit, "Sin mediciones de pastura en el período"), nil
	}

	var sum float64
	for _, r := range readings {
		sum += r.AlturaCm
	}
	return value(sum/float64(len(readings)), unit, 2, map[string]any{
		"mediciones": len(readings),
	}), nil
}

// calcCrecimientoPasto computes daily dry-matter growth between the first and
// last reading of the period.
func calcCrecimientoPasto(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeCrecimientoPasto.Unit()

	readings, err := st.ListPastureMeasurements(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if len(readings) < 2 {
		return noData(unit, "Se necesitan al menos 2 mediciones para estimar crecimiento"), nil
	}

	first := readings[0]
	last := readings[len(readings)-1]
	days := last.Fecha.Sub(first.Fecha).Hours() / 24
	if days <= 0 {
		return noData(unit, "Las mediciones del período no abarcan días suficientes"), nil
	}

	growth := (last.MateriaSecaKgHa - first.MateriaSecaKgHa) / days
	return value(growth, unit, 2, map[string]any{
		"ms_inicial_kg_ha": first.MateriaSecaKgHa,
		"ms_final_kg_ha":   last.MateriaSecaKgHa,
		"dias":             days,
	}), nil
}

// calcDisponibilidadForraje averages standing dry matter over the period.
func calcDisponibilidadForraje(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeDisponibilidadForraje.Unit()

	readings, err := st.ListPastureMeasurements(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if len(readings) == 0 {
		return noData(unit, "Sin mediciones de pastura en el período"), nil
	}

	var sum float64
	for _, r := range readings {
		sum += r.MateriaSecaKgHa
	}
	return value(sum/float64(len(readings)), unit, 2, map[string]any{
		"mediciones": len(readings),
	}), nil
}

// calcUtilizacionPastura estimates the share of offered forage that was
// consumed: offered = initial standing matter plus growth over the period,
// consumed = offered minus what is left standing at the end.
func calcUtilizacionPastura(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeUtilizacionPastura.Unit()

	readings, err := st.ListPastureMeasurements(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if len(readings) < 2 {
		return noData(unit, "Se necesitan al menos 2 mediciones para estimar utilización"), nil
	}

	first := readings[0]
	last := readings[len(readings)-1]
	days := last.Fecha.Sub(first.Fecha).Hours() / 24
	if days <= 0 {
		return noData(unit, "Las mediciones del período no abarcan días suficientes"), nil
	}

	growthPerDay := (last.MateriaSecaKgHa - first.MateriaSecaKgHa) / days
	offered := first.MateriaSecaKgHa
	if growthPerDay > 0 {
		offered += growthPerDay * days
	}
	if offered <= 0 {
		return noData(unit, "Sin forraje ofrecido medible en el período"), nil
	}

	consumed := offered - last.MateriaSecaKgHa
	if consumed < 0 {
		consumed = 0
	}

	return value(100*consumed/offered, unit, 2, map[string]any{
		"ofrecido_kg_ha":  Round(offered, 2),
		"consumido_kg_ha": Round(consumed, 2),
		"dias":            days,
	}), nil
}

// calcSuperficiePastoreada computes the share of firm hectares under grazing,
// taking the latest reading per lot.
func calcSuperficiePastoreada(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeSuperficiePastoreada.Unit()

	readings, err := st.ListPastureMeasurements(ctx, in.FirmID, nil, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if len(readings) == 0 {
		return noData(unit, "Sin mediciones de pastura en el período"), nil
	}

	hectares, err := st.SumHectares(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if hectares <= 0 {
		return noData(unit, "La firma no registra hectáreas pastoreadas"), nil
	}

	// Readings come oldest first, so the map keeps the latest per lot
	latestPerLot := make(map[int64]float64)
	for _, r := range readings {
		latestPerLot[r.LotID] = r.AreaPastoreadaHa
	}
	var grazed float64
	for _, area := range latestPerLot {
		grazed += area
	}

	return value(100*grazed/hectares, unit, 2, map[string]any{
		"ha_pastoreadas": Round(grazed, 2),
		"ha_totales":     hectares,
		"lotes":          len(latestPerLot),
	}), nil
}
