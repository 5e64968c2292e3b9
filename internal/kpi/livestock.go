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
	"fmt"

	"github.com/camposur/agroguardian/internal/store"
)

// calcGDP computes daily weight gain per head from the first and last weighing
// of the period: (finalKg - initialKg) / days / animals.
func calcGDP(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeGDP.Unit()

	weighings, err := st.ListWeighings(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if len(weighings) < 2 {
		return noData(unit, "Se necesitan al menos 2 pesadas en el período para calcular GDP"), nil
	}

	first := weighings[0]
	last := weighings[len(weighings)-1]

	days := last.Fecha.Sub(first.Fecha).Hours() / 24
	if days <= 0 {
		return noData(unit, "Las pesadas del período no abarcan días suficientes"), nil
	}
	if last.AnimalCount <= 0 {
		return noData(unit, "La última pesada no registra cantidad de animales"), nil
	}

	gdp := (last.AvgWeightKg - first.AvgWeightKg) / days / float64(last.AnimalCount)
	return value(gdp, unit, 3, map[string]any{
		"peso_inicial_kg": first.AvgWeightKg,
		"peso_final_kg":   last.AvgWeightKg,
		"dias":            days,
		"animales":        last.AnimalCount,
		"pesadas":         len(weighings),
	}), nil
}

// calcCargaAnimal computes stocking rate: head count over grazed hectares.
func calcCargaAnimal(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeCargaAnimal.Unit()

	animals, err := st.CountAnimals(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if animals == 0 {
		return noData(unit, "La firma no registra animales en stock"), nil
	}

	hectares, err := st.SumHectares(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if hectares <= 0 {
		return noData(unit, "La firma no registra hectáreas pastoreadas"), nil
	}

	return value(float64(animals)/hectares, unit, 2, map[string]any{
		"animales":  animals,
		"hectareas": hectares,
	}), nil
}

// calcMortalidad computes death rate over the period as a percentage of the
// firm's inventory: 100 * muertes / stock.
func calcMortalidad(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeMortalidad.Unit()

	inventory, err := st.CountAnimals(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if inventory == 0 {
		return noData(unit, "La firma no registra animales en stock"), nil
	}

	deaths, err := st.SumMovements(ctx, in.FirmID, store.MovimientoMuerte, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}

	rate := 100 * float64(deaths) / float64(inventory)
	return value(rate, unit, 2, map[string]any{
		"muertes":    deaths,
		"inventario": inventory,
	}), nil
}

// calcParicion computes calving rate: births over inventory, as a percentage.
func calcParicion(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeParicion.Unit()

	inventory, err := st.CountAnimals(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if inventory == 0 {
		return noData(unit, "La firma no registra animales en stock"), nil
	}

	births, err := st.SumMovements(ctx, in.FirmID, store.MovimientoNacimiento, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}

	rate := 100 * float64(births) / float64(inventory)
	return value(rate, unit, 2, map[string]any{
		"nacimientos": births,
		"inventario":  inventory,
	}), nil
}

// calcDestete computes weaning rate: weanings over births in the same period.
func calcDestete(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeDestete.Unit()

	births, err := st.SumMovements(ctx, in.FirmID, store.MovimientoNacimiento, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if births == 0 {
		return noData(unit, "Sin nacimientos registrados en el período"), nil
	}

	weanings, err := st.SumMovements(ctx, in.FirmID, store.MovimientoDestete, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}

	rate := 100 * float64(weanings) / float64(births)
	return value(rate, unit, 2, map[string]any{
		"destetes":    weanings,
		"nacimientos": births,
	}), nil
}

// kgProduced derives kg of meat produced in the period: kg sold minus kg
// bought plus the stock weight delta between the first and last weighing.
// Shared by three formulas; each caller re-derives it fresh, never cached.
func kgProduced(ctx context.Context, st store.Store, in Input) (float64, map[string]any, string, error) {
	weighings, err := st.ListWeighings(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return 0, nil, "", err
	}
	if len(weighings) < 2 {
		return 0, nil, "Se necesitan al menos 2 pesadas en el período para estimar kg producidos", nil
	}

	first := weighings[0]
	last := weighings[len(weighings)-1]
	stockDelta := last.AvgWeightKg*float64(last.AnimalCount) - first.AvgWeightKg*float64(first.AnimalCount)

	soldKg, err := st.SumMovementKg(ctx, in.FirmID, store.MovimientoVenta, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return 0, nil, "", err
	}
	boughtKg, err := st.SumMovementKg(ctx, in.FirmID, store.MovimientoCompra, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return 0, nil, "", err
	}

	produced := soldKg - boughtKg + stockDelta
	meta := map[string]any{
		"kg_vendidos":    soldKg,
		"kg_comprados":   boughtKg,
		"delta_stock_kg": stockDelta,
	}
	return produced, meta, "", nil
}

// calcKgProducidos reports total kg of meat produced in the period.
func calcKgProducidos(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeKgProducidos.Unit()

	produced, meta, msg, err := kgProduced(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if msg != "" {
		return noData(unit, msg), nil
	}
	return value(produced, unit, 2, meta), nil
}

// calcEficienciaStock relates production to the average standing stock weight:
// 100 * kg producidos / kg de stock promedio.
func calcEficienciaStock(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeEficienciaStock.Unit()

	produced, meta, msg, err := kgProduced(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if msg != "" {
		return noData(unit, msg), nil
	}

	weighings, err := st.ListWeighings(ctx, in.FirmID, in.LotID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	first := weighings[0]
	last := weighings[len(weighings)-1]
	avgStockKg := (first.AvgWeightKg*float64(first.AnimalCount) + last.AvgWeightKg*float64(last.AnimalCount)) / 2
	if avgStockKg <= 0 {
		return noData(unit, "El stock promedio del período es cero"), nil
	}

	meta["kg_stock_promedio"] = avgStockKg
	return value(100*produced/avgStockKg, unit, 2, meta), nil
}

// calcCostoKgProducido computes cost per kg produced: total expenses over kg
// produced, both re-derived for the period.
func calcCostoKgProducido(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeCostoKgProducido.Unit()

	produced, meta, msg, err := kgProduced(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if msg != "" {
		return noData(unit, msg), nil
	}
	if produced <= 0 {
		return noData(unit, fmt.Sprintf("Producción del período no positiva (%.2f kg)", produced)), nil
	}

	expenses, err := st.SumExpenses(ctx, in.FirmID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}

	meta["gastos_totales"] = expenses
	meta["kg_producidos"] = Round(produced, 2)
	return value(expenses/produced, unit, 2, meta), nil
}

// calcVentasKg reports kg sold in the period.
func calcVentasKg(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeVentasKg.Unit()

	heads, err := st.SumMovements(ctx, in.FirmID, store.MovimientoVenta, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if heads == 0 {
		return noData(unit, "Sin ventas registradas en el período"), nil
	}

	soldKg, err := st.SumMovementKg(ctx, in.FirmID, store.MovimientoVenta, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}

	return value(soldKg, unit, 2, map[string]any{
		"cabezas_vendidas": heads,
	}), nil
}

// calcCompraVentaRatio computes money spent buying animals over money earned
// selling them.
func calcCompraVentaRatio(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeCompraVentaRatio.Unit()

	sales, err := st.SumMovementAmount(ctx, in.FirmID, store.MovimientoVenta, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}
	if sales == 0 {
		return noData(unit, "Sin ventas valorizadas en el período"), nil
	}

	purchases, err := st.SumMovementAmount(ctx, in.FirmID, store.MovimientoCompra, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return Result{}, err
	}

	return value(purchases/sales, unit, 3, map[string]any{
		"monto_compras": purchases,
		"monto_ventas":  sales,
	}), nil
}
