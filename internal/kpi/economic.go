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

// economics fetches period income and expenses; ok is false when the firm has
// no economic movement at all in the period (the no-data outcome).
func economics(ctx context.Context, st store.Store, in Input) (income, expenses float64, ok bool, err error) {
	income, err = st.SumIncome(ctx, in.FirmID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return 0, 0, false, err
	}
	expenses, err = st.SumExpenses(ctx, in.FirmID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return 0, 0, false, err
	}
	return income, expenses, income != 0 || expenses != 0, nil
}

// calcMargenBruto computes gross margin as a percentage of income.
func calcMargenBruto(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeMargenBruto.Unit()

	income, expenses, ok, err := economics(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return noData(unit, "Sin movimientos económicos en el período"), nil
	}
	if income == 0 {
		return noData(unit, "Sin ingresos registrados en el período"), nil
	}

	margin := 100 * (income - expenses) / income
	return value(margin, unit, 2, map[string]any{
		"ingresos": income,
		"gastos":   expenses,
	}), nil
}

// calcMargenPorHectarea computes gross margin spread over the firm's hectares.
// The margin is re-derived fresh, never taken from another formula's output.
func calcMargenPorHectarea(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeMargenPorHectarea.Unit()

	income, expenses, ok, err := economics(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return noData(unit, "Sin movimientos económicos en el período"), nil
	}

	hectares, err := st.SumHectares(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if hectares <= 0 {
		return noData(unit, "La firma no registra hectáreas"), nil
	}

	return value((income-expenses)/hectares, unit, 2, map[string]any{
		"margen_bruto": income - expenses,
		"hectareas":    hectares,
	}), nil
}

// calcCostoPorHectarea computes expenses per hectare.
func calcCostoPorHectarea(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeCostoPorHectarea.Unit()

	_, expenses, ok, err := economics(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return noData(unit, "Sin movimientos económicos en el período"), nil
	}

	hectares, err := st.SumHectares(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if hectares <= 0 {
		return noData(unit, "La firma no registra hectáreas"), nil
	}

	return value(expenses/hectares, unit, 2, map[string]any{
		"gastos":    expenses,
		"hectareas": hectares,
	}), nil
}

// calcIngresoPorHectarea computes income per hectare.
func calcIngresoPorHectarea(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeIngresoPorHectarea.Unit()

	income, _, ok, err := economics(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return noData(unit, "Sin movimientos económicos en el período"), nil
	}

	hectares, err := st.SumHectares(ctx, in.FirmID)
	if err != nil {
		return Result{}, err
	}
	if hectares <= 0 {
		return noData(unit, "La firma no registra hectáreas"), nil
	}

	return value(income/hectares, unit, 2, map[string]any{
		"ingresos":  income,
		"hectareas": hectares,
	}), nil
}

// calcRelacionInsumoProducto computes how many pesos of input buy one peso of
// output: expenses over income.
func calcRelacionInsumoProducto(ctx context.Context, st store.Store, in Input) (Result, error) {
	unit := CodeRelacionInsumoProducto.Unit()

	income, expenses, ok, err := economics(ctx, st, in)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return noData(unit, "Sin movimientos económicos en el período"), nil
	}
	if income == 0 {
		return noData(unit, "Sin ingresos registrados en el período"), nil
	}

	return value(expenses/income, unit, 3, map[string]any{
		"gastos":   expenses,
		"ingresos": income,
	}), nil
}
