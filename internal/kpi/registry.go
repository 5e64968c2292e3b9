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

// registry maps every code to its calculator. The map literal plus AllCodes
// keeps the dispatch closed: an unmapped code fails tests, not production.
var registry = map[Code]Calculator{
	CodeGDP:              calcGDP,
	CodeCargaAnimal:      calcCargaAnimal,
	CodeMortalidad:       calcMortalidad,
	CodeParicion:         calcParicion,
	CodeDestete:          calcDestete,
	CodeKgProducidos:     calcKgProducidos,
	CodeEficienciaStock:  calcEficienciaStock,
	CodeCostoKgProducido: calcCostoKgProducido,
	CodeVentasKg:         calcVentasKg,
	CodeCompraVentaRatio: calcCompraVentaRatio,

	CodeAlturaPasto:           calcAlturaPasto,
	CodeCrecimientoPasto:      calcCrecimientoPasto,
	CodeDisponibilidadForraje: calcDisponibilidadForraje,
	CodeUtilizacionPastura:    calcUtilizacionPastura,
	CodeSuperficiePastoreada:  calcSuperficiePastoreada,

	CodeLluviaAcumulada30D:    calcLluviaAcumulada30D,
	CodeLluviaCampania:        calcLluviaCampania,
	CodeDesvioLluviaHistorica: calcDesvioLluviaHistorica,

	CodeMargenBruto:            calcMargenBruto,
	CodeMargenPorHectarea:      calcMargenPorHectarea,
	CodeCostoPorHectarea:       calcCostoPorHectarea,
	CodeIngresoPorHectarea:     calcIngresoPorHectarea,
	CodeRelacionInsumoProducto: calcRelacionInsumoProducto,
}

// Formula returns the calculator registered for a code
func Formula(code Code) (Calculator, bool) {
	c, ok := registry[code]
	return c, ok
}

// Calculate evaluates one KPI for a firm and period
func Calculate(ctx context.Context, st store.Store, code Code, in Input) (Result, error) {
	calc, ok := registry[code]
	if !ok {
		return Result{}, fmt.Errorf("unknown KPI code: %s", code)
	}
	return calc(ctx, st, in)
}
