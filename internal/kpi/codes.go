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

import "github.com/camposur/agroguardian/internal/store"

// Code is a KPI identifier. The set of codes is closed: adding a KPI means
// adding a constant here, a registry entry, and a calculator, all checked at
// compile time.
type Code string

// Livestock KPIs
const (
	CodeGDP              Code = "GDP"
	CodeCargaAnimal      Code = "CARGA_ANIMAL"
	CodeMortalidad       Code = "MORTALIDAD"
	CodeParicion         Code = "PARICION"
	CodeDestete          Code = "DESTETE"
	CodeKgProducidos     Code = "KG_PRODUCIDOS"
	CodeEficienciaStock  Code = "EFICIENCIA_STOCK"
	CodeCostoKgProducido Code = "COSTO_KG_PRODUCIDO"
	CodeVentasKg         Code = "VENTAS_KG"
	CodeCompraVentaRatio Code = "COMPRA_VENTA_RATIO"
)

// Pasture KPIs
const (
	CodeAlturaPasto           Code = "ALTURA_PASTO"
	CodeCrecimientoPasto      Code = "CRECIMIENTO_PASTO"
	CodeDisponibilidadForraje Code = "DISPONIBILIDAD_FORRAJE"
	CodeUtilizacionPastura    Code = "UTILIZACION_PASTURA"
	CodeSuperficiePastoreada  Code = "SUPERFICIE_PASTOREADA"
)

// Rainfall KPIs
const (
	CodeLluviaAcumulada30D    Code = "LLUVIA_ACUMULADA_30D"
	CodeLluviaCampania        Code = "LLUVIA_CAMPANIA"
	CodeDesvioLluviaHistorica Code = "DESVIO_LLUVIA_HISTORICA"
)

// Economic KPIs
const (
	CodeMargenBruto            Code = "MARGEN_BRUTO"
	CodeMargenPorHectarea      Code = "MARGEN_POR_HECTAREA"
	CodeCostoPorHectarea       Code = "COSTO_POR_HECTAREA"
	CodeIngresoPorHectarea     Code = "INGRESO_POR_HECTAREA"
	CodeRelacionInsumoProducto Code = "RELACION_INSUMO_PRODUCTO"
)

// definition pairs the seed reference data for one code
type definition struct {
	name      string
	unit      string
	frequency string
}

var definitions = map[Code]definition{
	CodeGDP:              {"Ganancia diaria de peso", "kg/día", store.FrequencyDaily},
	CodeCargaAnimal:      {"Carga animal", "cab/ha", store.FrequencyWeekly},
	CodeMortalidad:       {"Tasa de mortalidad", "%", store.FrequencyMonthly},
	CodeParicion:         {"Tasa de parición", "%", store.FrequencyMonthly},
	CodeDestete:          {"Tasa de destete", "%", store.FrequencyMonthly},
	CodeKgProducidos:     {"Kilogramos producidos", "kg", store.FrequencyMonthly},
	CodeEficienciaStock:  {"Eficiencia de stock", "%", store.FrequencyMonthly},
	CodeCostoKgProducido: {"Costo por kg producido", "$/kg", store.FrequencyMonthly},
	CodeVentasKg:         {"Kilogramos vendidos", "kg", store.FrequencyWeekly},
	CodeCompraVentaRatio: {"Relación compra/venta", "ratio", store.FrequencyMonthly},

	CodeAlturaPasto:           {"Altura de pasto", "cm", store.FrequencyDaily},
	CodeCrecimientoPasto:      {"Crecimiento de pastura", "kgMS/ha/día", store.FrequencyWeekly},
	CodeDisponibilidadForraje: {"Disponibilidad forrajera", "kgMS/ha", store.FrequencyWeekly},
	CodeUtilizacionPastura:    {"Utilización de pastura", "%", store.FrequencyWeekly},
	CodeSuperficiePastoreada:  {"Superficie pastoreada", "%", store.FrequencyWeekly},

	CodeLluviaAcumulada30D:    {"Lluvia acumulada 30 días", "mm", store.FrequencyDaily},
	CodeLluviaCampania:        {"Lluvia acumulada de campaña", "mm", store.FrequencyWeekly},
	CodeDesvioLluviaHistorica: {"Desvío de lluvia histórica", "%", store.FrequencyMonthly},

	CodeMargenBruto:            {"Margen bruto", "%", store.FrequencyMonthly},
	CodeMargenPorHectarea:      {"Margen por hectárea", "$/ha", store.FrequencyMonthly},
	CodeCostoPorHectarea:       {"Costo por hectárea", "$/ha", store.FrequencyMonthly},
	CodeIngresoPorHectarea:     {"Ingreso por hectárea", "$/ha", store.FrequencyMonthly},
	CodeRelacionInsumoProducto: {"Relación insumo/producto", "ratio", store.FrequencyMonthly},
}

// AllCodes returns every KPI code in a stable order
func AllCodes() []Code {
	return []Code{
		CodeGDP, CodeCargaAnimal, CodeMortalidad, CodeParicion, CodeDestete,
		CodeKgProducidos, CodeEficienciaStock, CodeCostoKgProducido,
		CodeVentasKg, CodeCompraVentaRatio,
		CodeAlturaPasto, CodeCrecimientoPasto, CodeDisponibilidadForraje,
		CodeUtilizacionPastura, CodeSuperficiePastoreada,
		CodeLluviaAcumulada30D, CodeLluviaCampania, CodeDesvioLluviaHistorica,
		CodeMargenBruto, CodeMargenPorHectarea, CodeCostoPorHectarea,
		CodeIngresoPorHectarea, CodeRelacionInsumoProducto,
	}
}

// Unit returns the display unit for a code
func (c Code) Unit() string {
	return definitions[c].unit
}

// Valid reports whether the code belongs to the closed enumeration
func (c Code) Valid() bool {
	_, ok := definitions[c]
	return ok
}

// SeedDefinitions returns the reference rows inserted at startup. Existing
// rows are never overwritten; administrators may deactivate or rename them.
func SeedDefinitions() []store.KPIDefinition {
	codes := AllCodes()
	defs := make([]store.KPIDefinition, 0, len(codes))
	for _, c := range codes {
		d := definitions[c]
		defs = append(defs, store.KPIDefinition{
			Code:                 string(c),
			Name:                 d.name,
			Unit:                 d.unit,
			CalculationFrequency: d.frequency,
			IsActive:             true,
		})
	}
	return defs
}
