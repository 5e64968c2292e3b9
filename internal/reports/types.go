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

// Package reports builds derived report objects from persisted KPI
// history, alerts and decisions. Reports are never stored; they are
// computed on demand and serialized to JSON for download.
package reports

import "time"

// Periodo bounds a report.
type Periodo struct {
	Desde time.Time `json:"desde"`
	Hasta time.Time `json:"hasta"`
}

// KPIResumen is one KPI line in an executive report.
type KPIResumen struct {
	Codigo       string   `json:"codigo"`
	Nombre       string   `json:"nombre"`
	Unidad       string   `json:"unidad"`
	Valor        *float64 `json:"valor"`
	Estado       string   `json:"estado"`
	VariacionPct *float64 `json:"variacion_pct"`
}

// AlertasResumen aggregates a firm's alerts over the report period.
type AlertasResumen struct {
	Pendientes  int64 `json:"pendientes"`
	Completadas int64 `json:"completadas"`
	Alta        int64 `json:"prioridad_alta"`
	Media       int64 `json:"prioridad_media"`
	Baja        int64 `json:"prioridad_baja"`
}

// ExecutiveReport is the monthly per-firm rollup.
type ExecutiveReport struct {
	FirmID        int64          `json:"firm_id"`
	FirmNombre    string         `json:"firm_nombre"`
	Periodo       Periodo        `json:"periodo"`
	GeneradoEn    time.Time      `json:"generado_en"`
	KPIs          []KPIResumen   `json:"kpis"`
	Alertas       AlertasResumen `json:"alertas"`
	EstadoGeneral string         `json:"estado_general"`
}

// LotePromedio is one KPI average for a lot over the comparison year.
type LotePromedio struct {
	Codigo   string  `json:"codigo"`
	Promedio float64 `json:"promedio"`
	Unidad   string  `json:"unidad"`
	Muestras int     `json:"muestras"`
}

// LoteComparacion is one lot's row in a comparative report.
type LoteComparacion struct {
	LotID     int64          `json:"lot_id"`
	Nombre    string         `json:"nombre"`
	Hectareas float64        `json:"hectareas"`
	Promedios []LotePromedio `json:"promedios"`
}

// ResumenAnual summarizes the firm's year for the comparative report.
type ResumenAnual struct {
	TotalLotes       int     `json:"total_lotes"`
	TotalHectareas   float64 `json:"total_hectareas"`
	KPIsConsiderados int     `json:"kpis_considerados"`
}

// ComparativeReport compares a firm's lots over one calendar year.
type ComparativeReport struct {
	FirmID           int64             `json:"firm_id"`
	Anio             int               `json:"anio"`
	GeneradoEn       time.Time         `json:"generado_en"`
	ResumenAnual     ResumenAnual      `json:"resumen_anual"`
	ComparacionLotes []LoteComparacion `json:"comparacion_lotes"`
}

// DecisionImpacto is one tracked decision with its measured
// improvements and per-decision ROI.
type DecisionImpacto struct {
	DecisionID          int64     `json:"decision_id"`
	Titulo              string    `json:"titulo"`
	Categoria           string    `json:"categoria"`
	Fecha               time.Time `json:"fecha"`
	GDPMejoraPct        float64   `json:"gdp_mejora_pct"`
	CostoMejoraPct      float64   `json:"costo_mejora_pct"`
	MortalidadMejoraPct float64   `json:"mortalidad_mejora_pct"`
	ROIPct              float64   `json:"roi_pct"`
}

// LearningReport rolls up decision impact for a firm.
type LearningReport struct {
	FirmID          int64             `json:"firm_id"`
	Periodo         Periodo           `json:"periodo"`
	GeneradoEn      time.Time         `json:"generado_en"`
	TotalDecisiones int               `json:"total_decisiones"`
	ROIPromedioPct  float64           `json:"roi_promedio_pct"`
	Decisiones      []DecisionImpacto `json:"decisiones"`
}
