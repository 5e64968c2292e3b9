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

package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/store"
)

// Generator builds reports from persisted data. All methods handle
// empty inputs by returning zeroed aggregates.
type Generator struct {
	store store.Store
}

// NewGenerator creates a report generator over the store.
func NewGenerator(st store.Store) *Generator {
	return &Generator{store: st}
}

// Variance is the period-over-period change in percent. A zero
// previous value yields zero rather than dividing.
func Variance(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return kpi.Round((current-previous)/previous*100, 2)
}

// DecisionROI is the mean of the three tracked improvement metrics.
func DecisionROI(d store.Decision) float64 {
	return kpi.Round((d.GDPMejoraPct+d.CostoMejoraPct+d.MortalidadMejoraPct)/3, 2)
}

// ExportJSON serializes a report for download.
func ExportJSON(report any) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// Executive builds the monthly rollup for a firm: latest value and
// status per KPI for the month, variance against the previous month,
// and the period's alert counts.
func (g *Generator) Executive(ctx context.Context, firmID int64, year int, month time.Month) (*ExecutiveReport, error) {
	firm, err := g.store.GetFirm(ctx, firmID)
	if err != nil {
		return nil, err
	}
	if firm == nil {
		return nil, fmt.Errorf("firm %d not found", firmID)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	prevFrom := from.AddDate(0, -1, 0)
	prevTo := from.Add(-time.Second)

	defs, err := g.store.ListKPIDefinitions(ctx, "", true)
	if err != nil {
		return nil, err
	}

	report := &ExecutiveReport{
		FirmID:        firmID,
		FirmNombre:    firm.Nombre,
		Periodo:       Periodo{Desde: from, Hasta: to},
		GeneradoEn:    time.Now().UTC(),
		KPIs:          []KPIResumen{},
		EstadoGeneral: store.StatusVerde,
	}

	for _, def := range defs {
		current, err := g.latestInWindow(ctx, firmID, def.ID, from, to)
		if err != nil {
			return nil, err
		}
		if current == nil {
			continue
		}

		resumen := KPIResumen{
			Codigo: def.Code,
			Nombre: def.Name,
			Unidad: def.Unit,
			Valor:  current.Value,
			Estado: current.Status,
		}

		previous, err := g.latestInWindow(ctx, firmID, def.ID, prevFrom, prevTo)
		if err != nil {
			return nil, err
		}
		if current.Value != nil && previous != nil && previous.Value != nil {
			v := Variance(*current.Value, *previous.Value)
			resumen.VariacionPct = &v
		}

		report.KPIs = append(report.KPIs, resumen)
		report.EstadoGeneral = worseStatus(report.EstadoGeneral, current.Status)
	}

	if err := g.fillAlertSummary(ctx, report, firmID, from); err != nil {
		return nil, err
	}
	return report, nil
}

func (g *Generator) latestInWindow(ctx context.Context, firmID, kpiID int64, from, to time.Time) (*store.KPIHistory, error) {
	var firmLevel int64
	rows, _, err := g.store.ListKPIHistory(ctx, store.KPIHistoryQuery{
		FirmID: firmID,
		KPIID:  kpiID,
		LotID:  &firmLevel,
		From:   &from,
		To:     &to,
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (g *Generator) fillAlertSummary(ctx context.Context, report *ExecutiveReport, firmID int64, since time.Time) error {
	alerts, _, err := g.store.ListAlerts(ctx, store.AlertQuery{FirmID: firmID, Since: &since})
	if err != nil {
		return err
	}
	for _, a := range alerts {
		switch a.Estado {
		case store.AlertPendiente:
			report.Alertas.Pendientes++
		case store.AlertCompleted:
			report.Alertas.Completadas++
		}
		switch a.Prioridad {
		case store.PrioridadAlta:
			report.Alertas.Alta++
		case store.PrioridadMedia:
			report.Alertas.Media++
		case store.PrioridadBaja:
			report.Alertas.Baja++
		}
	}
	return nil
}

func worseStatus(a, b string) string {
	rank := func(s string) int {
		switch s {
		case store.StatusRojo:
			return 2
		case store.StatusAmarillo:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// Comparative builds the annual lot-by-lot comparison: per-lot KPI
// averages over the calendar year. A firm with zero lots returns an
// empty comparison with total_lotes = 0.
func (g *Generator) Comparative(ctx context.Context, firmID int64, year int) (*ComparativeReport, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0).Add(-time.Second)

	lots, err := g.store.ListLots(ctx, firmID)
	if err != nil {
		return nil, err
	}
	defs, err := g.store.ListKPIDefinitions(ctx, "", true)
	if err != nil {
		return nil, err
	}

	report := &ComparativeReport{
		FirmID:           firmID,
		Anio:             year,
		GeneradoEn:       time.Now().UTC(),
		ResumenAnual:     ResumenAnual{TotalLotes: len(lots), KPIsConsiderados: len(defs)},
		ComparacionLotes: []LoteComparacion{},
	}

	for _, lot := range lots {
		report.ResumenAnual.TotalHectareas += lot.Hectareas

		comp := LoteComparacion{
			LotID:     lot.ID,
			Nombre:    lot.Nombre,
			Hectareas: lot.Hectareas,
			Promedios: []LotePromedio{},
		}

		for _, def := range defs {
			lotID := lot.ID
			rows, _, err := g.store.ListKPIHistory(ctx, store.KPIHistoryQuery{
				FirmID: firmID,
				KPIID:  def.ID,
				LotID:  &lotID,
				From:   &from,
				To:     &to,
			})
			if err != nil {
				return nil, err
			}

			var sum float64
			var n int
			for _, row := range rows {
				if row.Value != nil {
					sum += *row.Value
					n++
				}
			}
			if n == 0 {
				continue
			}
			comp.Promedios = append(comp.Promedios, LotePromedio{
				Codigo:   def.Code,
				Promedio: kpi.Round(sum/float64(n), 2),
				Unidad:   def.Unit,
				Muestras: n,
			})
		}

		report.ComparacionLotes = append(report.ComparacionLotes, comp)
	}

	return report, nil
}

// Learning builds the decision-impact rollup: every tracked decision
// in the period with its three improvement metrics and the average
// ROI across them.
func (g *Generator) Learning(ctx context.Context, firmID int64, from, to time.Time) (*LearningReport, error) {
	decisions, err := g.store.ListDecisions(ctx, firmID, from, to)
	if err != nil {
		return nil, err
	}

	report := &LearningReport{
		FirmID:     firmID,
		Periodo:    Periodo{Desde: from, Hasta: to},
		GeneradoEn: time.Now().UTC(),
		Decisiones: []DecisionImpacto{},
	}

	var roiSum float64
	for _, d := range decisions {
		roi := DecisionROI(d)
		roiSum += roi
		report.Decisiones = append(report.Decisiones, DecisionImpacto{
			DecisionID:          d.ID,
			Titulo:              d.Titulo,
			Categoria:           d.Categoria,
			Fecha:               d.Fecha,
			GDPMejoraPct:        d.GDPMejoraPct,
			CostoMejoraPct:      d.CostoMejoraPct,
			MortalidadMejoraPct: d.MortalidadMejoraPct,
			ROIPct:              roi,
		})
	}

	report.TotalDecisiones = len(decisions)
	if len(decisions) > 0 {
		report.ROIPromedioPct = kpi.Round(roiSum/float64(len(decisions)), 2)
	}
	return report, nil
}
