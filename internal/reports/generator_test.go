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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/store"
	"github.com/camposur/agroguardian/internal/testutil"
)

func TestVariance(t *testing.T) {
	assert.Equal(t, 25.0, Variance(1.25, 1.0))
	assert.Equal(t, -20.0, Variance(0.8, 1.0))
	assert.Equal(t, 0.0, Variance(5, 0)) // no baseline, no variance
}

func TestDecisionROI(t *testing.T) {
	d := store.Decision{GDPMejoraPct: 12, CostoMejoraPct: -3, MortalidadMejoraPct: 6}
	assert.Equal(t, 5.0, DecisionROI(d))
}

func historyRow(firmID, kpiID, lotID int64, fecha time.Time, value float64, status string) store.KPIHistory {
	return store.KPIHistory{
		FirmID:       firmID,
		KPIID:        kpiID,
		LotID:        lotID,
		PeriodStart:  fecha,
		PeriodEnd:    fecha.AddDate(0, 0, 1).Add(-time.Second),
		Value:        testutil.Float(value),
		Unit:         "kg/día",
		Status:       status,
		CalculatedAt: fecha,
		CalculatedBy: "orquestador",
	}
}

func TestExecutive(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	def := testutil.SeedDefinitions(t, st, kpi.CodeGDP)

	ctx := context.Background()
	current := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	previous := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	_, err := st.SaveKPIHistory(ctx, historyRow(firmID, def.ID, 0, current, 1.25, store.StatusAmarillo))
	require.NoError(t, err)
	_, err = st.SaveKPIHistory(ctx, historyRow(firmID, def.ID, 0, previous, 1.0, store.StatusVerde))
	require.NoError(t, err)

	g := NewGenerator(st)
	report, err := g.Executive(ctx, firmID, 2026, time.March)
	require.NoError(t, err)

	assert.Equal(t, "La Esperanza", report.FirmNombre)
	require.Len(t, report.KPIs, 1)
	resumen := report.KPIs[0]
	assert.Equal(t, "GDP", resumen.Codigo)
	require.NotNil(t, resumen.Valor)
	assert.Equal(t, 1.25, *resumen.Valor)
	require.NotNil(t, resumen.VariacionPct)
	assert.Equal(t, 25.0, *resumen.VariacionPct)
	assert.Equal(t, store.StatusAmarillo, report.EstadoGeneral)
}

func TestExecutive_UnknownFirm(t *testing.T) {
	st := testutil.NewTestStore(t)
	g := NewGenerator(st)

	_, err := g.Executive(context.Background(), 9999, 2026, time.March)
	assert.Error(t, err)
}

func TestComparative_ZeroLots(t *testing.T) {
	st := testutil.NewTestStore(t)
	gs := st.(*store.GormStore)

	firm := store.Firm{Nombre: "Sin Lotes", IsActive: true}
	require.NoError(t, gs.DB().Create(&firm).Error)

	g := NewGenerator(st)
	report, err := g.Comparative(context.Background(), firm.ID, 2026)
	require.NoError(t, err)

	assert.Equal(t, 0, report.ResumenAnual.TotalLotes)
	assert.NotNil(t, report.ComparacionLotes)
	assert.Empty(t, report.ComparacionLotes)
}

func TestComparative_AveragesPerLot(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	def := testutil.SeedDefinitions(t, st, kpi.CodeGDP)

	ctx := context.Background()
	lots, err := st.ListLots(ctx, firmID)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	lotID := lots[0].ID

	for i, v := range []float64{1.0, 1.5} {
		fecha := time.Date(2026, time.Month(2+i), 5, 0, 0, 0, 0, time.UTC)
		_, err := st.SaveKPIHistory(ctx, historyRow(firmID, def.ID, lotID, fecha, v, store.StatusVerde))
		require.NoError(t, err)
	}

	g := NewGenerator(st)
	report, err := g.Comparative(ctx, firmID, 2026)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ResumenAnual.TotalLotes)
	assert.Equal(t, 120.0, report.ResumenAnual.TotalHectareas)
	require.Len(t, report.ComparacionLotes, 1)

	comp := report.ComparacionLotes[0]
	assert.Equal(t, lotID, comp.LotID)
	require.Len(t, comp.Promedios, 1)
	assert.Equal(t, 1.25, comp.Promedios[0].Promedio)
	assert.Equal(t, 2, comp.Promedios[0].Muestras)
}

func TestLearning(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	gs := st.(*store.GormStore)

	fecha := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, gs.DB().Create(&store.Decision{
		FirmID: firmID, Fecha: fecha, Titulo: "Suplementación invernal",
		Categoria: "nutricion", GDPMejoraPct: 12, CostoMejoraPct: -3, MortalidadMejoraPct: 6,
	}).Error)

	g := NewGenerator(st)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)

	report, err := g.Learning(context.Background(), firmID, from, to)
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalDecisiones)
	assert.Equal(t, 5.0, report.ROIPromedioPct)
	require.Len(t, report.Decisiones, 1)
	assert.Equal(t, "Suplementación invernal", report.Decisiones[0].Titulo)
	assert.Equal(t, 5.0, report.Decisiones[0].ROIPct)
}

func TestLearning_Empty(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)

	g := NewGenerator(st)
	report, err := g.Learning(context.Background(), firmID, time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)

	assert.Zero(t, report.TotalDecisiones)
	assert.Zero(t, report.ROIPromedioPct)
	assert.Empty(t, report.Decisiones)
}

func TestExportJSON(t *testing.T) {
	report := &LearningReport{FirmID: 1, TotalDecisiones: 0, Decisiones: []DecisionImpacto{}}

	data, err := ExportJSON(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 1, decoded["firm_id"])
}
