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

package rainfall_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/rainfall"
	"github.com/camposur/agroguardian/internal/store"
	"github.com/camposur/agroguardian/internal/testutil"
)

var asOf = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

func seedPremise(t *testing.T, st store.Store, firmID int64) int64 {
	t.Helper()
	premises, err := st.ListPremises(context.Background(), firmID)
	require.NoError(t, err)
	require.NotEmpty(t, premises)
	return premises[0].ID
}

func addRain(t *testing.T, st store.Store, firmID, premiseID int64, fecha time.Time, mm float64) {
	t.Helper()
	gs := st.(*store.GormStore)
	require.NoError(t, gs.DB().Create(&store.RainfallRecord{
		FirmID: firmID, PremiseID: premiseID, Fecha: fecha, Mm: mm, Usuario: "test",
	}).Error)
}

func TestCheckFirm_DroughtRaisesAlert(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	premiseID := seedPremise(t, st, firmID)

	// 10mm in the last 30 days, last rain 10 days ago so no dry streak
	addRain(t, st, firmID, premiseID, asOf.AddDate(0, 0, -10), 10)

	checker := rainfall.NewChecker(st, zerolog.Nop())
	results, err := checker.CheckFirm(context.Background(), firmID, asOf)
	require.NoError(t, err)

	var drought *rainfall.CheckResult
	for i := range results {
		require.NoError(t, results[i].Err)
		if results[i].Rule == rainfall.RuleDrought {
			drought = &results[i]
		}
	}
	require.NotNil(t, drought)
	require.NotNil(t, drought.Finding)
	assert.Equal(t, rainfall.SeveritySevero, drought.Finding.Severity)

	alerts, total, err := st.ListAlerts(context.Background(), store.AlertQuery{FirmID: firmID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, rainfall.AlertTypeRainfall, alerts[0].Tipo)
	assert.Equal(t, rainfall.RuleDrought, alerts[0].ReglaAplicada)
	assert.Equal(t, store.PrioridadAlta, alerts[0].Prioridad)
	require.NotNil(t, alerts[0].PremiseID)
	assert.Equal(t, premiseID, *alerts[0].PremiseID)

	// Re-checking the same situation must not duplicate the alert
	_, err = checker.CheckFirm(context.Background(), firmID, asOf)
	require.NoError(t, err)
	_, total, err = st.ListAlerts(context.Background(), store.AlertQuery{FirmID: firmID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCheckFirm_ExcessRaisesAlert(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	premiseID := seedPremise(t, st, firmID)

	// 200mm over the last week triggers excess while staying clear of drought
	addRain(t, st, firmID, premiseID, asOf.AddDate(0, 0, -2), 120)
	addRain(t, st, firmID, premiseID, asOf.AddDate(0, 0, -4), 80)

	checker := rainfall.NewChecker(st, zerolog.Nop())
	results, err := checker.CheckFirm(context.Background(), firmID, asOf)
	require.NoError(t, err)

	var excess *rainfall.CheckResult
	for i := range results {
		if results[i].Rule == rainfall.RuleExcess {
			excess = &results[i]
		}
	}
	require.NotNil(t, excess)
	require.NotNil(t, excess.Finding)
	assert.Equal(t, rainfall.SeverityModerado, excess.Finding.Severity)
}

func TestCheckFirm_DryStreak(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	premiseID := seedPremise(t, st, firmID)

	// Enough rain 25 days ago to avoid drought, but nothing since
	addRain(t, st, firmID, premiseID, asOf.AddDate(0, 0, -25), 60)

	checker := rainfall.NewChecker(st, zerolog.Nop())
	results, err := checker.CheckFirm(context.Background(), firmID, asOf)
	require.NoError(t, err)

	var streak *rainfall.CheckResult
	for i := range results {
		if results[i].Rule == rainfall.RuleDryStreak {
			streak = &results[i]
		}
	}
	require.NotNil(t, streak)
	require.NotNil(t, streak.Finding)
}

func TestCheckFirm_QuietConditionsRaiseNothing(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	premiseID := seedPremise(t, st, firmID)

	// Healthy rainfall, recent and moderate
	addRain(t, st, firmID, premiseID, asOf.AddDate(0, 0, -3), 30)
	addRain(t, st, firmID, premiseID, asOf.AddDate(0, 0, -12), 40)

	checker := rainfall.NewChecker(st, zerolog.Nop())
	results, err := checker.CheckFirm(context.Background(), firmID, asOf)
	require.NoError(t, err)

	for i := range results {
		require.NoError(t, results[i].Err)
		assert.Nil(t, results[i].Finding, "rule %s should not trigger", results[i].Rule)
	}

	_, total, err := st.ListAlerts(context.Background(), store.AlertQuery{FirmID: firmID})
	require.NoError(t, err)
	assert.Zero(t, total)
}
