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

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/store"
	"github.com/camposur/agroguardian/internal/testutil"
)

func TestPrune_RemovesOnlyExpiredRows(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	def := testutil.SeedDefinitions(t, st, kpi.CodeGDP)
	gs := st.(*store.GormStore)

	ctx := context.Background()
	now := time.Now().UTC()

	makeRow := func(calculatedAt time.Time) store.KPIHistory {
		return store.KPIHistory{
			FirmID:       firmID,
			KPIID:        def.ID,
			PeriodStart:  calculatedAt.AddDate(0, 0, -1),
			PeriodEnd:    calculatedAt,
			Value:        testutil.Float(1),
			Unit:         "kg/día",
			Status:       store.StatusVerde,
			CalculatedAt: calculatedAt,
			CalculatedBy: "orquestador",
		}
	}

	old := makeRow(now.AddDate(-3, 0, 0))
	recent := makeRow(now.AddDate(0, 0, -10))
	require.NoError(t, gs.DB().Create(&old).Error)
	require.NoError(t, gs.DB().Create(&recent).Error)

	pruner := NewHistoryPruner(st, zerolog.Nop(), 730)
	pruner.Prune(ctx)

	rows, total, err := st.ListKPIHistory(ctx, store.KPIHistoryQuery{FirmID: firmID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, recent.ID, rows[0].ID)
}

func TestPrune_RespectsUpdatedRetention(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	def := testutil.SeedDefinitions(t, st, kpi.CodeGDP)
	gs := st.(*store.GormStore)

	ctx := context.Background()
	calculatedAt := time.Now().UTC().AddDate(0, 0, -40)
	row := store.KPIHistory{
		FirmID:       firmID,
		KPIID:        def.ID,
		PeriodStart:  calculatedAt.AddDate(0, 0, -1),
		PeriodEnd:    calculatedAt,
		Value:        testutil.Float(1),
		Unit:         "kg/día",
		Status:       store.StatusVerde,
		CalculatedAt: calculatedAt,
		CalculatedBy: "orquestador",
	}
	require.NoError(t, gs.DB().Create(&row).Error)

	pruner := NewHistoryPruner(st, zerolog.Nop(), 730)
	pruner.Prune(ctx)

	_, total, err := st.ListKPIHistory(ctx, store.KPIHistoryQuery{FirmID: firmID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// Tightening retention below the row's age removes it on the next pass
	pruner.SetRetentionDays(30)
	pruner.Prune(ctx)

	_, total, err = st.ListKPIHistory(ctx, store.KPIHistoryQuery{FirmID: firmID})
	require.NoError(t, err)
	assert.Zero(t, total)
}
