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

package events

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/store"
	"github.com/camposur/agroguardian/internal/testutil"
)

func TestEmitter_PersistsRecommendation(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)

	em := NewEmitter(st, zerolog.Nop(), 16)
	em.Start()
	em.Emit(Event{
		Type:   TypeRecommendation,
		FirmID: firmID,
		KPIID:  1,
		Detail: "El KPI GDP lleva 3 días consecutivos en advertencia.",
	})
	em.Stop() // flushes the queue

	recs, err := st.ListRecommendations(context.Background(), firmID, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "El KPI GDP lleva 3 días consecutivos en advertencia.", recs[0].Texto)
	assert.EqualValues(t, 1, recs[0].KPIID)
}

func TestEmitter_PersistsAuditWithDefaults(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)
	gs := st.(*store.GormStore)

	em := NewEmitter(st, zerolog.Nop(), 16)
	em.Start()
	em.Emit(Event{Type: TypeRunCompleted, FirmID: firmID, Detail: "corrida DAILY: 5 KPIs calculados"})
	em.Stop()

	var entries []store.AuditEntry
	require.NoError(t, gs.DB().Where("firm_id = ?", firmID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "sistema", entries[0].Actor)
	assert.Equal(t, TypeRunCompleted, entries[0].Accion)
}

func TestEmitter_EmitBeforeStartIsDropped(t *testing.T) {
	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)

	em := NewEmitter(st, zerolog.Nop(), 16)
	em.Emit(Event{Type: TypeRecommendation, FirmID: firmID, Detail: "descartada"})
	em.Start()
	em.Stop()

	recs, err := st.ListRecommendations(context.Background(), firmID, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestEmitter_StopTwiceIsSafe(t *testing.T) {
	st := testutil.NewTestStore(t)

	em := NewEmitter(st, zerolog.Nop(), 16)
	em.Start()
	em.Stop()
	em.Stop()
}

func TestEmitter_EmitDuringStopNeverPanics(t *testing.T) {
	st := testutil.NewTestStore(t)

	for i := 0; i < 50; i++ {
		em := NewEmitter(st, zerolog.Nop(), 4)
		em.Start()

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					em.Emit(Event{Type: TypeAudit, Detail: "shutdown race"})
				}
			}()
		}
		em.Stop()
		wg.Wait()
	}
}
