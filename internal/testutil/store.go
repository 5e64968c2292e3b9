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

// Package testutil provides shared test fixtures backed by an
// in-memory SQLite store.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/kpi"
	"github.com/camposur/agroguardian/internal/store"
)

var dbSeq atomic.Int64

// NewTestStore creates an initialized in-memory store. Each call gets
// its own database so parallel tests never share state.
func NewTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	st, err := store.NewGormStore("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, st.Init())

	t.Cleanup(func() { _ = st.Close() })
	return st
}

// SeedTestFirm creates an active firm with one premise and one lot and
// returns the firm id.
func SeedTestFirm(t *testing.T, st store.Store) int64 {
	t.Helper()
	gs := st.(*store.GormStore)

	firm := store.Firm{Nombre: "La Esperanza", HectareasTotales: 500, IsActive: true}
	require.NoError(t, gs.DB().Create(&firm).Error)

	premise := store.Premise{FirmID: firm.ID, Nombre: "Campo Norte"}
	require.NoError(t, gs.DB().Create(&premise).Error)

	lot := store.Lot{FirmID: firm.ID, Nombre: "Lote 1", Hectareas: 120, AnimalCount: 200, IsActive: true}
	require.NoError(t, gs.DB().Create(&lot).Error)

	return firm.ID
}

// SeedDefinitions loads the full KPI catalogue and returns the
// definition for the given code.
func SeedDefinitions(t *testing.T, st store.Store, code kpi.Code) *store.KPIDefinition {
	t.Helper()

	require.NoError(t, st.SeedKPIDefinitions(context.Background(), kpi.SeedDefinitions()))
	def, err := st.GetKPIDefinitionByCode(context.Background(), string(code))
	require.NoError(t, err)
	require.NotNil(t, def)
	return def
}

// Float returns a pointer to v, for optional numeric columns.
func Float(v float64) *float64 { return &v }

// Day returns a UTC midnight timestamp offset days from base.
func Day(base time.Time, days int) time.Time {
	d := base.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
