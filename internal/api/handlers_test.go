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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camposur/agroguardian/internal/alerting"
	"github.com/camposur/agroguardian/internal/config"
	"github.com/camposur/agroguardian/internal/engine"
	"github.com/camposur/agroguardian/internal/events"
	"github.com/camposur/agroguardian/internal/rainfall"
	"github.com/camposur/agroguardian/internal/reports"
	"github.com/camposur/agroguardian/internal/scheduler"
	"github.com/camposur/agroguardian/internal/store"
	"github.com/camposur/agroguardian/internal/testutil"
)

type testAPI struct {
	router http.Handler
	store  store.Store
	firmID int64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	st := testutil.NewTestStore(t)
	firmID := testutil.SeedTestFirm(t, st)

	logger := zerolog.Nop()
	cfg := config.DefaultConfig()
	emitter := events.NewEmitter(st, logger, 16)
	emitter.Start()
	t.Cleanup(emitter.Stop)

	alerts := alerting.NewEngine(st, logger)
	handlers := NewHandlers(HandlerOptions{
		Store:        st,
		Config:       cfg,
		Orchestrator: engine.NewOrchestrator(st, alerts, emitter, logger),
		Alerts:       alerts,
		Rainfall:     rainfall.NewChecker(st, logger),
		Reports:      reports.NewGenerator(st),
		Pruner:       scheduler.NewHistoryPruner(st, logger, cfg.HistoryRetention.DefaultDays),
		Emitter:      emitter,
		StartTime:    time.Now(),
	})

	srv := NewServer(handlers, logger, 0)
	return &testAPI{router: srv.setupRoutes(), store: st, firmID: firmID}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestGetHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Storage)
}

func TestTriggerRun_InvalidFrequency(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/runs/HOURLY", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRun_ScopedToFirm(t *testing.T) {
	a := newTestAPI(t)
	testutil.SeedDefinitions(t, a.store, "CARGA_ANIMAL")

	rec := a.do(t, http.MethodPost, "/api/v1/runs/WEEKLY", RunRequest{FirmID: &a.firmID})
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[engine.RunSummary](t, rec)
	assert.Equal(t, store.FrequencyWeekly, summary.Frequency)
	assert.Equal(t, 1, summary.FirmasProcesadas)
}

func TestPutThreshold(t *testing.T) {
	a := newTestAPI(t)
	testutil.SeedDefinitions(t, a.store, "GDP")

	rec := a.do(t, http.MethodPut, "/api/v1/kpis/GDP/threshold", ThresholdRequest{
		Direction: store.HigherIsBetter,
		Mode:      store.ThresholdAbsolute,
		Warning:   0.6,
		Critical:  0.4,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutThreshold_UnknownCode(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPut, "/api/v1/kpis/NO_EXISTE/threshold", ThresholdRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutThreshold_PercentModeRequiresTarget(t *testing.T) {
	a := newTestAPI(t)
	testutil.SeedDefinitions(t, a.store, "GDP")

	rec := a.do(t, http.MethodPut, "/api/v1/kpis/GDP/threshold", ThresholdRequest{
		Direction: store.HigherIsBetter,
		Mode:      store.ThresholdPercentOfTarget,
		Warning:   80,
		Critical:  60,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndResolveAlert(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{
		FirmID: a.firmID,
		Tipo:   "sanidad",
		Titulo: "Revisar aguada del potrero 3",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[store.Alert](t, rec)
	assert.Equal(t, store.OrigenManual, created.Origen)
	assert.Equal(t, store.PrioridadMedia, created.Prioridad)

	// resolved_by is mandatory
	rec = a.do(t, http.MethodPost, "/api/v1/alerts/"+created.ID+"/resolve", ResolveAlertRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/alerts/"+created.ID+"/resolve", ResolveAlertRequest{
		ResolvedBy: "tecnico",
		Notas:      "bomba reparada",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decode[store.Alert](t, rec)
	assert.Equal(t, store.AlertCompleted, resolved.Estado)
}

func TestCreateAlert_Invalid(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{FirmID: a.firmID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelAlert(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/alerts", CreateAlertRequest{
		FirmID: a.firmID,
		Titulo: "Alerta equivocada",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[store.Alert](t, rec)

	rec = a.do(t, http.MethodPost, "/api/v1/alerts/"+created.ID+"/cancel?user=admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cancelled := decode[store.Alert](t, rec)
	assert.Equal(t, store.AlertCancelled, cancelled.Estado)

	// Cancelling twice conflicts
	rec = a.do(t, http.MethodPost, "/api/v1/alerts/"+created.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRainfallLifecycle(t *testing.T) {
	a := newTestAPI(t)
	premises, err := a.store.ListPremises(context.Background(), a.firmID)
	require.NoError(t, err)
	premiseID := premises[0].ID

	fecha := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	rec := a.do(t, http.MethodPost, "/api/v1/rainfall", RainfallRequest{
		FirmID:    a.firmID,
		PremiseID: premiseID,
		Fecha:     fecha,
		Mm:        25.5,
		Usuario:   "capataz",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[store.RainfallRecord](t, rec)
	require.NotNil(t, created.CampaignID)
	assert.EqualValues(t, 2025, *created.CampaignID)

	rec = a.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/rainfall?premise=%d&from=2026-03-01&to=2026-03-31", premiseID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[RainfallListResponse](t, rec)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 25.5, list.Total)

	// Fresh records can be deleted within the edit window
	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/rainfall/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/rainfall/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRainfall_NegativeMm(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/rainfall", RainfallRequest{
		FirmID:    a.firmID,
		PremiseID: 1,
		Fecha:     time.Now(),
		Mm:        -4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetExecutiveReport_RequiresParams(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/v1/reports/executive", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/executive?firm=%d&year=2026&month=13", a.firmID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetExecutiveReport(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/reports/executive?firm=%d&year=2026&month=3", a.firmID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[reports.ExecutiveReport](t, rec)
	assert.Equal(t, a.firmID, report.FirmID)
	assert.Equal(t, "La Esperanza", report.FirmNombre)
}

func TestGetExecutiveReport_Download(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/reports/executive?firm=%d&year=2026&month=3&download=true", a.firmID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
}

func TestTriggerPrune(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/maintenance/prune?days=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/v1/maintenance/prune?days=365", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListKPIs(t *testing.T) {
	a := newTestAPI(t)
	testutil.SeedDefinitions(t, a.store, "GDP")

	rec := a.do(t, http.MethodGet, "/api/v1/kpis?frequency=DAILY", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[KPIListResponse](t, rec)
	assert.NotEmpty(t, resp.Items)
	for _, def := range resp.Items {
		assert.Equal(t, store.FrequencyDaily, def.CalculationFrequency)
	}
}
