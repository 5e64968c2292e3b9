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

package store

import (
	"context"
	"time"
)

// Store is the data-access facade over the relational backend. The calculation
// engine, alert engine and reports only ever talk to this interface.
type Store interface {
	// Init initializes the store (creates tables, seeds reference data)
	Init() error

	// Close closes the store and releases resources
	Close() error

	// Health checks if the store is healthy
	Health(ctx context.Context) error

	// --- Reference data ---

	// ListActiveFirms returns all active firms
	ListActiveFirms(ctx context.Context) ([]Firm, error)

	// GetFirm returns one firm by id
	GetFirm(ctx context.Context, firmID int64) (*Firm, error)

	// ListLots returns the active lots of a firm
	ListLots(ctx context.Context, firmID int64) ([]Lot, error)

	// ListPremises returns the premises of a firm
	ListPremises(ctx context.Context, firmID int64) ([]Premise, error)

	// ListKPIDefinitions returns KPI definitions, optionally filtered by
	// calculation frequency. Inactive definitions are excluded when activeOnly.
	ListKPIDefinitions(ctx context.Context, frequency string, activeOnly bool) ([]KPIDefinition, error)

	// GetKPIDefinitionByCode returns one KPI definition, nil if absent
	GetKPIDefinitionByCode(ctx context.Context, code string) (*KPIDefinition, error)

	// SeedKPIDefinitions inserts missing KPI definitions (existing rows untouched)
	SeedKPIDefinitions(ctx context.Context, defs []KPIDefinition) error

	// GetKPIThreshold returns the configured bands for a KPI, nil if absent
	GetKPIThreshold(ctx context.Context, kpiID int64) (*KPIThreshold, error)

	// SaveKPIThreshold upserts the bands for a KPI
	SaveKPIThreshold(ctx context.Context, t KPIThreshold) error

	// --- KPI history ---

	// SaveKPIHistory upserts one history row keyed on
	// (firm_id, kpi_id, lot_id, period_start, period_end) and returns the row
	SaveKPIHistory(ctx context.Context, rec KPIHistory) (*KPIHistory, error)

	// GetLatestKPIHistory returns the most recent history row for a firm's KPI
	GetLatestKPIHistory(ctx context.Context, firmID, kpiID int64) (*KPIHistory, error)

	// ListKPIHistory returns history rows matching the query plus total count
	ListKPIHistory(ctx context.Context, q KPIHistoryQuery) ([]KPIHistory, int64, error)

	// PruneKPIHistory deletes history rows calculated before the cutoff along
	// with their alert links. Returns the number of history rows removed.
	PruneKPIHistory(ctx context.Context, olderThan time.Time) (int64, error)

	// --- Consecutive warnings ---

	// IncrementConsecutiveWarning bumps the warning streak for (firm, kpi),
	// creating the counter at 1 if absent
	IncrementConsecutiveWarning(ctx context.Context, firmID, kpiID int64, at time.Time) error

	// ResetConsecutiveWarning zeroes the warning streak for (firm, kpi)
	ResetConsecutiveWarning(ctx context.Context, firmID, kpiID int64) error

	// ListConsecutiveWarnings returns counters for a firm at or above minDays
	ListConsecutiveWarnings(ctx context.Context, firmID int64, minDays int) ([]ConsecutiveWarning, error)

	// --- Alerts ---

	// CreateAlert inserts an alert row unconditionally (manual alerts)
	CreateAlert(ctx context.Context, alert Alert) error

	// CreateAlertIfAbsent atomically inserts the alert unless another row with
	// the same dedup key already exists. Returns (true, inserted) on insert and
	// (false, existing) when deduplicated.
	CreateAlertIfAbsent(ctx context.Context, alert Alert) (bool, *Alert, error)

	// GetAlert returns an alert by id, nil if absent
	GetAlert(ctx context.Context, alertID string) (*Alert, error)

	// ListAlerts returns alerts matching the query plus total count
	ListAlerts(ctx context.Context, q AlertQuery) ([]Alert, int64, error)

	// ResolveAlert transitions an alert to completed, stamping resolver,
	// timestamp and notes, and frees its dedup slot
	ResolveAlert(ctx context.Context, alertID, userID, notas string) (*Alert, error)

	// CancelAlert transitions a pending alert to cancelled
	CancelAlert(ctx context.Context, alertID, userID string) (*Alert, error)

	// CreateKPIAlertLink inserts the join row tying an alert to a history row
	CreateKPIAlertLink(ctx context.Context, link KPIAlertLink) error

	// CountPendingKPIAlertsByFirm aggregates pending automatic KPI alerts per
	// firm created since the given time (combined-alert detection input)
	CountPendingKPIAlertsByFirm(ctx context.Context, since time.Time) ([]FirmAlertCount, error)

	// --- Operational records ---

	// ListWeighings returns weighings for a firm (lot-scoped when lotID != nil)
	// within [from, to], oldest first
	ListWeighings(ctx context.Context, firmID int64, lotID *int64, from, to time.Time) ([]Weighing, error)

	// SumMovements returns total head count for movements of a type in [from, to]
	SumMovements(ctx context.Context, firmID int64, tipo string, from, to time.Time) (int64, error)

	// SumMovementKg returns total kg moved for movements of a type in [from, to]
	SumMovementKg(ctx context.Context, firmID int64, tipo string, from, to time.Time) (float64, error)

	// SumMovementAmount returns total money for movements of a type in [from, to]
	SumMovementAmount(ctx context.Context, firmID int64, tipo string, from, to time.Time) (float64, error)

	// CountAnimals returns the firm's current head count (sum over active lots)
	CountAnimals(ctx context.Context, firmID int64) (int64, error)

	// SumHectares returns the firm's grazed hectares (sum over active lots)
	SumHectares(ctx context.Context, firmID int64) (float64, error)

	// SumExpenses returns total expenses for a firm in [from, to]
	SumExpenses(ctx context.Context, firmID int64, from, to time.Time) (float64, error)

	// SumIncome returns total income for a firm in [from, to]
	SumIncome(ctx context.Context, firmID int64, from, to time.Time) (float64, error)

	// ListPastureMeasurements returns pasture readings for a firm in [from, to],
	// oldest first (lot-scoped when lotID != nil)
	ListPastureMeasurements(ctx context.Context, firmID int64, lotID *int64, from, to time.Time) ([]PastureMeasurement, error)

	// --- Rainfall ---

	// CreateRainfallRecord inserts a rainfall reading
	CreateRainfallRecord(ctx context.Context, rec RainfallRecord) (*RainfallRecord, error)

	// GetRainfallRecord returns one rainfall reading, nil if absent
	GetRainfallRecord(ctx context.Context, id int64) (*RainfallRecord, error)

	// DeleteRainfallRecord removes a rainfall reading
	DeleteRainfallRecord(ctx context.Context, id int64) error

	// ListRainfall returns rainfall readings for a premise in [from, to], oldest first
	ListRainfall(ctx context.Context, premiseID int64, from, to time.Time) ([]RainfallRecord, error)

	// SumRainfall returns accumulated mm for a premise in [from, to]
	SumRainfall(ctx context.Context, premiseID int64, from, to time.Time) (float64, error)

	// --- Reports input ---

	// ListDecisions returns a firm's decisions dated within [from, to]
	ListDecisions(ctx context.Context, firmID int64, from, to time.Time) ([]Decision, error)

	// --- Best-effort side effects ---

	// CreateRecommendation inserts an auto-generated recommendation
	CreateRecommendation(ctx context.Context, rec Recommendation) error

	// ListRecommendations returns the newest recommendations for a firm
	ListRecommendations(ctx context.Context, firmID int64, limit int) ([]Recommendation, error)

	// CreateAuditEntry inserts an audit trail row
	CreateAuditEntry(ctx context.Context, entry AuditEntry) error
}
