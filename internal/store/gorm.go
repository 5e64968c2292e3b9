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
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite" // Pure Go SQLite driver (no CGO required)
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore implements Store using GORM
type GormStore struct {
	db      *gorm.DB
	dialect string
}

// ConnectionPoolConfig holds connection pool settings
type ConnectionPoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewGormStore creates a new GORM-based store
func NewGormStore(dialect string, dsn string) (*GormStore, error) {
	return NewGormStoreWithPool(dialect, dsn, ConnectionPoolConfig{})
}

// NewGormStoreWithPool creates a new GORM-based store with connection pool settings
func NewGormStoreWithPool(dialect string, dsn string, pool ConnectionPoolConfig) (*GormStore, error) {
	var dialector gorm.Dialector
	switch dialect {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for non-SQLite databases
	if dialect != "sqlite" && (pool.MaxIdleConns > 0 || pool.MaxOpenConns > 0 || pool.ConnMaxLifetime > 0 || pool.ConnMaxIdleTime > 0) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB for pool config: %w", err)
		}

		if pool.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
		}
		if pool.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
		}
		if pool.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
		}
		if pool.ConnMaxIdleTime > 0 {
			sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
		}
	}

	return &GormStore{db: db, dialect: dialect}, nil
}

// Init initializes the store (creates tables via auto-migration)
func (s *GormStore) Init() error {
	return s.db.AutoMigrate(
		&Firm{}, &Premise{}, &Lot{},
		&KPIDefinition{}, &KPIThreshold{}, &KPIHistory{}, &ConsecutiveWarning{},
		&Alert{}, &KPIAlertLink{},
		&RainfallRecord{}, &Weighing{}, &AnimalMovement{},
		&Expense{}, &Income{}, &PastureMeasurement{},
		&Decision{}, &Recommendation{}, &AuditEntry{},
	)
}

// DB exposes the underlying gorm handle for fixture setup in tests.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Close closes the store and releases resources
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health checks if the store is healthy
func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ListActiveFirms returns all active firms
func (s *GormStore) ListActiveFirms(ctx context.Context) ([]Firm, error) {
	var firms []Firm
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&firms).Error
	return firms, err
}

// GetFirm returns one firm by id
func (s *GormStore) GetFirm(ctx context.Context, firmID int64) (*Firm, error) {
	var firm Firm
	err := s.db.WithContext(ctx).Where("id = ?", firmID).First(&firm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &firm, nil
}

// ListLots returns the active lots of a firm
func (s *GormStore) ListLots(ctx context.Context, firmID int64) ([]Lot, error) {
	var lots []Lot
	err := s.db.WithContext(ctx).
		Where("firm_id = ? AND is_active = ?", firmID, true).
		Order("id").
		Find(&lots).Error
	return lots, err
}

// ListPremises returns the premises of a firm
func (s *GormStore) ListPremises(ctx context.Context, firmID int64) ([]Premise, error) {
	var premises []Premise
	err := s.db.WithContext(ctx).
		Where("firm_id = ?", firmID).
		Order("id").
		Find(&premises).Error
	return premises, err
}

// ListKPIDefinitions returns KPI definitions filtered by frequency and activity
func (s *GormStore) ListKPIDefinitions(ctx context.Context, frequency string, activeOnly bool) ([]KPIDefinition, error) {
	var defs []KPIDefinition
	q := s.db.WithContext(ctx).Model(&KPIDefinition{})
	if frequency != "" {
		q = q.Where("calculation_frequency = ?", frequency)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("code").Find(&defs).Error
	return defs, err
}

// GetKPIDefinitionByCode returns one KPI definition, nil if absent
func (s *GormStore) GetKPIDefinitionByCode(ctx context.Context, code string) (*KPIDefinition, error) {
	var def KPIDefinition
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// SeedKPIDefinitions inserts missing KPI definitions, leaving existing rows
// untouched so administrator edits survive restarts
func (s *GormStore) SeedKPIDefinitions(ctx context.Context, defs []KPIDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&defs).Error
}

// GetKPIThreshold returns the configured bands for a KPI, nil if absent
func (s *GormStore) GetKPIThreshold(ctx context.Context, kpiID int64) (*KPIThreshold, error) {
	var t KPIThreshold
	err := s.db.WithContext(ctx).Where("kpi_id = ?", kpiID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveKPIThreshold upserts the bands for a KPI
func (s *GormStore) SaveKPIThreshold(ctx context.Context, t KPIThreshold) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kpi_id"}},
			UpdateAll: true,
		}).Create(&t).Error
}

// SaveKPIHistory upserts one history row keyed on the period identity. Re-runs
// of the same (firm, kpi, lot, period) overwrite value and metadata instead of
// inserting a duplicate.
func (s *GormStore) SaveKPIHistory(ctx context.Context, rec KPIHistory) (*KPIHistory, error) {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "firm_id"}, {Name: "kpi_id"}, {Name: "lot_id"},
				{Name: "period_start"}, {Name: "period_end"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"value", "unit", "status", "metadata", "calculated_at", "calculated_by",
			}),
		}).Create(&rec).Error
	if err != nil {
		return nil, err
	}

	// Re-read to get the authoritative row id after a conflict-update
	var saved KPIHistory
	err = s.db.WithContext(ctx).
		Where("firm_id = ? AND kpi_id = ? AND lot_id = ? AND period_start = ? AND period_end = ?",
			rec.FirmID, rec.KPIID, rec.LotID, rec.PeriodStart, rec.PeriodEnd).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// GetLatestKPIHistory returns the most recent history row for a firm's KPI
func (s *GormStore) GetLatestKPIHistory(ctx context.Context, firmID, kpiID int64) (*KPIHistory, error) {
	var rec KPIHistory
	err := s.db.WithContext(ctx).
		Where("firm_id = ? AND kpi_id = ?", firmID, kpiID).
		Order("calculated_at DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListKPIHistory returns history rows matching the query plus total count
func (s *GormStore) ListKPIHistory(ctx context.Context, q KPIHistoryQuery) ([]KPIHistory, int64, error) {
	var recs []KPIHistory
	var total int64

	db := s.db.WithContext(ctx).Model(&KPIHistory{})
	if q.FirmID != 0 {
		db = db.Where("firm_id = ?", q.FirmID)
	}
	if q.KPIID != 0 {
		db = db.Where("kpi_id = ?", q.KPIID)
	}
	if q.LotID != nil {
		db = db.Where("lot_id = ?", *q.LotID)
	}
	if q.From != nil {
		db = db.Where("period_start >= ?", *q.From)
	}
	if q.To != nil {
		db = db.Where("period_end <= ?", *q.To)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	err := db.Order("period_start DESC").Find(&recs).Error
	return recs, total, err
}

// PruneKPIHistory deletes history rows calculated before the cutoff along with
// their alert links
func (s *GormStore) PruneKPIHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&KPIHistory{}).
			Where("calculated_at < ?", olderThan).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("kpi_history_id IN ?", ids).Delete(&KPIAlertLink{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&KPIHistory{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// IncrementConsecutiveWarning bumps the warning streak for (firm, kpi)
func (s *GormStore) IncrementConsecutiveWarning(ctx context.Context, firmID, kpiID int64, at time.Time) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "firm_id"}, {Name: "kpi_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"consecutive_warning_days": gorm.Expr("consecutive_warning_days + 1"),
				"last_warning_at":          at,
			}),
		}).Create(&ConsecutiveWarning{
		FirmID:                 firmID,
		KPIID:                  kpiID,
		ConsecutiveWarningDays: 1,
		LastWarningAt:          at,
	}).Error
}

// ResetConsecutiveWarning zeroes the warning streak for (firm, kpi)
func (s *GormStore) ResetConsecutiveWarning(ctx context.Context, firmID, kpiID int64) error {
	return s.db.WithContext(ctx).Model(&ConsecutiveWarning{}).
		Where("firm_id = ? AND kpi_id = ? AND consecutive_warning_days > 0", firmID, kpiID).
		Update("consecutive_warning_days", 0).Error
}

// ListConsecutiveWarnings returns counters for a firm at or above minDays
func (s *GormStore) ListConsecutiveWarnings(ctx context.Context, firmID int64, minDays int) ([]ConsecutiveWarning, error) {
	var warnings []ConsecutiveWarning
	err := s.db.WithContext(ctx).
		Where("firm_id = ? AND consecutive_warning_days >= ?", firmID, minDays).
		Order("consecutive_warning_days DESC").
		Find(&warnings).Error
	return warnings, err
}

// CreateAlert inserts an alert row unconditionally
func (s *GormStore) CreateAlert(ctx context.Context, alert Alert) error {
	return s.db.WithContext(ctx).Create(&alert).Error
}

// CreateAlertIfAbsent atomically inserts the alert unless a row with the same
// dedup key exists. The unique index on dedup_key closes the check-then-act
// race between two concurrent triggers for the same rule.
func (s *GormStore) CreateAlertIfAbsent(ctx context.Context, alert Alert) (bool, *Alert, error) {
	if alert.DedupKey == nil {
		return false, nil, fmt.Errorf("alert %s has no dedup key", alert.ID)
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}},
			DoNothing: true,
		}).Create(&alert)
	if res.Error != nil {
		return false, nil, res.Error
	}

	if res.RowsAffected > 0 {
		return true, &alert, nil
	}

	// Deduplicated: return the existing open alert unchanged
	var existing Alert
	err := s.db.WithContext(ctx).
		Where("dedup_key = ?", *alert.DedupKey).
		First(&existing).Error
	if err != nil {
		return false, nil, err
	}
	return false, &existing, nil
}

// GetAlert returns an alert by id, nil if absent
func (s *GormStore) GetAlert(ctx context.Context, alertID string) (*Alert, error) {
	var alert Alert
	err := s.db.WithContext(ctx).Where("id = ?", alertID).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

// ListAlerts returns alerts matching the query plus total count
func (s *GormStore) ListAlerts(ctx context.Context, q AlertQuery) ([]Alert, int64, error) {
	var alerts []Alert
	var total int64

	db := s.db.WithContext(ctx).Model(&Alert{})
	if q.FirmID != 0 {
		db = db.Where("firm_id = ?", q.FirmID)
	}
	if q.LotID != nil {
		db = db.Where("lot_id = ?", *q.LotID)
	}
	if q.Origen != "" {
		db = db.Where("origen = ?", q.Origen)
	}
	if q.Estado != "" {
		db = db.Where("estado = ?", q.Estado)
	}
	if q.Prioridad != "" {
		db = db.Where("prioridad = ?", q.Prioridad)
	}
	if q.Since != nil {
		db = db.Where("fecha >= ?", *q.Since)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	if q.Offset > 0 {
		db = db.Offset(q.Offset)
	}

	err := db.Order("fecha DESC").Find(&alerts).Error
	return alerts, total, err
}

// ResolveAlert transitions an alert to completed. Re-resolving a completed
// alert overwrites notes and resolver; terminal states are never reopened.
func (s *GormStore) ResolveAlert(ctx context.Context, alertID, userID, notas string) (*Alert, error) {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ?", alertID).
		Updates(map[string]interface{}{
			"estado":      AlertCompleted,
			"resolved_by": userID,
			"resolved_at": &now,
			"notas":       notas,
			"dedup_key":   nil,
		}).Error
	if err != nil {
		return nil, err
	}
	return s.GetAlert(ctx, alertID)
}

// CancelAlert transitions a pending alert to cancelled. Terminal
// alerts are never re-cancelled.
func (s *GormStore) CancelAlert(ctx context.Context, alertID, userID string) (*Alert, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND estado = ?", alertID, AlertPendiente).
		Updates(map[string]interface{}{
			"estado":      AlertCancelled,
			"resolved_by": userID,
			"resolved_at": &now,
			"dedup_key":   nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("alert %s is not pending or does not exist", alertID)
	}
	return s.GetAlert(ctx, alertID)
}

// CreateKPIAlertLink inserts the join row tying an alert to a history row
func (s *GormStore) CreateKPIAlertLink(ctx context.Context, link KPIAlertLink) error {
	return s.db.WithContext(ctx).Create(&link).Error
}

// CountPendingKPIAlertsByFirm aggregates pending automatic KPI alerts per firm
// created since the given time
func (s *GormStore) CountPendingKPIAlertsByFirm(ctx context.Context, since time.Time) ([]FirmAlertCount, error) {
	var counts []FirmAlertCount
	err := s.db.WithContext(ctx).Model(&Alert{}).
		Where("origen = ? AND estado = ? AND regla_aplicada LIKE ? AND fecha >= ?",
			OrigenAutomatica, AlertPendiente, "KPI_%", since).
		Select("firm_id, COUNT(DISTINCT regla_aplicada) as distinct_rules, COUNT(*) as total").
		Group("firm_id").
		Scan(&counts).Error
	return counts, err
}

// ListWeighings returns weighings for a firm within [from, to], oldest first
func (s *GormStore) ListWeighings(ctx context.Context, firmID int64, lotID *int64, from, to time.Time) ([]Weighing, error) {
	var ws []Weighing
	db := s.db.WithContext(ctx).
		Where("firm_id = ? AND fecha >= ? AND fecha <= ?", firmID, from, to)
	if lotID != nil {
		db = db.Where("lot_id = ?", *lotID)
	}
	err := db.Order("fecha").Find(&ws).Error
	return ws, err
}

// SumMovements returns total head count for movements of a type in [from, to]
func (s *GormStore) SumMovements(ctx context.Context, firmID int64, tipo string, from, to time.Time) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&AnimalMovement{}).
		Where("firm_id = ? AND tipo = ? AND fecha >= ? AND fecha <= ?", firmID, tipo, from, to).
		Select("COALESCE(SUM(cantidad), 0)").
		Scan(&total).Error
	return total, err
}

// SumMovementKg returns total kg moved for movements of a type in [from, to]
func (s *GormStore) SumMovementKg(ctx context.Context, firmID int64, tipo string, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&AnimalMovement{}).
		Where("firm_id = ? AND tipo = ? AND fecha >= ? AND fecha <= ?", firmID, tipo, from, to).
		Select("COALESCE(SUM(total_kg), 0)").
		Scan(&total).Error
	return total, err
}

// SumMovementAmount returns total money for movements of a type in [from, to]
func (s *GormStore) SumMovementAmount(ctx context.Context, firmID int64, tipo string, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&AnimalMovement{}).
		Where("firm_id = ? AND tipo = ? AND fecha >= ? AND fecha <= ?", firmID, tipo, from, to).
		Select("COALESCE(SUM(monto_total), 0)").
		Scan(&total).Error
	return total, err
}

// CountAnimals returns the firm's current head count
func (s *GormStore) CountAnimals(ctx context.Context, firmID int64) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&Lot{}).
		Where("firm_id = ? AND is_active = ?", firmID, true).
		Select("COALESCE(SUM(animal_count), 0)").
		Scan(&total).Error
	return total, err
}

// SumHectares returns the firm's grazed hectares
func (s *GormStore) SumHectares(ctx context.Context, firmID int64) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&Lot{}).
		Where("firm_id = ? AND is_active = ?", firmID, true).
		Select("COALESCE(SUM(hectareas), 0)").
		Scan(&total).Error
	return total, err
}

// SumExpenses returns total expenses for a firm in [from, to]
func (s *GormStore) SumExpenses(ctx context.Context, firmID int64, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&Expense{}).
		Where("firm_id = ? AND fecha >= ? AND fecha <= ?", firmID, from, to).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&total).Error
	return total, err
}

// SumIncome returns total income for a firm in [from, to]
func (s *GormStore) SumIncome(ctx context.Context, firmID int64, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&Income{}).
		Where("firm_id = ? AND fecha >= ? AND fecha <= ?", firmID, from, to).
		Select("COALESCE(SUM(monto), 0)").
		Scan(&total).Error
	return total, err
}

// ListPastureMeasurements returns pasture readings for a firm in [from, to], oldest first
func (s *GormStore) ListPastureMeasurements(ctx context.Context, firmID int64, lotID *int64, from, to time.Time) ([]PastureMeasurement, error) {
	var ms []PastureMeasurement
	db := s.db.WithContext(ctx).
		Where("firm_id = ? AND fecha >= ? AND fecha <= ?", firmID, from, to)
	if lotID != nil {
		db = db.Where("lot_id = ?", *lotID)
	}
	err := db.Order("fecha").Find(&ms).Error
	return ms, err
}

// CreateRainfallRecord inserts a rainfall reading
func (s *GormStore) CreateRainfallRecord(ctx context.Context, rec RainfallRecord) (*RainfallRecord, error) {
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRainfallRecord returns one rainfall reading, nil if absent
func (s *GormStore) GetRainfallRecord(ctx context.Context, id int64) (*RainfallRecord, error) {
	var rec RainfallRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRainfallRecord removes a rainfall reading
func (s *GormStore) DeleteRainfallRecord(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&RainfallRecord{}).Error
}

// ListRainfall returns rainfall readings for a premise in [from, to], oldest first
func (s *GormStore) ListRainfall(ctx context.Context, premiseID int64, from, to time.Time) ([]RainfallRecord, error) {
	var recs []RainfallRecord
	err := s.db.WithContext(ctx).
		Where("premise_id = ? AND fecha >= ? AND fecha <= ?", premiseID, from, to).
		Order("fecha").
		Find(&recs).Error
	return recs, err
}

// SumRainfall returns accumulated mm for a premise in [from, to]
func (s *GormStore) SumRainfall(ctx context.Context, premiseID int64, from, to time.Time) (float64, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&RainfallRecord{}).
		Where("premise_id = ? AND fecha >= ? AND fecha <= ?", premiseID, from, to).
		Select("COALESCE(SUM(mm), 0)").
		Scan(&total).Error
	return total, err
}

// ListDecisions returns a firm's decisions dated within [from, to]
func (s *GormStore) ListDecisions(ctx context.Context, firmID int64, from, to time.Time) ([]Decision, error) {
	var ds []Decision
	err := s.db.WithContext(ctx).
		Where("firm_id = ? AND fecha >= ? AND fecha <= ?", firmID, from, to).
		Order("fecha").
		Find(&ds).Error
	return ds, err
}

// CreateRecommendation inserts an auto-generated recommendation
func (s *GormStore) CreateRecommendation(ctx context.Context, rec Recommendation) error {
	return s.db.WithContext(ctx).Create(&rec).Error
}

// ListRecommendations returns the newest recommendations for a firm
func (s *GormStore) ListRecommendations(ctx context.Context, firmID int64, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []Recommendation
	err := s.db.WithContext(ctx).
		Where("firm_id = ?", firmID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// CreateAuditEntry inserts an audit trail row
func (s *GormStore) CreateAuditEntry(ctx context.Context, entry AuditEntry) error {
	return s.db.WithContext(ctx).Create(&entry).Error
}
