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
	"encoding/json"
	"time"
)

// KPI status bands
const (
	StatusVerde    = "VERDE"
	StatusAmarillo = "AMARILLO"
	StatusRojo     = "ROJO"
	StatusSinDatos = "SIN_DATOS"
)

// Calculation frequency tiers
const (
	FrequencyDaily   = "DAILY"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
)

// Alert lifecycle states
const (
	AlertPendiente = "pendiente"
	AlertCompleted = "completed"
	AlertCancelled = "cancelled"
)

// Alert origins and priorities
const (
	OrigenManual     = "manual"
	OrigenAutomatica = "automatica"

	PrioridadBaja  = "baja"
	PrioridadMedia = "media"
	PrioridadAlta  = "alta"
)

// Firm is a farming enterprise, the top-level entity KPIs are computed for
type Firm struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	Nombre           string    `gorm:"column:nombre;size:255;not null"`
	HectareasTotales float64   `gorm:"column:hectareas_totales"`
	IsActive         bool      `gorm:"column:is_active;default:true;index"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (*Firm) TableName() string { return "firms" }

// Premise is a physical location belonging to a firm (rainfall is recorded per premise)
type Premise struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	FirmID int64  `gorm:"column:firm_id;not null;index"`
	Nombre string `gorm:"column:nombre;size:255;not null"`
}

func (*Premise) TableName() string { return "premises" }

// Lot is a paddock/herd subdivision of a firm. LotID 0 in history and alerts
// means the row is firm-level rather than lot-scoped.
type Lot struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	FirmID      int64   `gorm:"column:firm_id;not null;index"`
	Nombre      string  `gorm:"column:nombre;size:255;not null"`
	Hectareas   float64 `gorm:"column:hectareas"`
	AnimalCount int64   `gorm:"column:animal_count"`
	IsActive    bool    `gorm:"column:is_active;default:true"`
}

func (*Lot) TableName() string { return "lots" }

// KPIDefinition is immutable reference data describing one KPI. Definitions are
// never deleted, only deactivated.
type KPIDefinition struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement"`
	Code                 string    `gorm:"column:code;size:64;not null;uniqueIndex"`
	Name                 string    `gorm:"column:name;size:255;not null"`
	Unit                 string    `gorm:"column:unit;size:32"`
	CalculationFrequency string    `gorm:"column:calculation_frequency;size:16;not null;index"`
	IsActive             bool      `gorm:"column:is_active;default:true;index"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (*KPIDefinition) TableName() string { return "kpi_definitions" }

// Threshold modes
const (
	ThresholdAbsolute        = "absolute"
	ThresholdPercentOfTarget = "percent_of_target"
)

// Threshold directions
const (
	HigherIsBetter = "higher_is_better"
	LowerIsBetter  = "lower_is_better"
)

// KPIThreshold holds the configured green/yellow/red bands for one KPI.
// In absolute mode Warning and Critical are raw cutoffs in the KPI's unit; in
// percent_of_target mode they are percentages of Target.
type KPIThreshold struct {
	ID        int64    `gorm:"primaryKey;autoIncrement"`
	KPIID     int64    `gorm:"column:kpi_id;not null;uniqueIndex"`
	Direction string   `gorm:"column:direction;size:32;not null"`
	Mode      string   `gorm:"column:mode;size:32;not null;default:absolute"`
	Target    *float64 `gorm:"column:target"`
	Warning   float64  `gorm:"column:warning;not null"`
	Critical  float64  `gorm:"column:critical;not null"`
}

func (*KPIThreshold) TableName() string { return "kpi_thresholds" }

// KPIHistory is one computed KPI value for a (firm, kpi, lot, period). Rows are
// append-only; re-running a period upserts the same row instead of duplicating it.
type KPIHistory struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	FirmID       int64     `gorm:"column:firm_id;not null;uniqueIndex:idx_history_period,priority:1;index:idx_history_latest,priority:1"`
	KPIID        int64     `gorm:"column:kpi_id;not null;uniqueIndex:idx_history_period,priority:2;index:idx_history_latest,priority:2"`
	LotID        int64     `gorm:"column:lot_id;not null;default:0;uniqueIndex:idx_history_period,priority:3"`
	PeriodStart  time.Time `gorm:"column:period_start;not null;uniqueIndex:idx_history_period,priority:4"`
	PeriodEnd    time.Time `gorm:"column:period_end;not null;uniqueIndex:idx_history_period,priority:5"`
	Value        *float64  `gorm:"column:value"`
	Unit         string    `gorm:"column:unit;size:32"`
	Status       string    `gorm:"column:status;size:16;not null;index"`
	Metadata     string    `gorm:"column:metadata;type:text"`
	CalculatedAt time.Time `gorm:"column:calculated_at;not null;index:idx_history_latest,priority:3,sort:desc;index:idx_history_calculated"`
	CalculatedBy string    `gorm:"column:calculated_by;size:64"`
}

func (*KPIHistory) TableName() string { return "kpi_history" }

// GetMetadata decodes the metadata JSON blob
func (h *KPIHistory) GetMetadata() map[string]any {
	if h.Metadata == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(h.Metadata), &m); err != nil {
		return nil
	}
	return m
}

// SetMetadata encodes the metadata JSON blob
func (h *KPIHistory) SetMetadata(m map[string]any) error {
	if len(m) == 0 {
		h.Metadata = ""
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	h.Metadata = string(b)
	return nil
}

// ConsecutiveWarning tracks how many successive periods a firm's KPI has stayed
// in AMARILLO. One row per (firm, kpi), upserted by the monthly run.
type ConsecutiveWarning struct {
	ID                     int64     `gorm:"primaryKey;autoIncrement"`
	FirmID                 int64     `gorm:"column:firm_id;not null;uniqueIndex:idx_warning_firm_kpi,priority:1"`
	KPIID                  int64     `gorm:"column:kpi_id;not null;uniqueIndex:idx_warning_firm_kpi,priority:2"`
	ConsecutiveWarningDays int       `gorm:"column:consecutive_warning_days;default:0"`
	LastWarningAt          time.Time `gorm:"column:last_warning_at"`
}

func (*ConsecutiveWarning) TableName() string { return "kpi_consecutive_warnings" }

// Alert is a user-facing alert, created automatically by the threshold engine or
// manually by a user. DedupKey is "{firm}:{lot}:{regla}" while the alert is the
// open automatic alert for its rule, and NULL otherwise; the unique index on it
// makes the dedup check-then-insert a single atomic write.
type Alert struct {
	ID            string     `gorm:"primaryKey;size:36"`
	FirmID        int64      `gorm:"column:firm_id;not null;index:idx_alert_firm_estado,priority:1"`
	PremiseID     *int64     `gorm:"column:premise_id"`
	LotID         int64      `gorm:"column:lot_id;not null;default:0"`
	Origen        string     `gorm:"column:origen;size:16;not null"`
	Tipo          string     `gorm:"column:tipo;size:64;not null;index"`
	Titulo        string     `gorm:"column:titulo;size:500;not null"`
	Descripcion   string     `gorm:"column:descripcion;type:text"`
	Prioridad     string     `gorm:"column:prioridad;size:16;not null;index"`
	ReglaAplicada string     `gorm:"column:regla_aplicada;size:128;index"`
	Estado        string     `gorm:"column:estado;size:16;not null;index:idx_alert_firm_estado,priority:2"`
	Fecha         time.Time  `gorm:"column:fecha;not null;index:idx_alert_fecha,sort:desc"`
	Metadata      string     `gorm:"column:metadata;type:text"`
	DedupKey      *string    `gorm:"column:dedup_key;size:160;uniqueIndex"`
	Notas         string     `gorm:"column:notas;type:text"`
	ResolvedBy    string     `gorm:"column:resolved_by;size:64"`
	ResolvedAt    *time.Time `gorm:"column:resolved_at"`
}

func (*Alert) TableName() string { return "alerts" }

// KPIAlertLink ties an alert to the history row that triggered it
type KPIAlertLink struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	AlertID       string    `gorm:"column:alert_id;size:36;not null;index"`
	KPIHistoryID  int64     `gorm:"column:kpi_history_id;not null;index"`
	ThresholdType string    `gorm:"column:threshold_type;size:16;not null"`
	CurrentValue  float64   `gorm:"column:current_value"`
	DaysInStatus  int       `gorm:"column:days_in_status"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (*KPIAlertLink) TableName() string { return "kpi_alert_links" }

// RainfallRecord is a user-entered rainfall reading for a premise
type RainfallRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	FirmID     int64     `gorm:"column:firm_id;not null;index"`
	PremiseID  int64     `gorm:"column:premise_id;not null;index:idx_rainfall_premise_fecha,priority:1"`
	Fecha      time.Time `gorm:"column:fecha;not null;index:idx_rainfall_premise_fecha,priority:2"`
	Mm         float64   `gorm:"column:mm;not null"`
	Usuario    string    `gorm:"column:usuario;size:64"`
	CampaignID *int64    `gorm:"column:campaign_id"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (*RainfallRecord) TableName() string { return "rainfall_records" }

// Weighing is an average-weight measurement for a lot
type Weighing struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	FirmID      int64     `gorm:"column:firm_id;not null;index:idx_weighing_firm_fecha,priority:1"`
	LotID       int64     `gorm:"column:lot_id;not null;default:0;index"`
	Fecha       time.Time `gorm:"column:fecha;not null;index:idx_weighing_firm_fecha,priority:2"`
	AvgWeightKg float64   `gorm:"column:avg_weight_kg;not null"`
	AnimalCount int64     `gorm:"column:animal_count;not null"`
}

func (*Weighing) TableName() string { return "weighings" }

// Animal movement types
const (
	MovimientoMuerte     = "muerte"
	MovimientoVenta      = "venta"
	MovimientoCompra     = "compra"
	MovimientoNacimiento = "nacimiento"
	MovimientoDestete    = "destete"
)

// AnimalMovement is any head-count change event: deaths, sales, purchases,
// births and weanings.
type AnimalMovement struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	FirmID     int64     `gorm:"column:firm_id;not null;index:idx_movement_firm_fecha,priority:1"`
	LotID      int64     `gorm:"column:lot_id;not null;default:0"`
	Tipo       string    `gorm:"column:tipo;size:16;not null;index"`
	Fecha      time.Time `gorm:"column:fecha;not null;index:idx_movement_firm_fecha,priority:2"`
	Cantidad   int64     `gorm:"column:cantidad;not null"`
	TotalKg    *float64  `gorm:"column:total_kg"`
	MontoTotal *float64  `gorm:"column:monto_total"`
}

func (*AnimalMovement) TableName() string { return "animal_movements" }

// Expense is an operational cost entry
type Expense struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FirmID    int64     `gorm:"column:firm_id;not null;index:idx_expense_firm_fecha,priority:1"`
	LotID     int64     `gorm:"column:lot_id;not null;default:0"`
	Fecha     time.Time `gorm:"column:fecha;not null;index:idx_expense_firm_fecha,priority:2"`
	Categoria string    `gorm:"column:categoria;size:64"`
	Monto     float64   `gorm:"column:monto;not null"`
}

func (*Expense) TableName() string { return "expenses" }

// Income is a revenue entry
type Income struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FirmID    int64     `gorm:"column:firm_id;not null;index:idx_income_firm_fecha,priority:1"`
	LotID     int64     `gorm:"column:lot_id;not null;default:0"`
	Fecha     time.Time `gorm:"column:fecha;not null;index:idx_income_firm_fecha,priority:2"`
	Categoria string    `gorm:"column:categoria;size:64"`
	Monto     float64   `gorm:"column:monto;not null"`
}

func (*Income) TableName() string { return "incomes" }

// PastureMeasurement is a pasture condition reading for a lot
type PastureMeasurement struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	FirmID           int64     `gorm:"column:firm_id;not null;index:idx_pasture_firm_fecha,priority:1"`
	LotID            int64     `gorm:"column:lot_id;not null;default:0;index"`
	Fecha            time.Time `gorm:"column:fecha;not null;index:idx_pasture_firm_fecha,priority:2"`
	AlturaCm         float64   `gorm:"column:altura_cm"`
	MateriaSecaKgHa  float64   `gorm:"column:materia_seca_kg_ha"`
	AreaPastoreadaHa float64   `gorm:"column:area_pastoreada_ha"`
}

func (*PastureMeasurement) TableName() string { return "pasture_measurements" }

// Decision is a management decision tracked for the learning report
type Decision struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement"`
	FirmID              int64     `gorm:"column:firm_id;not null;index"`
	Fecha               time.Time `gorm:"column:fecha;not null;index"`
	Titulo              string    `gorm:"column:titulo;size:500;not null"`
	Categoria           string    `gorm:"column:categoria;size:64"`
	KPICode             string    `gorm:"column:kpi_code;size:64"`
	Estado              string    `gorm:"column:estado;size:32"`
	GDPMejoraPct        float64   `gorm:"column:gdp_mejora_pct"`
	CostoMejoraPct      float64   `gorm:"column:costo_mejora_pct"`
	MortalidadMejoraPct float64   `gorm:"column:mortalidad_mejora_pct"`
	Notas               string    `gorm:"column:notas;type:text"`
}

func (*Decision) TableName() string { return "decisions" }

// Recommendation is an auto-generated suggestion for a KPI in trouble
type Recommendation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FirmID    int64     `gorm:"column:firm_id;not null;index"`
	KPIID     int64     `gorm:"column:kpi_id;not null;index"`
	Texto     string    `gorm:"column:texto;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (*Recommendation) TableName() string { return "kpi_recommendations" }

// AuditEntry records a system action for the audit trail. Writes are
// best-effort and must never fail a primary operation.
type AuditEntry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	FirmID    int64     `gorm:"column:firm_id;index"`
	Accion    string    `gorm:"column:accion;size:64;not null"`
	Detalle   string    `gorm:"column:detalle;type:text"`
	Actor     string    `gorm:"column:actor;size:64"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (*AuditEntry) TableName() string { return "audit_entries" }

// KPIHistoryQuery contains parameters for querying KPI history
type KPIHistoryQuery struct {
	FirmID int64
	KPIID  int64
	LotID  *int64
	From   *time.Time
	To     *time.Time
	Status string
	Limit  int
	Offset int
}

// AlertQuery contains parameters for querying alerts
type AlertQuery struct {
	FirmID    int64
	LotID     *int64
	Origen    string
	Estado    string
	Prioridad string
	Since     *time.Time
	Limit     int
	Offset    int
}

// FirmAlertCount is the per-firm pending automatic alert aggregate used by the
// combined-alert detector
type FirmAlertCount struct {
	FirmID        int64
	DistinctRules int64
	Total         int64
}
