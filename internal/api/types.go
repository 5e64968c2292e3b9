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
	"time"

	"github.com/camposur/agroguardian/internal/store"
)

// HealthResponse is the response for GET /api/v1/health
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// StatsResponse is the response for GET /api/v1/stats
type StatsResponse struct {
	TotalFirms     int   `json:"totalFirms"`
	TotalKPIs      int   `json:"totalKpis"`
	PendingAlerts  int64 `json:"pendingAlerts"`
	HistoryRecords int64 `json:"historyRecords"`
}

// RunRequest is the body for POST /api/v1/runs/{frequency}
type RunRequest struct {
	FirmID *int64 `json:"firm_id,omitempty"`
}

// KPIListResponse is the response for GET /api/v1/kpis
type KPIListResponse struct {
	Items []store.KPIDefinition `json:"items"`
}

// ThresholdRequest is the body for PUT /api/v1/kpis/{code}/threshold
type ThresholdRequest struct {
	Direction string   `json:"direction"`
	Mode      string   `json:"mode"`
	Target    *float64 `json:"target,omitempty"`
	Warning   float64  `json:"warning"`
	Critical  float64  `json:"critical"`
}

// HistoryResponse is the response for GET /api/v1/kpis/{code}/history
type HistoryResponse struct {
	Items []store.KPIHistory `json:"items"`
	Total int64              `json:"total"`
}

// AlertListResponse is the response for GET /api/v1/alerts
type AlertListResponse struct {
	Items []store.Alert `json:"items"`
	Total int64         `json:"total"`
}

// RecommendationListResponse is the response for GET /api/v1/recommendations
type RecommendationListResponse struct {
	Items []store.Recommendation `json:"items"`
}

// CreateAlertRequest is the body for POST /api/v1/alerts
type CreateAlertRequest struct {
	FirmID      int64  `json:"firm_id"`
	LotID       int64  `json:"lot_id,omitempty"`
	Tipo        string `json:"tipo"`
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion,omitempty"`
	Prioridad   string `json:"prioridad"`
}

// ResolveAlertRequest is the body for POST /api/v1/alerts/{id}/resolve
type ResolveAlertRequest struct {
	ResolvedBy string `json:"resolved_by"`
	Notas      string `json:"notas,omitempty"`
}

// RainfallRequest is the body for POST /api/v1/rainfall
type RainfallRequest struct {
	FirmID    int64     `json:"firm_id"`
	PremiseID int64     `json:"premise_id"`
	Fecha     time.Time `json:"fecha"`
	Mm        float64   `json:"mm"`
	Usuario   string    `json:"usuario,omitempty"`
}

// RainfallListResponse is the response for GET /api/v1/rainfall
type RainfallListResponse struct {
	Items []store.RainfallRecord `json:"items"`
	Total float64                `json:"total_mm"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
