package dto

import "time"

// AlertListQuery filtros de GET /api/alerts. Los booleanos llegan como texto ("true"/"false").
type AlertListQuery struct {
	WarehouseID string `query:"warehouse_id" validate:"omitempty,uuid"`
	Type        string `query:"type" validate:"omitempty,oneof=LOW_STOCK INVENTORY_DISCREPANCY FWRD_FRAGMENTATION CAPACITY_WARNING ORDER_LATE CUSTOM"`
	Severity    string `query:"severity" validate:"omitempty,oneof=INFO WARNING CRITICAL EMERGENCY"`
	IsRead      string `query:"is_read" validate:"omitempty,oneof=true false"`
	IsResolved  string `query:"is_resolved" validate:"omitempty,oneof=true false"`
	Page        int    `query:"page" validate:"min=0"`
	Limit       int    `query:"limit" validate:"min=0,max=100"`
}

// AlertResponse alerta en respuestas.
type AlertResponse struct {
	ID              string     `json:"id"`
	WarehouseID     string     `json:"warehouse_id,omitempty"`
	IngestionID     string     `json:"ingestion_id,omitempty"`
	Type            string     `json:"type"`
	Severity        string     `json:"severity"`
	Title           string     `json:"title"`
	Message         string     `json:"message"`
	SKU             string     `json:"sku,omitempty"`
	LocationCode    string     `json:"location_code,omitempty"`
	SuggestedAction string     `json:"suggested_action,omitempty"`
	IsRead          bool       `json:"is_read"`
	IsResolved      bool       `json:"is_resolved"`
	ResolvedBy      string     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AlertListResponse respuesta de GET /api/alerts.
type AlertListResponse struct {
	Data       []AlertResponse `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// AlertSummaryResponse respuesta de GET /api/alerts/summary. Los desgloses cuentan solo alertas abiertas.
type AlertSummaryResponse struct {
	Total          int            `json:"total_alerts"`
	Unread         int            `json:"unread_count"`
	Unresolved     int            `json:"unresolved_count"`
	SeverityCounts map[string]int `json:"severity_counts"`
	TypeCounts     map[string]int `json:"type_counts"`
}

// CreateAlertRequest body de POST /api/alerts (alerta manual).
type CreateAlertRequest struct {
	WarehouseID  string `json:"warehouse_id" validate:"omitempty,uuid"`
	Type         string `json:"type" validate:"required,oneof=LOW_STOCK INVENTORY_DISCREPANCY FWRD_FRAGMENTATION CAPACITY_WARNING ORDER_LATE CUSTOM"`
	Severity     string `json:"severity" validate:"required,oneof=INFO WARNING CRITICAL EMERGENCY"`
	Title        string `json:"title" validate:"required,min=1,max=200"`
	Message      string `json:"message" validate:"required,min=1,max=2000"`
	SKU          string `json:"sku" validate:"omitempty,max=100"`
	LocationCode string `json:"location_code" validate:"omitempty,max=100"`
}

// BulkReadRequest body de PATCH /api/alerts/bulk-read.
type BulkReadRequest struct {
	AlertIDs []string `json:"alert_ids" validate:"required,min=1,max=100,dive,uuid"`
}

// CountResponse resultado de operaciones masivas.
type CountResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

// CleanupResponse resultado de DELETE /api/alerts/cleanup.
type CleanupResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
	DaysOld int   `json:"days_old"`
}

// AlertInsightDTO acción sugerida por el modelo para una alerta.
type AlertInsightDTO struct {
	AlertID         string  `json:"alert_id"`
	SuggestedAction string  `json:"suggested_action"`
	Reasoning       string  `json:"reasoning"`
	ConfidenceScore float64 `json:"confidence_score"`
}
