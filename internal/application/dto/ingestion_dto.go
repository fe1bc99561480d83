package dto

import "time"

// UploadRequest campos de formulario de POST /api/ingestion/upload (el archivo va en "file").
type UploadRequest struct {
	SourceKey   string `form:"source_key" validate:"omitempty,max=200"`
	Source      string `form:"source" validate:"omitempty,max=100"`
	MappingType string `form:"mapping_type" validate:"omitempty,oneof=generic manhattan sap ofbiz"`
	Format      string `form:"format" validate:"omitempty,oneof=json xml csv"`
	Encoding    string `form:"encoding" validate:"omitempty,oneof=utf-8 utf8 iso-8859-1 latin1 windows-1252"`
}

// RowErrorDTO error de un registro.
type RowErrorDTO struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResultDTO resultado de una importación.
type ImportResultDTO struct {
	IngestionID   string        `json:"ingestion_id"`
	Status        string        `json:"status"`
	Imported      int           `json:"imported"`
	ErrorCount    int           `json:"error_count"`
	Errors        []RowErrorDTO `json:"errors,omitempty"`
	ProductCount  int           `json:"product_count"`
	AlertsCreated int           `json:"alerts_created"`
	AlertsSkipped int           `json:"alerts_skipped"`
	RuleFailures  []string      `json:"rule_failures,omitempty"`
}

// IngestionDTO ejecución de importación en historial.
type IngestionDTO struct {
	ID           string     `json:"id"`
	SourceKey    string     `json:"source_key"`
	Source       string     `json:"source"`
	Filename     string     `json:"filename,omitempty"`
	DataType     string     `json:"data_type"`
	MappingType  string     `json:"mapping_type,omitempty"`
	Status       string     `json:"status"`
	RecordCount  int        `json:"record_count"`
	ErrorCount   int        `json:"error_count"`
	ProductCount int        `json:"product_count"`
	Checksum     string     `json:"checksum,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// IngestionHistoryResponse respuesta de GET /api/ingestion/history.
type IngestionHistoryResponse struct {
	Data []IngestionDTO `json:"data"`
	Page PageResponse   `json:"page"`
}

// MappingsResponse respuesta de GET /api/ingestion/mappings: mapeo → encabezado CSV → campo canónico.
type MappingsResponse struct {
	Mappings map[string]map[string]string `json:"mappings"`
}
