package entity

import "time"

// Estados de una ingesta.
const (
	IngestionPending             = "PENDING"
	IngestionCompleted           = "COMPLETED"
	IngestionCompletedWithErrors = "COMPLETED_WITH_ERRORS"
	IngestionFailed              = "FAILED"
)

// Tipos de datos aceptados por la ingesta.
const (
	DataTypeInventorySnapshot = "inventory_snapshot"
)

// IngestionError error de un registro individual (fila 1-based del archivo de origen).
type IngestionError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Ingestion una ejecución de importación desde un sistema externo.
// Se crea en PENDING al iniciar y se finaliza con conteos al terminar.
type Ingestion struct {
	ID           string
	CompanyID    string
	SourceKey    string // identidad de la ingesta; agrupa las versiones de snapshots
	Source       string // OFBiz, manhattan, sap, manual...
	Filename     string
	DataType     string
	MappingType  string
	Status       string
	RecordCount  int
	ErrorCount   int
	ProductCount int
	Checksum     string
	Errors       []IngestionError
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// Finalize fija el estado final según los conteos.
func (i *Ingestion) Finalize(recordCount, errorCount int, at time.Time) {
	i.RecordCount = recordCount
	i.ErrorCount = errorCount
	i.CompletedAt = &at
	switch {
	case recordCount == 0 && errorCount > 0:
		i.Status = IngestionFailed
	case errorCount > 0:
		i.Status = IngestionCompletedWithErrors
	default:
		i.Status = IngestionCompleted
	}
}
