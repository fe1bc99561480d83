package entity

import "time"

// Warehouse representa un centro de distribución de la empresa.
// Las alertas pueden vincularse opcionalmente a una bodega.
type Warehouse struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
