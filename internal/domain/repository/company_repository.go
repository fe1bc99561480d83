package repository

import (
	"context"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// CompanyRepository define el puerto de persistencia para Company (DIP).
// La implementación vive en infrastructure.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByCode(ctx context.Context, code string) (*entity.Company, error)
}
