package repository

import (
	"context"
	"time"

	"github.com/jhoicas/flowlogic-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindByLogin busca por email o por username (login acepta ambos).
	FindByLogin(ctx context.Context, login string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
