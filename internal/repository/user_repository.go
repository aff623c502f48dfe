package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// UserRepository - справочник пользователей арендатора
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	CountInTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return &user, nil
}

// CountInTenant считает, сколько из переданных ID принадлежат арендатору
func (r *userRepository) CountInTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}
