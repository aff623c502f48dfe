package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// LevelRepository - реестр уровней иерархии
type LevelRepository interface {
	ListByFiscalYear(ctx context.Context, fiscalYearID uuid.UUID) ([]domain.LevelDefinition, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LevelDefinition, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}

type levelRepository struct {
	db *gorm.DB
}

func (r *levelRepository) ListByFiscalYear(ctx context.Context, fiscalYearID uuid.UUID) ([]domain.LevelDefinition, error) {
	var levels []domain.LevelDefinition
	err := r.db.WithContext(ctx).
		Where("fiscal_year_id = ?", fiscalYearID).
		Order("hierarchy_level ASC").
		Find(&levels).Error
	if err != nil {
		return nil, translateError(err)
	}
	return levels, nil
}

func (r *levelRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LevelDefinition, error) {
	var level domain.LevelDefinition
	if err := r.db.WithContext(ctx).First(&level, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrLevelNotFound)
	}
	return &level, nil
}

func (r *levelRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	result := r.db.WithContext(ctx).
		Model(&domain.LevelDefinition{}).
		Where("id = ?", id).
		Update("is_enabled", enabled)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrLevelNotFound
	}
	return nil
}
