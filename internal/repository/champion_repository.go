package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// ChampionRepository - связи подразделений с ответственными за KPI
type ChampionRepository interface {
	DeleteByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) error
	CreateBatch(ctx context.Context, champions []domain.KpiChampion) error
}

type championRepository struct {
	db *gorm.DB
}

func (r *championRepository) DeleteByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("org_unit_id = ?", orgUnitID).
		Delete(&domain.KpiChampion{}).Error
	return translateError(err)
}

func (r *championRepository) CreateBatch(ctx context.Context, champions []domain.KpiChampion) error {
	if len(champions) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Omit("User").Create(&champions).Error)
}
