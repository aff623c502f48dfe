package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// FiscalYearRepository - доступ на чтение к финансовым годам
type FiscalYearRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.FiscalYear, error)
	GetCurrent(ctx context.Context, tenantID uuid.UUID) (*domain.FiscalYear, error)
}

type fiscalYearRepository struct {
	db *gorm.DB
}

func (r *fiscalYearRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FiscalYear, error) {
	var fy domain.FiscalYear
	if err := r.db.WithContext(ctx).First(&fy, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrFiscalYearNotFound)
	}
	return &fy, nil
}

func (r *fiscalYearRepository) GetCurrent(ctx context.Context, tenantID uuid.UUID) (*domain.FiscalYear, error) {
	var fy domain.FiscalYear
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_current = ?", tenantID, true).
		First(&fy).Error
	if err != nil {
		return nil, notFound(err, domain.ErrFiscalYearNotFound)
	}
	return &fy, nil
}
