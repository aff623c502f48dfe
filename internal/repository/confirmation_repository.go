package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// ConfirmationRepository - отметки о подтверждении структуры
type ConfirmationRepository interface {
	Create(ctx context.Context, confirmation *domain.StructureConfirmation) error
	Exists(ctx context.Context, fiscalYearID uuid.UUID, confirmationType domain.ConfirmationType) (bool, error)
	ListByFiscalYear(ctx context.Context, fiscalYearID uuid.UUID) ([]domain.StructureConfirmation, error)
}

type confirmationRepository struct {
	db *gorm.DB
}

func (r *confirmationRepository) Create(ctx context.Context, confirmation *domain.StructureConfirmation) error {
	return translateDuplicate(r.db.WithContext(ctx).Create(confirmation).Error, domain.ErrAlreadyConfirmed)
}

func (r *confirmationRepository) Exists(ctx context.Context, fiscalYearID uuid.UUID, confirmationType domain.ConfirmationType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StructureConfirmation{}).
		Where("fiscal_year_id = ? AND confirmation_type = ?", fiscalYearID, confirmationType).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *confirmationRepository) ListByFiscalYear(ctx context.Context, fiscalYearID uuid.UUID) ([]domain.StructureConfirmation, error) {
	var confirmations []domain.StructureConfirmation
	err := r.db.WithContext(ctx).
		Where("fiscal_year_id = ?", fiscalYearID).
		Order("confirmed_at ASC").
		Find(&confirmations).Error
	if err != nil {
		return nil, translateError(err)
	}
	return confirmations, nil
}
