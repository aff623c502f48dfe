package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// AssignmentRepository определяет интерфейс для работы с назначениями пользователей
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.UserAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.UserAssignment, error)
	ListCurrentByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) ([]domain.UserAssignment, error)
	CountActiveByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) (int64, error)
	End(ctx context.Context, id uuid.UUID, at time.Time) error
	EndCurrentForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type assignmentRepository struct {
	db *gorm.DB
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.UserAssignment) error {
	return translateError(r.db.WithContext(ctx).Omit("User").Create(assignment).Error)
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserAssignment, error) {
	var assignment domain.UserAssignment
	if err := r.db.WithContext(ctx).First(&assignment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, domain.ErrAssignmentNotFound)
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListCurrentByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) ([]domain.UserAssignment, error) {
	var assignments []domain.UserAssignment
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("org_unit_id = ? AND effective_to IS NULL", orgUnitID).
		Order("effective_from ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, translateError(err)
	}
	return assignments, nil
}

func (r *assignmentRepository) CountActiveByOrgUnit(ctx context.Context, orgUnitID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.UserAssignment{}).
		Where("org_unit_id = ? AND effective_to IS NULL", orgUnitID).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *assignmentRepository) End(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.UserAssignment{}).
		Where("id = ? AND effective_to IS NULL", id).
		Update("effective_to", at)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAssignmentEnded
	}
	return nil
}

// EndCurrentForUser закрывает текущее назначение пользователя перед новым
func (r *assignmentRepository) EndCurrentForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&domain.UserAssignment{}).
		Where("user_id = ? AND effective_to IS NULL", userID).
		Update("effective_to", at).Error
	return translateError(err)
}
