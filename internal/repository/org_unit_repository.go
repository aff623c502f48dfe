package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// OrgUnitFilter - условия выборки подразделений. TenantID обязателен.
type OrgUnitFilter struct {
	TenantID        uuid.UUID
	FiscalYearID    *uuid.UUID
	LevelCode       string
	ParentID        *uuid.UUID
	IncludeInactive bool
}

// OrgUnitRepository определяет интерфейс для работы с подразделениями
type OrgUnitRepository interface {
	Create(ctx context.Context, unit *domain.OrgUnit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OrgUnit, error)
	GetDetailed(ctx context.Context, id uuid.UUID) (*domain.OrgUnit, error)
	List(ctx context.Context, filter OrgUnitFilter) ([]domain.OrgUnit, error)
	ListByFiscalYear(ctx context.Context, tenantID, fiscalYearID uuid.UUID) ([]domain.OrgUnit, error)
	ListActiveChildren(ctx context.Context, id uuid.UUID) ([]domain.OrgUnit, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) error
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
	ExistsActiveCode(ctx context.Context, tenantID, levelID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error)
	MaxSortOrder(ctx context.Context, tenantID, levelID uuid.UUID, parentID *uuid.UUID) (int, error)
	CountActiveChildren(ctx context.Context, id uuid.UUID) (int64, error)
}

type orgUnitRepository struct {
	db *gorm.DB
}

func (r *orgUnitRepository) Create(ctx context.Context, unit *domain.OrgUnit) error {
	return translateDuplicate(r.db.WithContext(ctx).Omit(clause.Associations).Create(unit).Error, domain.ErrDuplicateOrgUnit)
}

func (r *orgUnitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrgUnit, error) {
	var unit domain.OrgUnit
	err := r.db.WithContext(ctx).Preload("Level").First(&unit, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrOrgUnitNotFound)
	}
	return &unit, nil
}

func (r *orgUnitRepository) GetDetailed(ctx context.Context, id uuid.UUID) (*domain.OrgUnit, error) {
	var unit domain.OrgUnit
	err := withRelations(r.db.WithContext(ctx)).First(&unit, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, domain.ErrOrgUnitNotFound)
	}
	return &unit, nil
}

func (r *orgUnitRepository) List(ctx context.Context, filter OrgUnitFilter) ([]domain.OrgUnit, error) {
	query := withRelations(r.db.WithContext(ctx)).
		Model(&domain.OrgUnit{}).
		Joins("JOIN level_definitions ld ON ld.id = org_units.level_definition_id").
		Where("org_units.tenant_id = ?", filter.TenantID)

	if filter.FiscalYearID != nil {
		query = query.Where("org_units.fiscal_year_id = ?", *filter.FiscalYearID)
	}
	if filter.LevelCode != "" {
		query = query.Where("ld.code = ?", filter.LevelCode)
	}
	if filter.ParentID != nil {
		query = query.Where("org_units.parent_id = ?", *filter.ParentID)
	}
	if !filter.IncludeInactive {
		query = query.Where("org_units.is_active = ?", true)
	}

	var units []domain.OrgUnit
	err := query.
		Order("ld.hierarchy_level ASC").
		Order("org_units.sort_order ASC").
		Order("org_units.name ASC").
		Find(&units).Error
	if err != nil {
		return nil, translateError(err)
	}
	return units, nil
}

// ListByFiscalYear возвращает все подразделения года, включая неактивные,
// без связей: используется для построения индекса дерева
func (r *orgUnitRepository) ListByFiscalYear(ctx context.Context, tenantID, fiscalYearID uuid.UUID) ([]domain.OrgUnit, error) {
	var units []domain.OrgUnit
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND fiscal_year_id = ?", tenantID, fiscalYearID).
		Find(&units).Error
	if err != nil {
		return nil, translateError(err)
	}
	return units, nil
}

func (r *orgUnitRepository) ListActiveChildren(ctx context.Context, id uuid.UUID) ([]domain.OrgUnit, error) {
	var children []domain.OrgUnit
	err := r.db.WithContext(ctx).
		Preload("Level").
		Where("parent_id = ? AND is_active = ?", id, true).
		Find(&children).Error
	if err != nil {
		return nil, translateError(err)
	}
	return children, nil
}

func (r *orgUnitRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.OrgUnit{}).
		Where("id = ?", id).
		Updates(fields).Error
	return translateDuplicate(err, domain.ErrDuplicateOrgUnit)
}

func (r *orgUnitRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.OrgUnit{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{"is_active": false, "effective_to": at})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrgUnitNotFound
	}
	return nil
}

func (r *orgUnitRepository) ExistsActiveCode(ctx context.Context, tenantID, levelID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&domain.OrgUnit{}).
		Where("tenant_id = ? AND level_definition_id = ? AND code = ? AND is_active = ?", tenantID, levelID, code, true)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *orgUnitRepository) MaxSortOrder(ctx context.Context, tenantID, levelID uuid.UUID, parentID *uuid.UUID) (int, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.OrgUnit{}).
		Where("tenant_id = ? AND level_definition_id = ?", tenantID, levelID)

	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var maxOrder int
	if err := query.Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
		return 0, translateError(err)
	}
	return maxOrder, nil
}

func (r *orgUnitRepository) CountActiveChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OrgUnit{}).
		Where("parent_id = ? AND is_active = ?", id, true).
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// withRelations подгружает уровень, родителя, активных детей, текущие
// назначения и чемпионов
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Level").
		Preload("Parent").
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC").Order("name ASC")
		}).
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Where("effective_to IS NULL").Order("effective_from ASC")
		}).
		Preload("Assignments.User").
		Preload("Champions", func(db *gorm.DB) *gorm.DB {
			return db.Order("assigned_at ASC")
		}).
		Preload("Champions.User")
}
