package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/hierarchy"
	"github.com/kpi-hierarchy-api/internal/metrics"
	"github.com/kpi-hierarchy-api/internal/repository"
)

// Шаг между соседними sortOrder: оставляет место для вставки без перенумерации
const sortOrderStep = 10

// OrgUnitService определяет интерфейс бизнес-логики для подразделений
type OrgUnitService interface {
	Create(ctx context.Context, actor domain.Actor, req *dto.CreateOrgUnitRequest) (*domain.OrgUnit, error)
	GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.OrgUnit, error)
	List(ctx context.Context, actor domain.Actor, query *dto.ListOrgUnitsQuery) ([]domain.OrgUnit, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *dto.UpdateOrgUnitRequest) (*domain.OrgUnit, error)
	Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error
}

type orgUnitService struct {
	store     repository.Store
	champions ChampionManager
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrgUnitService создаёт новый экземпляр сервиса
func NewOrgUnitService(store repository.Store, champions ChampionManager, logger *slog.Logger) OrgUnitService {
	return &orgUnitService{
		store:     store,
		champions: champions,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orgUnitService) Create(ctx context.Context, actor domain.Actor, req *dto.CreateOrgUnitRequest) (*domain.OrgUnit, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, s.reject("create", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, s.reject("create", domain.ErrBlankName)
	}
	var created *domain.OrgUnit

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// Блокировка и статус года проверяются до любых записей
		fy, err := writableFiscalYear(ctx, tx, actor, req.FiscalYearID)
		if err != nil {
			return err
		}

		level, err := tx.Levels().GetByID(ctx, req.LevelDefinitionID)
		if err != nil {
			return err
		}
		if level.FiscalYearID != fy.ID {
			return domain.ErrLevelFiscalYear
		}
		if !level.IsEnabled {
			return domain.ErrLevelDisabled
		}

		code, err := resolveCode(req.Code, name)
		if err != nil {
			return err
		}
		if err := s.ensureCodeFree(ctx, tx, fy.TenantID, level.ID, code, nil); err != nil {
			return err
		}

		if req.ParentID != nil {
			parent, err := s.loadParent(ctx, tx, fy, *req.ParentID)
			if err != nil {
				return err
			}
			if level.IsOrganization() {
				return domain.ErrOrganizationHasParent
			}
			if err := hierarchy.CheckLevelOrder(parent.Level, level); err != nil {
				return err
			}
		}

		championIDs, err := s.champions.Validate(ctx, tx, fy.TenantID, req.ChampionUserIDs)
		if err != nil {
			return err
		}

		maxOrder, err := tx.OrgUnits().MaxSortOrder(ctx, fy.TenantID, level.ID, req.ParentID)
		if err != nil {
			return err
		}

		unit := &domain.OrgUnit{
			TenantID:          fy.TenantID,
			FiscalYearID:      fy.ID,
			LevelDefinitionID: level.ID,
			Code:              code,
			Name:              name,
			Description:       strings.TrimSpace(req.Description),
			ParentID:          req.ParentID,
			SortOrder:         maxOrder + sortOrderStep,
			EffectiveFrom:     s.now().UTC(),
			IsActive:          true,
		}
		if req.Metadata != nil {
			unit.Metadata = datatypes.JSONMap(req.Metadata)
		}

		if err := tx.OrgUnits().Create(ctx, unit); err != nil {
			return err
		}

		if len(championIDs) > 0 {
			if err := s.champions.Replace(ctx, tx, unit.ID, fy.TenantID, championIDs, actor.AssignedBy()); err != nil {
				return err
			}
		}

		created, err = tx.OrgUnits().GetDetailed(ctx, unit.ID)
		return err
	})
	if err != nil {
		return nil, s.reject("create", err)
	}

	metrics.RecordMutation("create", "ok")
	s.logger.Info("org unit created",
		slog.String("org_unit_id", created.ID.String()),
		slog.String("code", created.Code),
		slog.String("tenant_id", created.TenantID.String()),
	)
	return created, nil
}

func (s *orgUnitService) GetByID(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.OrgUnit, error) {
	unit, err := s.store.OrgUnits().GetDetailed(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireTenant(actor, unit.TenantID); err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *orgUnitService) List(ctx context.Context, actor domain.Actor, query *dto.ListOrgUnitsQuery) ([]domain.OrgUnit, error) {
	filter := repository.OrgUnitFilter{
		TenantID:        actor.TenantID,
		LevelCode:       strings.ToUpper(strings.TrimSpace(query.LevelCode)),
		ParentID:        query.ParentID,
		IncludeInactive: query.IncludeInactive,
	}

	if query.FiscalYearID != nil {
		fy, err := fiscalYearFor(ctx, s.store, actor, *query.FiscalYearID)
		if err != nil {
			return nil, err
		}
		filter.TenantID = fy.TenantID
		filter.FiscalYearID = &fy.ID
	} else {
		// Без явного года показываем текущий, если он есть
		fy, err := s.store.FiscalYears().GetCurrent(ctx, actor.TenantID)
		switch {
		case err == nil:
			filter.FiscalYearID = &fy.ID
		case !isNotFound(err):
			return nil, err
		}
	}

	return s.store.OrgUnits().List(ctx, filter)
}

func (s *orgUnitService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, req *dto.UpdateOrgUnitRequest) (*domain.OrgUnit, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, s.reject("update", err)
	}

	var updated *domain.OrgUnit

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		unit, err := tx.OrgUnits().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireTenant(actor, unit.TenantID); err != nil {
			return err
		}
		fy, err := writableFiscalYear(ctx, tx, actor, unit.FiscalYearID)
		if err != nil {
			return err
		}
		if !unit.IsActive {
			return domain.ErrUnitInactive
		}

		fields := make(map[string]any)

		level := unit.Level
		levelChanged := req.LevelDefinitionID != nil && *req.LevelDefinitionID != unit.LevelDefinitionID
		if levelChanged {
			if level.IsOrganization() {
				return domain.ErrOrganizationRelevel
			}
			level, err = tx.Levels().GetByID(ctx, *req.LevelDefinitionID)
			if err != nil {
				return err
			}
			if level.FiscalYearID != fy.ID {
				return domain.ErrLevelFiscalYear
			}
			if !level.IsEnabled {
				return domain.ErrLevelDisabled
			}
			if err := s.checkChildrenBelow(ctx, tx, unit.ID, level); err != nil {
				return err
			}
			fields["level_definition_id"] = level.ID
		}

		code := unit.Code
		codeChanged := req.Code != nil && *req.Code != unit.Code
		if codeChanged {
			if !hierarchy.ValidCode(*req.Code) {
				return domain.ErrInvalidCode
			}
			code = *req.Code
			fields["code"] = code
		}
		if codeChanged || levelChanged {
			if err := s.ensureCodeFree(ctx, tx, unit.TenantID, level.ID, code, &unit.ID); err != nil {
				return err
			}
		}

		parentID, parentChanged := nextParent(unit, req)
		switch {
		case parentChanged && parentID != nil:
			if err := s.checkReparent(ctx, tx, fy, unit, level, *parentID); err != nil {
				return err
			}
			fields["parent_id"] = *parentID
		case parentChanged:
			fields["parent_id"] = nil
		case levelChanged && unit.ParentID != nil:
			// Родитель прежний, но новый уровень должен остаться ниже него
			parent, err := tx.OrgUnits().GetByID(ctx, *unit.ParentID)
			if err != nil {
				return err
			}
			if level.IsOrganization() {
				return domain.ErrOrganizationHasParent
			}
			if err := hierarchy.CheckLevelOrder(parent.Level, level); err != nil {
				return err
			}
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrBlankName
			}
			fields["name"] = name
		}
		if req.Description != nil {
			fields["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Metadata != nil {
			fields["metadata"] = datatypes.JSONMap(req.Metadata)
		}
		if req.SortOrder != nil {
			fields["sort_order"] = *req.SortOrder
		}

		var championIDs []uuid.UUID
		if req.ChampionUserIDs != nil {
			championIDs, err = s.champions.Validate(ctx, tx, unit.TenantID, req.ChampionUserIDs)
			if err != nil {
				return err
			}
		}

		if err := tx.OrgUnits().Update(ctx, unit.ID, fields); err != nil {
			return err
		}

		if req.ChampionUserIDs != nil {
			if err := s.champions.Replace(ctx, tx, unit.ID, unit.TenantID, championIDs, actor.AssignedBy()); err != nil {
				return err
			}
		}

		updated, err = tx.OrgUnits().GetDetailed(ctx, unit.ID)
		return err
	})
	if err != nil {
		return nil, s.reject("update", err)
	}

	metrics.RecordMutation("update", "ok")
	s.logger.Info("org unit updated", slog.String("org_unit_id", id.String()))
	return updated, nil
}

func (s *orgUnitService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return s.reject("delete", err)
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		unit, err := tx.OrgUnits().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireTenant(actor, unit.TenantID); err != nil {
			return err
		}
		if _, err := writableFiscalYear(ctx, tx, actor, unit.FiscalYearID); err != nil {
			return err
		}
		if !unit.IsActive {
			return domain.ErrUnitInactive
		}
		if unit.Level.IsOrganization() {
			return domain.ErrDeleteOrganization
		}

		children, err := tx.OrgUnits().CountActiveChildren(ctx, id)
		if err != nil {
			return err
		}
		if children > 0 {
			return domain.ErrHasActiveChildren
		}

		assignments, err := tx.Assignments().CountActiveByOrgUnit(ctx, id)
		if err != nil {
			return err
		}
		if assignments > 0 {
			return domain.ErrHasActiveAssignments
		}

		return tx.OrgUnits().Deactivate(ctx, id, s.now().UTC())
	})
	if err != nil {
		return s.reject("delete", err)
	}

	metrics.RecordMutation("delete", "ok")
	s.logger.Info("org unit deactivated", slog.String("org_unit_id", id.String()))
	return nil
}

// loadParent проверяет, что родитель существует, активен и принадлежит тому же году
func (s *orgUnitService) loadParent(ctx context.Context, tx repository.Store, fy *domain.FiscalYear, parentID uuid.UUID) (*domain.OrgUnit, error) {
	parent, err := tx.OrgUnits().GetByID(ctx, parentID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrOrgUnitNotFound.Withf("parent organizational unit not found")
		}
		return nil, err
	}
	if parent.TenantID != fy.TenantID {
		return nil, domain.ErrTenantMismatch
	}
	if !parent.IsActive {
		return nil, domain.ErrParentInactive
	}
	if parent.FiscalYearID != fy.ID {
		return nil, domain.ErrParentFiscalYear
	}
	return parent, nil
}

// checkReparent проверяет перенос: самоссылка, существование родителя,
// цикл через потомков, корневой уровень, порядок уровней
func (s *orgUnitService) checkReparent(ctx context.Context, tx repository.Store, fy *domain.FiscalYear, unit *domain.OrgUnit, level *domain.LevelDefinition, parentID uuid.UUID) error {
	if parentID == unit.ID {
		return domain.ErrSelfParent
	}

	parent, err := s.loadParent(ctx, tx, fy, parentID)
	if err != nil {
		return err
	}

	units, err := tx.OrgUnits().ListByFiscalYear(ctx, unit.TenantID, fy.ID)
	if err != nil {
		return err
	}
	if err := hierarchy.CheckReparent(hierarchy.BuildAdjacency(units), unit.ID, parentID); err != nil {
		return err
	}

	if level.IsOrganization() {
		return domain.ErrOrganizationHasParent
	}
	return hierarchy.CheckLevelOrder(parent.Level, level)
}

func (s *orgUnitService) checkChildrenBelow(ctx context.Context, tx repository.Store, id uuid.UUID, level *domain.LevelDefinition) error {
	children, err := tx.OrgUnits().ListActiveChildren(ctx, id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if hierarchy.CheckLevelOrder(level, child.Level) != nil {
			return domain.ErrChildLevelOrder
		}
	}
	return nil
}

func (s *orgUnitService) ensureCodeFree(ctx context.Context, tx repository.Store, tenantID, levelID uuid.UUID, code string, excludeID *uuid.UUID) error {
	exists, err := tx.OrgUnits().ExistsActiveCode(ctx, tenantID, levelID, code, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateCode.Withf("organizational unit with code %q already exists at this level", code)
	}
	return nil
}

// reject учитывает отказ в счётчике изменений подразделений
func (s *orgUnitService) reject(operation string, err error) error {
	metrics.RecordMutation(operation, errorCode(err))
	return rejected(s.logger, operation, err)
}

// resolveCode возвращает явный код после проверки формата либо код,
// выведенный из названия
func resolveCode(code *string, name string) (string, error) {
	if code == nil || *code == "" {
		derived := hierarchy.DeriveCode(name)
		if !hierarchy.Derivable(derived) {
			return "", domain.ErrCodeNotDerivable
		}
		return derived, nil
	}
	if !hierarchy.ValidCode(*code) {
		return "", domain.ErrInvalidCode
	}
	return *code, nil
}

// nextParent вычисляет нового родителя из запроса и сообщает, изменился ли он
func nextParent(unit *domain.OrgUnit, req *dto.UpdateOrgUnitRequest) (*uuid.UUID, bool) {
	if req.ClearParent {
		return nil, unit.ParentID != nil
	}
	if req.ParentID == nil {
		return unit.ParentID, false
	}
	if unit.ParentID != nil && *unit.ParentID == *req.ParentID {
		return unit.ParentID, false
	}
	return req.ParentID, true
}
