package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/repository"
)

// AssignmentService определяет интерфейс бизнес-логики для назначений пользователей
type AssignmentService interface {
	Assign(ctx context.Context, actor domain.Actor, orgUnitID uuid.UUID, req *dto.CreateAssignmentRequest) (*domain.UserAssignment, error)
	End(ctx context.Context, actor domain.Actor, id uuid.UUID) error
	ListCurrent(ctx context.Context, actor domain.Actor, orgUnitID uuid.UUID) ([]domain.UserAssignment, error)
}

type assignmentService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewAssignmentService создаёт новый экземпляр сервиса
func NewAssignmentService(store repository.Store, logger *slog.Logger) AssignmentService {
	return &assignmentService{store: store, logger: logger, now: time.Now}
}

// Assign назначает пользователя в подразделение, закрывая его текущее назначение
func (s *assignmentService) Assign(ctx context.Context, actor domain.Actor, orgUnitID uuid.UUID, req *dto.CreateAssignmentRequest) (*domain.UserAssignment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, rejected(s.logger, "assign", err)
	}

	var assignment *domain.UserAssignment
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		unit, err := tx.OrgUnits().GetByID(ctx, orgUnitID)
		if err != nil {
			return err
		}
		if err := requireTenant(actor, unit.TenantID); err != nil {
			return err
		}
		if !unit.IsActive {
			return domain.ErrUnitInactive
		}

		// Пользователь другого арендатора для нас не существует
		user, err := tx.Users().GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user.TenantID != unit.TenantID {
			return domain.ErrUserNotFound
		}

		now := s.now().UTC()
		if err := tx.Assignments().EndCurrentForUser(ctx, user.ID, now); err != nil {
			return err
		}

		assignment = &domain.UserAssignment{
			TenantID:      unit.TenantID,
			UserID:        user.ID,
			OrgUnitID:     unit.ID,
			EffectiveFrom: now,
			User:          user,
		}
		return tx.Assignments().Create(ctx, assignment)
	})
	if err != nil {
		return nil, rejected(s.logger, "assign", err)
	}
	return assignment, nil
}

func (s *assignmentService) End(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if err := requireAdmin(actor); err != nil {
		return rejected(s.logger, "end_assignment", err)
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		assignment, err := tx.Assignments().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireTenant(actor, assignment.TenantID); err != nil {
			return err
		}
		return tx.Assignments().End(ctx, id, s.now().UTC())
	})
	if err != nil {
		return rejected(s.logger, "end_assignment", err)
	}
	return nil
}

func (s *assignmentService) ListCurrent(ctx context.Context, actor domain.Actor, orgUnitID uuid.UUID) ([]domain.UserAssignment, error) {
	unit, err := s.store.OrgUnits().GetByID(ctx, orgUnitID)
	if err != nil {
		return nil, err
	}
	if err := requireTenant(actor, unit.TenantID); err != nil {
		return nil, err
	}
	return s.store.Assignments().ListCurrentByOrgUnit(ctx, unit.ID)
}
