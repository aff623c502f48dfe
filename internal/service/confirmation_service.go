package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/hierarchy"
	"github.com/kpi-hierarchy-api/internal/metrics"
	"github.com/kpi-hierarchy-api/internal/repository"
)

// StructureStatus - состояние подтверждений финансового года
type StructureStatus struct {
	FiscalYearID  uuid.UUID
	Locked        bool
	Confirmations []domain.StructureConfirmation
}

// ConfirmationService - машина состояний подтверждения структуры.
// Переходы: нет подтверждения -> org_structure; performance_components
// подтверждается независимо. Повторное подтверждение запрещено.
type ConfirmationService interface {
	Confirm(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID, confirmationType domain.ConfirmationType) (*domain.StructureConfirmation, error)
	Status(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID) (*StructureStatus, error)
	IsLocked(ctx context.Context, fiscalYearID uuid.UUID) (bool, error)
}

type confirmationService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewConfirmationService создаёт новый экземпляр сервиса
func NewConfirmationService(store repository.Store, logger *slog.Logger) ConfirmationService {
	return &confirmationService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (s *confirmationService) Confirm(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID, confirmationType domain.ConfirmationType) (*domain.StructureConfirmation, error) {
	confirmation, err := s.confirm(ctx, actor, fiscalYearID, confirmationType)
	if err != nil {
		metrics.RecordConfirmation(string(confirmationType), "rejected")
		return nil, rejected(s.logger, "confirm", err)
	}

	metrics.RecordConfirmation(string(confirmationType), "ok")
	s.logger.Info("structure confirmed",
		slog.String("fiscal_year_id", fiscalYearID.String()),
		slog.String("type", string(confirmationType)),
		slog.String("confirmed_by", actor.UserID.String()),
	)
	return confirmation, nil
}

func (s *confirmationService) confirm(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID, confirmationType domain.ConfirmationType) (*domain.StructureConfirmation, error) {
	if !confirmationType.Valid() {
		return nil, domain.ErrInvalidConfirmation
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var confirmation *domain.StructureConfirmation

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		fy, err := fiscalYearFor(ctx, tx, actor, fiscalYearID)
		if err != nil {
			return err
		}
		if fy.Status == domain.FiscalYearArchived {
			return domain.ErrFiscalYearArchived
		}

		exists, err := tx.Confirmations().Exists(ctx, fy.ID, confirmationType)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyConfirmed
		}

		if confirmationType == domain.ConfirmOrgStructure {
			if err := s.checkStructure(ctx, tx, fy); err != nil {
				return err
			}
		}

		confirmation = &domain.StructureConfirmation{
			TenantID:         fy.TenantID,
			FiscalYearID:     fy.ID,
			ConfirmationType: confirmationType,
			ConfirmedAt:      s.now().UTC(),
			ConfirmedBy:      actor.UserID,
		}
		return tx.Confirmations().Create(ctx, confirmation)
	})
	if err != nil {
		return nil, err
	}
	return confirmation, nil
}

func (s *confirmationService) checkStructure(ctx context.Context, tx repository.Store, fy *domain.FiscalYear) error {
	levels, err := tx.Levels().ListByFiscalYear(ctx, fy.ID)
	if err != nil {
		return err
	}
	units, err := tx.OrgUnits().ListByFiscalYear(ctx, fy.TenantID, fy.ID)
	if err != nil {
		return err
	}

	problems := hierarchy.CheckStructure(levels, units)
	if len(problems) == 0 {
		return nil
	}
	for _, p := range problems {
		s.logger.Warn("structure check failed",
			slog.String("fiscal_year_id", fy.ID.String()),
			slog.String("problem", p.Message),
		)
	}
	return domain.ErrStructureIncomplete.Withf("organizational structure is not ready for confirmation: %s", problems[0].Message)
}

func (s *confirmationService) Status(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID) (*StructureStatus, error) {
	fy, err := fiscalYearFor(ctx, s.store, actor, fiscalYearID)
	if err != nil {
		return nil, err
	}

	confirmations, err := s.store.Confirmations().ListByFiscalYear(ctx, fy.ID)
	if err != nil {
		return nil, err
	}

	status := &StructureStatus{FiscalYearID: fy.ID, Confirmations: confirmations}
	for _, c := range confirmations {
		if c.ConfirmationType == domain.ConfirmOrgStructure {
			status.Locked = true
		}
	}
	return status, nil
}

// IsLocked сообщает, заблокировано ли дерево подразделений года
func (s *confirmationService) IsLocked(ctx context.Context, fiscalYearID uuid.UUID) (bool, error) {
	return structureLocked(ctx, s.store, fiscalYearID)
}
