package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/repository"
)

// LevelService - реестр уровней иерархии. Уровни создаются при настройке
// финансового года внешним сервисом, здесь их можно только читать и
// включать или отключать.
type LevelService interface {
	ListLevels(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID) ([]domain.LevelDefinition, error)
	GetLevel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.LevelDefinition, error)
	SetLevelEnabled(ctx context.Context, actor domain.Actor, id uuid.UUID, enabled bool) (*domain.LevelDefinition, error)
}

type levelService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewLevelService создаёт новый экземпляр сервиса
func NewLevelService(store repository.Store, logger *slog.Logger) LevelService {
	return &levelService{store: store, logger: logger}
}

func (s *levelService) ListLevels(ctx context.Context, actor domain.Actor, fiscalYearID uuid.UUID) ([]domain.LevelDefinition, error) {
	fy, err := fiscalYearFor(ctx, s.store, actor, fiscalYearID)
	if err != nil {
		return nil, err
	}
	return s.store.Levels().ListByFiscalYear(ctx, fy.ID)
}

func (s *levelService) GetLevel(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.LevelDefinition, error) {
	level, err := s.store.Levels().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := fiscalYearFor(ctx, s.store, actor, level.FiscalYearID); err != nil {
		return nil, err
	}
	return level, nil
}

func (s *levelService) SetLevelEnabled(ctx context.Context, actor domain.Actor, id uuid.UUID, enabled bool) (*domain.LevelDefinition, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, rejected(s.logger, "set_level_enabled", err)
	}

	var level *domain.LevelDefinition
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		level, err = tx.Levels().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := fiscalYearFor(ctx, tx, actor, level.FiscalYearID); err != nil {
			return err
		}
		if !enabled && level.IsOrganization() {
			return domain.ErrOrganizationLevelFixed
		}
		if level.IsEnabled == enabled {
			return nil
		}
		if err := tx.Levels().SetEnabled(ctx, id, enabled); err != nil {
			return err
		}
		level.IsEnabled = enabled
		return nil
	})
	if err != nil {
		return nil, rejected(s.logger, "set_level_enabled", err)
	}
	return level, nil
}
