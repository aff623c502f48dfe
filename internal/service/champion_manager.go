package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/repository"
)

// ChampionManager ведёт набор ответственных за KPI подразделения.
// Частичного обновления нет: каждый вызов Replace заменяет набор целиком.
type ChampionManager interface {
	Validate(ctx context.Context, store repository.Store, tenantID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error)
	Replace(ctx context.Context, store repository.Store, orgUnitID, tenantID uuid.UUID, userIDs []uuid.UUID, assignedBy string) error
}

type championManager struct {
	now func() time.Time
}

// NewChampionManager создаёт новый экземпляр менеджера
func NewChampionManager() ChampionManager {
	return &championManager{now: time.Now}
}

// Validate убирает повторы и проверяет, что все пользователи принадлежат арендатору
func (m *championManager) Validate(ctx context.Context, store repository.Store, tenantID uuid.UUID, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	unique := dedupe(userIDs)
	if len(unique) == 0 {
		return unique, nil
	}

	found, err := store.Users().CountInTenant(ctx, tenantID, unique)
	if err != nil {
		return nil, err
	}
	if missing := int64(len(unique)) - found; missing > 0 {
		return nil, domain.ErrChampionsNotFound.Withf("%d of %d champion users not found in this organization", missing, len(unique))
	}
	return unique, nil
}

func (m *championManager) Replace(ctx context.Context, store repository.Store, orgUnitID, tenantID uuid.UUID, userIDs []uuid.UUID, assignedBy string) error {
	if assignedBy == "" {
		assignedBy = domain.SystemActor
	}

	return store.Transaction(ctx, func(tx repository.Store) error {
		unique, err := m.Validate(ctx, tx, tenantID, userIDs)
		if err != nil {
			return err
		}

		if err := tx.Champions().DeleteByOrgUnit(ctx, orgUnitID); err != nil {
			return err
		}

		now := m.now().UTC()
		champions := make([]domain.KpiChampion, len(unique))
		for i, userID := range unique {
			champions[i] = domain.KpiChampion{
				OrgUnitID:  orgUnitID,
				UserID:     userID,
				AssignedBy: assignedBy,
				AssignedAt: now,
			}
		}
		return tx.Champions().CreateBatch(ctx, champions)
	})
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
