package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/repository"
)

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrRoleRequired
	}
	return nil
}

func requireTenant(actor domain.Actor, tenantID uuid.UUID) error {
	if !actor.CanAccessTenant(tenantID) {
		return domain.ErrTenantMismatch
	}
	return nil
}

// fiscalYearFor загружает финансовый год и проверяет доступ арендатора
func fiscalYearFor(ctx context.Context, store repository.Store, actor domain.Actor, id uuid.UUID) (*domain.FiscalYear, error) {
	fy, err := store.FiscalYears().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireTenant(actor, fy.TenantID); err != nil {
		return nil, err
	}
	return fy, nil
}

// structureLocked сообщает, подтверждена ли структура подразделений года
func structureLocked(ctx context.Context, store repository.Store, fiscalYearID uuid.UUID) (bool, error) {
	return store.Confirmations().Exists(ctx, fiscalYearID, domain.ConfirmOrgStructure)
}

// writableFiscalYear возвращает год, дерево которого ещё можно менять
func writableFiscalYear(ctx context.Context, store repository.Store, actor domain.Actor, id uuid.UUID) (*domain.FiscalYear, error) {
	fy, err := fiscalYearFor(ctx, store, actor, id)
	if err != nil {
		return nil, err
	}
	if fy.Status == domain.FiscalYearArchived {
		return nil, domain.ErrFiscalYearArchived
	}
	locked, err := structureLocked(ctx, store, fy.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, domain.ErrStructureLocked
	}
	return fy, nil
}

func isNotFound(err error) bool {
	var domainErr *domain.Error
	return errors.As(err, &domainErr) && domainErr.Kind == domain.KindNotFound
}

// errorCode - код отказа для логов и меток метрик
func errorCode(err error) string {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "error"
}

// rejected логирует отказ в операции
func rejected(logger *slog.Logger, operation string, err error) error {
	code := errorCode(err)
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		if domainErr.Kind == domain.KindStorage {
			logger.Error("storage failure",
				slog.String("operation", operation),
				slog.String("code", code),
				slog.Any("error", err),
			)
		} else {
			logger.Info("operation rejected",
				slog.String("operation", operation),
				slog.String("code", code),
				slog.String("reason", domainErr.Message),
			)
		}
	} else {
		logger.Error("operation failed", slog.String("operation", operation), slog.Any("error", err))
	}
	return err
}
