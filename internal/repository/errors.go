package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/metrics"
)

// translateError переводит ошибки хранилища в доменные. Сырые ошибки
// драйвера наружу не выходят: код сохраняется только для диагностики.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		metrics.RecordWriteConflict("unique")
		return domain.NewStorageError("DUPLICATE_KEY", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		metrics.RecordWriteConflict("foreign_key")
		return domain.NewStorageError("FOREIGN_KEY", err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		metrics.RecordWriteConflict("check")
		return domain.NewStorageError("CHECK_CONSTRAINT", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		metrics.RecordWriteConflict("other")
		return domain.NewStorageError("PG_"+pgErr.Code, err)
	}

	return domain.NewStorageError("STORAGE", err)
}

// translateDuplicate подменяет нарушение уникальности конкретной
// бизнес-ошибкой, остальные ошибки переводит как обычно
func translateDuplicate(err error, duplicate *domain.Error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		metrics.RecordWriteConflict("unique")
		return &domain.Error{Kind: duplicate.Kind, Code: duplicate.Code, Message: duplicate.Message, Cause: err}
	}
	return translateError(err)
}

// notFound возвращает доменную ошибку для пустой выборки
func notFound(err error, missing *domain.Error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing
	}
	return translateError(err)
}
