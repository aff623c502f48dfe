package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store объединяет репозитории, работающие поверх одного соединения или
// одной транзакции
type Store interface {
	FiscalYears() FiscalYearRepository
	Levels() LevelRepository
	OrgUnits() OrgUnitRepository
	Champions() ChampionRepository
	Confirmations() ConfirmationRepository
	Users() UserRepository
	Assignments() AssignmentRepository

	// Transaction выполняет fn атомарно: ошибка откатывает все изменения
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore создаёт хранилище поверх gorm
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FiscalYears() FiscalYearRepository     { return &fiscalYearRepository{db: s.db} }
func (s *gormStore) Levels() LevelRepository               { return &levelRepository{db: s.db} }
func (s *gormStore) OrgUnits() OrgUnitRepository           { return &orgUnitRepository{db: s.db} }
func (s *gormStore) Champions() ChampionRepository         { return &championRepository{db: s.db} }
func (s *gormStore) Confirmations() ConfirmationRepository { return &confirmationRepository{db: s.db} }
func (s *gormStore) Users() UserRepository                 { return &userRepository{db: s.db} }
func (s *gormStore) Assignments() AssignmentRepository     { return &assignmentRepository{db: s.db} }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	return translateError(err)
}
