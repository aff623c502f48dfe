package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/repository"
	"github.com/kpi-hierarchy-api/internal/service"
)

type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	store         repository.Store
	orgUnits      service.OrgUnitService
	levels        service.LevelService
	confirmations service.ConfirmationService
	assignments   service.AssignmentService

	tenantID uuid.UUID
	fy       *domain.FiscalYear
	level    map[string]*domain.LevelDefinition
	users    []*domain.User
	outsider *domain.User
	admin    domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,

		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&domain.FiscalYear{},
		&domain.LevelDefinition{},
		&domain.User{},
		&domain.OrgUnit{},
		&domain.UserAssignment{},
		&domain.KpiChampion{},
		&domain.StructureConfirmation{},
	))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewStore(db)

	f := &fixture{
		t:             t,
		ctx:           context.Background(),
		db:            db,
		store:         store,
		orgUnits:      service.NewOrgUnitService(store, service.NewChampionManager(), logger),
		levels:        service.NewLevelService(store, logger),
		confirmations: service.NewConfirmationService(store, logger),
		assignments:   service.NewAssignmentService(store, logger),
		tenantID:      uuid.New(),
		level:         make(map[string]*domain.LevelDefinition),
	}
	f.admin = domain.Actor{UserID: uuid.New(), TenantID: f.tenantID, Roles: []string{domain.RoleOrganizationAdmin}}

	f.fy = f.seedFiscalYear(f.tenantID, true)
	for depth, code := range []string{domain.OrganizationLevelCode, "DIVISION", "DEPARTMENT", "TEAM"} {
		level := &domain.LevelDefinition{
			FiscalYearID:   f.fy.ID,
			Code:           code,
			Name:           code,
			HierarchyLevel: depth,
			IsStandard:     true,
			IsEnabled:      true,
		}
		require.NoError(t, db.Create(level).Error)
		f.level[code] = level
	}

	for i := range 3 {
		user := &domain.User{TenantID: f.tenantID, Email: fmt.Sprintf("user%d@acme.test", i), FullName: fmt.Sprintf("User %d", i), IsActive: true}
		require.NoError(t, db.Create(user).Error)
		f.users = append(f.users, user)
	}
	f.outsider = &domain.User{TenantID: uuid.New(), Email: "other@globex.test", FullName: "Outsider", IsActive: true}
	require.NoError(t, db.Create(f.outsider).Error)

	return f
}

func (f *fixture) seedFiscalYear(tenantID uuid.UUID, current bool) *domain.FiscalYear {
	fy := &domain.FiscalYear{
		TenantID:  tenantID,
		Name:      "FY2026",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.FiscalYearActive,
		IsCurrent: current,
	}
	require.NoError(f.t, f.db.Create(fy).Error)
	return fy
}

// create создаёт подразделение и падает при ошибке
func (f *fixture) create(levelCode, name string, parent *domain.OrgUnit) *domain.OrgUnit {
	f.t.Helper()
	unit, err := f.tryCreate(levelCode, name, parent)
	require.NoError(f.t, err)
	return unit
}

func (f *fixture) tryCreate(levelCode, name string, parent *domain.OrgUnit) (*domain.OrgUnit, error) {
	req := &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level[levelCode].ID,
		Name:              name,
	}
	if parent != nil {
		req.ParentID = &parent.ID
	}
	return f.orgUnits.Create(f.ctx, f.admin, req)
}

// tree строит ORGANIZATION -> DIVISION -> DEPARTMENT -> TEAM
func (f *fixture) tree() (org, division, department, team *domain.OrgUnit) {
	org = f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	division = f.create("DIVISION", "Operations", org)
	department = f.create("DEPARTMENT", "Logistics", division)
	team = f.create("TEAM", "Night Shift", department)
	return org, division, department, team
}

func (f *fixture) actor(roles ...string) domain.Actor {
	return domain.Actor{UserID: uuid.New(), TenantID: f.tenantID, Roles: roles}
}

func ptr[T any](v T) *T {
	return &v
}
