package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
)

func TestCreate_DerivesCodeAndSortOrder(t *testing.T) {
	f := newFixture(t)

	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	require.Equal(t, "ACME_CORP", org.Code)
	require.Equal(t, 10, org.SortOrder)
	require.True(t, org.IsActive)
	require.Nil(t, org.EffectiveTo)
	require.NotNil(t, org.Level)
	require.Equal(t, domain.OrganizationLevelCode, org.Level.Code)

	sales := f.create("DIVISION", "Sales", org)
	support := f.create("DIVISION", "Support", org)
	require.Equal(t, 10, sales.SortOrder)
	require.Equal(t, 20, support.SortOrder)
	require.Equal(t, org.ID, *sales.ParentID)
	require.NotNil(t, sales.Parent)
	require.Equal(t, "ACME_CORP", sales.Parent.Code)

	long := f.create("DIVISION", "International Business Machines", org)
	require.Equal(t, "INTERNATIONAL_BUSINE", long.Code)
}

func TestCreate_DuplicateDerivedCode(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	f.create("DIVISION", "Sales", org)

	_, err := f.tryCreate("DIVISION", " sales ", org)
	require.ErrorIs(t, err, domain.ErrDuplicateCode)
	require.Contains(t, err.Error(), "already exists at this level")

	// Тот же код на другом уровне допустим
	division := f.create("DIVISION", "Operations", org)
	dept := f.create("DEPARTMENT", "Sales", division)
	require.Equal(t, "SALES", dept.Code)
}

func TestCreate_CodeReusableAfterDeactivation(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	first := f.create("DIVISION", "Sales", org)

	require.NoError(t, f.orgUnits.Delete(f.ctx, f.admin, first.ID))

	second := f.create("DIVISION", "Sales", org)
	require.Equal(t, "SALES", second.Code)
	require.NotEqual(t, first.ID, second.ID)
}

func TestCreate_ExplicitCode(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	unit, err := f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level["DIVISION"].ID,
		Name:              "Finance",
		Code:              ptr("FIN"),
		ParentID:          &org.ID,
		Description:       "  money  ",
		Metadata:          map[string]any{"cost_center": "CC-100"},
	})
	require.NoError(t, err)
	require.Equal(t, "FIN", unit.Code)
	require.Equal(t, "money", unit.Description)
	require.Equal(t, "CC-100", unit.Metadata["cost_center"])

	_, err = f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level["DIVISION"].ID,
		Name:              "Legal",
		Code:              ptr("legal"),
		ParentID:          &org.ID,
	})
	require.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestCreate_ParentMustBeHigherLevel(t *testing.T) {
	f := newFixture(t)
	org, division, _, team := f.tree()

	_, err := f.tryCreate("DEPARTMENT", "Planning", team)
	require.ErrorIs(t, err, domain.ErrParentLevelOrder)
	require.EqualError(t, err, "Parent must be at a higher organizational level")

	_, err = f.tryCreate("DIVISION", "Marketing", division)
	require.ErrorIs(t, err, domain.ErrParentLevelOrder)

	_, err = f.tryCreate(domain.OrganizationLevelCode, "Globex", org)
	require.ErrorIs(t, err, domain.ErrOrganizationHasParent)
}

func TestCreate_ParentChecks(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	missing := &domain.OrgUnit{ID: uuid.New()}
	_, err := f.tryCreate("DIVISION", "Sales", missing)
	require.ErrorIs(t, err, domain.ErrOrgUnitNotFound)

	closed := f.create("DIVISION", "Closed", org)
	require.NoError(t, f.orgUnits.Delete(f.ctx, f.admin, closed.ID))
	_, err = f.tryCreate("DEPARTMENT", "Archive", closed)
	require.ErrorIs(t, err, domain.ErrParentInactive)

	// Родитель из другого финансового года
	nextFY := f.seedFiscalYear(f.tenantID, false)
	nextOrgLevel := &domain.LevelDefinition{FiscalYearID: nextFY.ID, Code: domain.OrganizationLevelCode, Name: "Organization", IsEnabled: true}
	require.NoError(t, f.db.Create(nextOrgLevel).Error)
	nextOrg, err := f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      nextFY.ID,
		LevelDefinitionID: nextOrgLevel.ID,
		Name:              "Acme Corp",
	})
	require.NoError(t, err)

	_, err = f.tryCreate("DIVISION", "Sales", nextOrg)
	require.ErrorIs(t, err, domain.ErrParentFiscalYear)

	_, err = f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: nextOrgLevel.ID,
		Name:              "Globex",
	})
	require.ErrorIs(t, err, domain.ErrLevelFiscalYear)
}

func TestCreate_DisabledLevel(t *testing.T) {
	f := newFixture(t)
	_, _, department, _ := f.tree()

	_, err := f.levels.SetLevelEnabled(f.ctx, f.admin, f.level["TEAM"].ID, false)
	require.NoError(t, err)

	_, err = f.tryCreate("TEAM", "Day Shift", department)
	require.ErrorIs(t, err, domain.ErrLevelDisabled)
}

func TestCreate_Authorization(t *testing.T) {
	f := newFixture(t)
	req := &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level[domain.OrganizationLevelCode].ID,
		Name:              "Acme Corp",
	}

	_, err := f.orgUnits.Create(f.ctx, f.actor("VIEWER"), req)
	require.ErrorIs(t, err, domain.ErrRoleRequired)

	stranger := domain.Actor{UserID: uuid.New(), TenantID: uuid.New(), Roles: []string{domain.RoleOrganizationAdmin}}
	_, err = f.orgUnits.Create(f.ctx, stranger, req)
	require.ErrorIs(t, err, domain.ErrTenantMismatch)

	root := domain.Actor{UserID: uuid.New(), TenantID: uuid.New(), Roles: []string{domain.RoleSuperAdmin}}
	unit, err := f.orgUnits.Create(f.ctx, root, req)
	require.NoError(t, err)
	require.Equal(t, f.tenantID, unit.TenantID)
}

func TestCreate_WithChampions(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	unit, err := f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level["DIVISION"].ID,
		Name:              "Sales",
		ParentID:          &org.ID,
		ChampionUserIDs:   []uuid.UUID{f.users[0].ID, f.users[0].ID, f.users[1].ID},
	})
	require.NoError(t, err)
	require.Len(t, unit.Champions, 2)
	for _, c := range unit.Champions {
		require.Equal(t, f.admin.UserID.String(), c.AssignedBy)
		require.False(t, c.AssignedAt.IsZero())
		require.NotNil(t, c.User)
	}
}

func TestCreate_ForeignChampionRollsBack(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	_, err := f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level["DIVISION"].ID,
		Name:              "Sales",
		ParentID:          &org.ID,
		ChampionUserIDs:   []uuid.UUID{f.users[0].ID, f.outsider.ID},
	})
	require.ErrorIs(t, err, domain.ErrChampionsNotFound)
	require.EqualError(t, err, "1 of 2 champion users not found in this organization")

	units, err := f.orgUnits.List(f.ctx, f.admin, &dto.ListOrgUnitsQuery{LevelCode: "DIVISION"})
	require.NoError(t, err)
	require.Empty(t, units)
}

func TestUpdate_Fields(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	sales := f.create("DIVISION", "Sales", org)

	updated, err := f.orgUnits.Update(f.ctx, f.admin, sales.ID, &dto.UpdateOrgUnitRequest{
		Name:        ptr("Global Sales"),
		Code:        ptr("GS"),
		Description: ptr("worldwide"),
		SortOrder:   ptr(0),
		Metadata:    map[string]any{"region": "EMEA"},
	})
	require.NoError(t, err)
	require.Equal(t, "Global Sales", updated.Name)
	require.Equal(t, "GS", updated.Code)
	require.Equal(t, "worldwide", updated.Description)
	require.Equal(t, 0, updated.SortOrder)
	require.Equal(t, "EMEA", updated.Metadata["region"])
	require.Equal(t, org.ID, *updated.ParentID)
}

func TestUpdate_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	f.create("DIVISION", "Sales", org)
	support := f.create("DIVISION", "Support", org)

	_, err := f.orgUnits.Update(f.ctx, f.admin, support.ID, &dto.UpdateOrgUnitRequest{Code: ptr("SUP")})
	require.NoError(t, err)

	other := f.create("DIVISION", "Service", org)
	_, err = f.orgUnits.Update(f.ctx, f.admin, other.ID, &dto.UpdateOrgUnitRequest{Code: ptr("SUP")})
	require.ErrorIs(t, err, domain.ErrDuplicateCode)

	_, err = f.orgUnits.Update(f.ctx, f.admin, other.ID, &dto.UpdateOrgUnitRequest{Code: ptr("s")})
	require.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestUpdate_ReparentCycleGuard(t *testing.T) {
	f := newFixture(t)
	a := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	b := f.create("DIVISION", "Operations", a)
	c := f.create("DEPARTMENT", "Logistics", b)

	_, err := f.orgUnits.Update(f.ctx, f.admin, a.ID, &dto.UpdateOrgUnitRequest{ParentID: &c.ID})
	require.ErrorIs(t, err, domain.ErrCircularReference)

	_, err = f.orgUnits.Update(f.ctx, f.admin, a.ID, &dto.UpdateOrgUnitRequest{ParentID: &a.ID})
	require.ErrorIs(t, err, domain.ErrSelfParent)

	_, err = f.orgUnits.Update(f.ctx, f.admin, b.ID, &dto.UpdateOrgUnitRequest{ParentID: &c.ID})
	require.ErrorIs(t, err, domain.ErrCircularReference)

	unchanged, err := f.orgUnits.GetByID(f.ctx, f.admin, a.ID)
	require.NoError(t, err)
	require.Nil(t, unchanged.ParentID)
}

func TestUpdate_Reparent(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	north := f.create("DIVISION", "North", org)
	south := f.create("DIVISION", "South", org)
	depot := f.create("DEPARTMENT", "Depot", north)

	moved, err := f.orgUnits.Update(f.ctx, f.admin, depot.ID, &dto.UpdateOrgUnitRequest{ParentID: &south.ID})
	require.NoError(t, err)
	require.Equal(t, south.ID, *moved.ParentID)
	require.Equal(t, "SOUTH", moved.Parent.Code)

	southView, err := f.orgUnits.GetByID(f.ctx, f.admin, south.ID)
	require.NoError(t, err)
	require.Len(t, southView.Children, 1)
	require.Equal(t, depot.ID, southView.Children[0].ID)

	// Дивизион не может уйти под отдел
	_, err = f.orgUnits.Update(f.ctx, f.admin, north.ID, &dto.UpdateOrgUnitRequest{ParentID: &depot.ID})
	require.ErrorIs(t, err, domain.ErrParentLevelOrder)

	detached, err := f.orgUnits.Update(f.ctx, f.admin, north.ID, &dto.UpdateOrgUnitRequest{ClearParent: true})
	require.NoError(t, err)
	require.Nil(t, detached.ParentID)

	_, err = f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{ParentID: &north.ID})
	require.ErrorIs(t, err, domain.ErrOrganizationHasParent)
}

func TestUpdate_LevelChange(t *testing.T) {
	f := newFixture(t)
	org, division, department, _ := f.tree()

	_, err := f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{LevelDefinitionID: &f.level["DIVISION"].ID})
	require.ErrorIs(t, err, domain.ErrOrganizationRelevel)

	_, err = f.orgUnits.Update(f.ctx, f.admin, division.ID, &dto.UpdateOrgUnitRequest{LevelDefinitionID: &f.level["TEAM"].ID})
	require.ErrorIs(t, err, domain.ErrChildLevelOrder)

	_, err = f.orgUnits.Update(f.ctx, f.admin, department.ID, &dto.UpdateOrgUnitRequest{LevelDefinitionID: &f.level["DIVISION"].ID})
	require.ErrorIs(t, err, domain.ErrParentLevelOrder)

	// Отдел без детей можно опустить до команды под тем же родителем
	spare := f.create("DEPARTMENT", "Spare", division)
	moved, err := f.orgUnits.Update(f.ctx, f.admin, spare.ID, &dto.UpdateOrgUnitRequest{LevelDefinitionID: &f.level["TEAM"].ID})
	require.NoError(t, err)
	require.Equal(t, "TEAM", moved.Level.Code)
}

func TestUpdate_ChampionReplacement(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	unit, err := f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{
		ChampionUserIDs: []uuid.UUID{f.users[0].ID, f.users[1].ID},
	})
	require.NoError(t, err)
	require.Len(t, unit.Champions, 2)

	unit, err = f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{Name: ptr("Acme Inc")})
	require.NoError(t, err)
	require.Len(t, unit.Champions, 2, "nil list keeps champions")

	unit, err = f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{
		ChampionUserIDs: []uuid.UUID{f.users[2].ID},
	})
	require.NoError(t, err)
	require.Len(t, unit.Champions, 1)
	require.Equal(t, f.users[2].ID, unit.Champions[0].UserID)

	_, err = f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{
		Name:            ptr("Renamed"),
		ChampionUserIDs: []uuid.UUID{f.outsider.ID},
	})
	require.ErrorIs(t, err, domain.ErrChampionsNotFound)

	unit, err = f.orgUnits.GetByID(f.ctx, f.admin, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Inc", unit.Name)
	require.Len(t, unit.Champions, 1)

	unit, err = f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{ChampionUserIDs: []uuid.UUID{}})
	require.NoError(t, err)
	require.Empty(t, unit.Champions)
}

func TestDelete_Guards(t *testing.T) {
	f := newFixture(t)
	org, _, department, team := f.tree()

	err := f.orgUnits.Delete(f.ctx, f.admin, department.ID)
	require.ErrorIs(t, err, domain.ErrHasActiveChildren)

	require.NoError(t, f.orgUnits.Delete(f.ctx, f.admin, team.ID))
	require.NoError(t, f.orgUnits.Delete(f.ctx, f.admin, department.ID))

	deleted, err := f.orgUnits.GetByID(f.ctx, f.admin, department.ID)
	require.NoError(t, err)
	require.False(t, deleted.IsActive)
	require.NotNil(t, deleted.EffectiveTo)

	require.ErrorIs(t, f.orgUnits.Delete(f.ctx, f.admin, department.ID), domain.ErrUnitInactive)
	require.ErrorIs(t, f.orgUnits.Delete(f.ctx, f.admin, org.ID), domain.ErrDeleteOrganization)
	require.ErrorIs(t, f.orgUnits.Delete(f.ctx, f.admin, uuid.New()), domain.ErrOrgUnitNotFound)
}

func TestDelete_ActiveAssignment(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	sales := f.create("DIVISION", "Sales", org)

	assignment, err := f.assignments.Assign(f.ctx, f.admin, sales.ID, &dto.CreateAssignmentRequest{UserID: f.users[0].ID})
	require.NoError(t, err)

	require.ErrorIs(t, f.orgUnits.Delete(f.ctx, f.admin, sales.ID), domain.ErrHasActiveAssignments)

	require.NoError(t, f.assignments.End(f.ctx, f.admin, assignment.ID))
	require.NoError(t, f.orgUnits.Delete(f.ctx, f.admin, sales.ID))
}

func TestMutations_LockedAfterConfirmation(t *testing.T) {
	f := newFixture(t)
	org, division, _, team := f.tree()

	_, err := f.confirmations.Confirm(f.ctx, f.admin, f.fy.ID, domain.ConfirmOrgStructure)
	require.NoError(t, err)

	_, err = f.tryCreate("DIVISION", "Sales", org)
	require.ErrorIs(t, err, domain.ErrStructureLocked)

	_, err = f.orgUnits.Update(f.ctx, f.admin, division.ID, &dto.UpdateOrgUnitRequest{Name: ptr("Ops")})
	require.ErrorIs(t, err, domain.ErrStructureLocked)

	err = f.orgUnits.Delete(f.ctx, f.admin, team.ID)
	require.ErrorIs(t, err, domain.ErrStructureLocked)

	// Чтение по-прежнему доступно
	_, err = f.orgUnits.GetByID(f.ctx, f.admin, team.ID)
	require.NoError(t, err)
}

func TestMutations_ArchivedFiscalYear(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(f.fy).Update("status", domain.FiscalYearArchived).Error)

	_, err := f.tryCreate(domain.OrganizationLevelCode, "Acme Corp", nil)
	require.ErrorIs(t, err, domain.ErrFiscalYearArchived)
}

func TestGetByID_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	stranger := domain.Actor{UserID: uuid.New(), TenantID: uuid.New()}
	_, err := f.orgUnits.GetByID(f.ctx, stranger, org.ID)
	require.ErrorIs(t, err, domain.ErrTenantMismatch)

	viewer := f.actor()
	unit, err := f.orgUnits.GetByID(f.ctx, viewer, org.ID)
	require.NoError(t, err)
	require.Equal(t, org.ID, unit.ID)
}

func TestList_FiltersAndOrdering(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)
	zeta := f.create("DIVISION", "Zeta", org)
	alpha := f.create("DIVISION", "Alpha", org)
	dept := f.create("DEPARTMENT", "Depot", zeta)
	closed := f.create("DEPARTMENT", "Closed", alpha)
	require.NoError(t, f.orgUnits.Delete(f.ctx, f.admin, closed.ID))

	units, err := f.orgUnits.List(f.ctx, f.admin, &dto.ListOrgUnitsQuery{})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{org.ID, zeta.ID, alpha.ID, dept.ID}, ids(units))

	units, err = f.orgUnits.List(f.ctx, f.admin, &dto.ListOrgUnitsQuery{LevelCode: "division"})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{zeta.ID, alpha.ID}, ids(units))

	units, err = f.orgUnits.List(f.ctx, f.admin, &dto.ListOrgUnitsQuery{ParentID: &alpha.ID, IncludeInactive: true})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{closed.ID}, ids(units))

	units, err = f.orgUnits.List(f.ctx, f.admin, &dto.ListOrgUnitsQuery{FiscalYearID: &f.fy.ID, IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, units, 5)

	stranger := domain.Actor{UserID: uuid.New(), TenantID: uuid.New()}
	_, err = f.orgUnits.List(f.ctx, stranger, &dto.ListOrgUnitsQuery{FiscalYearID: &f.fy.ID})
	require.ErrorIs(t, err, domain.ErrTenantMismatch)

	units, err = f.orgUnits.List(f.ctx, stranger, &dto.ListOrgUnitsQuery{})
	require.NoError(t, err)
	require.Empty(t, units)
}

func ids(units []domain.OrgUnit) []uuid.UUID {
	result := make([]uuid.UUID, len(units))
	for i, u := range units {
		result[i] = u.ID
	}
	return result
}

func TestCreate_RejectsBlankName(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	_, err := f.tryCreate("DIVISION", "   ", org)
	require.ErrorIs(t, err, domain.ErrBlankName)

	_, err = f.tryCreate("DIVISION", "!!!", org)
	require.ErrorIs(t, err, domain.ErrCodeNotDerivable)

	unit, err := f.orgUnits.Create(f.ctx, f.admin, &dto.CreateOrgUnitRequest{
		FiscalYearID:      f.fy.ID,
		LevelDefinitionID: f.level["DIVISION"].ID,
		Name:              "!!!",
		Code:              ptr("EXC"),
		ParentID:          &org.ID,
	})
	require.NoError(t, err)
	require.Equal(t, "EXC", unit.Code)

	units, err := f.orgUnits.List(f.ctx, f.admin, &dto.ListOrgUnitsQuery{LevelCode: "DIVISION"})
	require.NoError(t, err)
	require.Len(t, units, 1)
}

func TestUpdate_RejectsBlankName(t *testing.T) {
	f := newFixture(t)
	org := f.create(domain.OrganizationLevelCode, "Acme Corp", nil)

	_, err := f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{Name: ptr("   ")})
	require.ErrorIs(t, err, domain.ErrBlankName)

	unit, err := f.orgUnits.GetByID(f.ctx, f.admin, org.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", unit.Name)

	unit, err = f.orgUnits.Update(f.ctx, f.admin, org.ID, &dto.UpdateOrgUnitRequest{Name: ptr("  Acme Group ")})
	require.NoError(t, err)
	require.Equal(t, "Acme Group", unit.Name)
}
