package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Код обязательного корневого уровня иерархии
const OrganizationLevelCode = "ORGANIZATION"

// FiscalYearStatus - статус финансового года
type FiscalYearStatus string

const (
	FiscalYearDraft    FiscalYearStatus = "draft"
	FiscalYearActive   FiscalYearStatus = "active"
	FiscalYearLocked   FiscalYearStatus = "locked"
	FiscalYearArchived FiscalYearStatus = "archived"
)

// FiscalYear - финансовый год арендатора. Управляется внешним сервисом,
// здесь используется только для чтения.
type FiscalYear struct {
	ID        uuid.UUID        `json:"id" gorm:"primaryKey"`
	TenantID  uuid.UUID        `json:"tenant_id" gorm:"not null;index"`
	Name      string           `json:"name" gorm:"type:varchar(100);not null"`
	StartDate time.Time        `json:"start_date" gorm:"not null"`
	EndDate   time.Time        `json:"end_date" gorm:"not null"`
	Status    FiscalYearStatus `json:"status" gorm:"type:varchar(20);not null;default:draft"`
	IsCurrent bool             `json:"is_current" gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// TableName задаёт имя таблицы для GORM
func (FiscalYear) TableName() string {
	return "fiscal_years"
}

func (f *FiscalYear) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// LevelDefinition - ступень организационной иерархии в рамках финансового года.
// HierarchyLevel строго возрастает с глубиной: 0 - организация.
type LevelDefinition struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey"`
	FiscalYearID   uuid.UUID `json:"fiscal_year_id" gorm:"not null;uniqueIndex:idx_levels_fy_code;uniqueIndex:idx_levels_fy_depth"`
	Code           string    `json:"code" gorm:"type:varchar(50);not null;uniqueIndex:idx_levels_fy_code"`
	Name           string    `json:"name" gorm:"type:varchar(100);not null"`
	PluralName     string    `json:"plural_name" gorm:"type:varchar(100)"`
	HierarchyLevel int       `json:"hierarchy_level" gorm:"not null;uniqueIndex:idx_levels_fy_depth"`
	IsStandard     bool      `json:"is_standard" gorm:"not null;default:false"`
	IsEnabled      bool      `json:"is_enabled" gorm:"not null;default:true"`
	Icon           string    `json:"icon" gorm:"type:varchar(50)"`
	Color          string    `json:"color" gorm:"type:varchar(20)"`

	FiscalYear *FiscalYear `json:"-" gorm:"foreignKey:FiscalYearID"`
}

// TableName задаёт имя таблицы для GORM
func (LevelDefinition) TableName() string {
	return "level_definitions"
}

func (l *LevelDefinition) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsOrganization сообщает, является ли уровень корневым
func (l *LevelDefinition) IsOrganization() bool {
	return l.Code == OrganizationLevelCode
}

// OrgUnit - узел организационного дерева. Никогда не удаляется физически:
// мягкое удаление выставляет IsActive=false и EffectiveTo.
type OrgUnit struct {
	ID                uuid.UUID         `json:"id" gorm:"primaryKey"`
	TenantID          uuid.UUID         `json:"tenant_id" gorm:"not null;index;uniqueIndex:idx_org_units_active_code,where:is_active = true"`
	FiscalYearID      uuid.UUID         `json:"fiscal_year_id" gorm:"not null;index"`
	LevelDefinitionID uuid.UUID         `json:"level_definition_id" gorm:"not null;index;uniqueIndex:idx_org_units_active_code,where:is_active = true"`
	Code              string            `json:"code" gorm:"type:varchar(20);not null;uniqueIndex:idx_org_units_active_code,where:is_active = true"`
	Name              string            `json:"name" gorm:"type:varchar(200);not null"`
	Description       string            `json:"description" gorm:"type:text"`
	ParentID          *uuid.UUID        `json:"parent_id" gorm:"index"`
	Metadata          datatypes.JSONMap `json:"metadata"`
	SortOrder         int               `json:"sort_order" gorm:"not null;default:10"`
	EffectiveFrom     time.Time         `json:"effective_from" gorm:"not null"`
	EffectiveTo       *time.Time        `json:"effective_to"`
	IsActive          bool              `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt         time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time         `json:"updated_at" gorm:"autoUpdateTime"`

	Level       *LevelDefinition `json:"level,omitempty" gorm:"foreignKey:LevelDefinitionID"`
	Parent      *OrgUnit         `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Children    []OrgUnit        `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	Assignments []UserAssignment `json:"assignments,omitempty" gorm:"foreignKey:OrgUnitID"`
	Champions   []KpiChampion    `json:"champions,omitempty" gorm:"foreignKey:OrgUnitID"`
}

// TableName задаёт имя таблицы для GORM
func (OrgUnit) TableName() string {
	return "org_units"
}

func (u *OrgUnit) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// User - проекция пользователя из внешнего справочника
type User struct {
	ID       uuid.UUID `json:"id" gorm:"primaryKey"`
	TenantID uuid.UUID `json:"tenant_id" gorm:"not null;index"`
	Email    string    `json:"email" gorm:"type:varchar(255);not null"`
	FullName string    `json:"full_name" gorm:"type:varchar(200);not null"`
	IsActive bool      `json:"is_active" gorm:"not null;default:true"`
}

// TableName задаёт имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserAssignment - назначение пользователя в подразделение.
// EffectiveTo == nil означает текущее назначение.
type UserAssignment struct {
	ID            uuid.UUID  `json:"id" gorm:"primaryKey"`
	TenantID      uuid.UUID  `json:"tenant_id" gorm:"not null;index"`
	UserID        uuid.UUID  `json:"user_id" gorm:"not null;index"`
	OrgUnitID     uuid.UUID  `json:"org_unit_id" gorm:"not null;index"`
	EffectiveFrom time.Time  `json:"effective_from" gorm:"not null"`
	EffectiveTo   *time.Time `json:"effective_to"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName задаёт имя таблицы для GORM
func (UserAssignment) TableName() string {
	return "user_assignments"
}

func (a *UserAssignment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Отметка назначившего, когда действующий пользователь неизвестен
const SystemActor = "system"

// KpiChampion - ответственный за KPI подразделения
type KpiChampion struct {
	OrgUnitID  uuid.UUID `json:"org_unit_id" gorm:"primaryKey"`
	UserID     uuid.UUID `json:"user_id" gorm:"primaryKey"`
	AssignedBy string    `json:"assigned_by" gorm:"type:varchar(64);not null"`
	AssignedAt time.Time `json:"assigned_at" gorm:"not null"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName задаёт имя таблицы для GORM
func (KpiChampion) TableName() string {
	return "kpi_champions"
}

// ConfirmationType - вид подтверждения структуры
type ConfirmationType string

const (
	ConfirmOrgStructure          ConfirmationType = "org_structure"
	ConfirmPerformanceComponents ConfirmationType = "performance_components"
)

// Valid проверяет, что тип подтверждения известен
func (t ConfirmationType) Valid() bool {
	return t == ConfirmOrgStructure || t == ConfirmPerformanceComponents
}

// StructureConfirmation - отметка о проверке и блокировке структуры года.
// Наличие записи org_structure блокирует дерево подразделений года.
type StructureConfirmation struct {
	ID               uuid.UUID        `json:"id" gorm:"primaryKey"`
	TenantID         uuid.UUID        `json:"tenant_id" gorm:"not null;index"`
	FiscalYearID     uuid.UUID        `json:"fiscal_year_id" gorm:"not null;uniqueIndex:idx_confirmations_fy_type"`
	ConfirmationType ConfirmationType `json:"confirmation_type" gorm:"type:varchar(40);not null;uniqueIndex:idx_confirmations_fy_type"`
	ConfirmedAt      time.Time        `json:"confirmed_at" gorm:"not null"`
	ConfirmedBy      uuid.UUID        `json:"confirmed_by" gorm:"not null"`
}

// TableName задаёт имя таблицы для GORM
func (StructureConfirmation) TableName() string {
	return "structure_confirmations"
}

func (c *StructureConfirmation) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
