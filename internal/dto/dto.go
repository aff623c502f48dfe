package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateOrgUnitRequest - запрос на создание подразделения.
// Если code не передан, он выводится из названия.
type CreateOrgUnitRequest struct {
	FiscalYearID      uuid.UUID      `json:"fiscal_year_id" validate:"required"`
	LevelDefinitionID uuid.UUID      `json:"level_definition_id" validate:"required"`
	Name              string         `json:"name" validate:"required,notblank,max=200"`
	Code              *string        `json:"code" validate:"omitempty,orgcode"`
	Description       string         `json:"description" validate:"max=2000"`
	ParentID          *uuid.UUID     `json:"parent_id"`
	Metadata          map[string]any `json:"metadata"`
	ChampionUserIDs   []uuid.UUID    `json:"champion_user_ids" validate:"max=100"`
}

// UpdateOrgUnitRequest - частичное обновление подразделения.
// ChampionUserIDs == nil оставляет чемпионов без изменений, любой другой
// список (в том числе пустой) полностью заменяет набор.
type UpdateOrgUnitRequest struct {
	Name              *string        `json:"name" validate:"omitempty,notblank,max=200"`
	Code              *string        `json:"code" validate:"omitempty,orgcode"`
	Description       *string        `json:"description" validate:"omitempty,max=2000"`
	LevelDefinitionID *uuid.UUID     `json:"level_definition_id"`
	ParentID          *uuid.UUID     `json:"parent_id"`
	ClearParent       bool           `json:"clear_parent" validate:"excluded_with=ParentID"`
	Metadata          map[string]any `json:"metadata"`
	SortOrder         *int           `json:"sort_order" validate:"omitempty,min=0"`
	ChampionUserIDs   []uuid.UUID    `json:"champion_user_ids" validate:"max=100"`
}

// ListOrgUnitsQuery - фильтры списка подразделений
type ListOrgUnitsQuery struct {
	LevelCode       string `validate:"omitempty,max=50"`
	ParentID        *uuid.UUID
	FiscalYearID    *uuid.UUID
	IncludeInactive bool
}

// ConfirmStructureRequest - запрос на подтверждение структуры года
type ConfirmStructureRequest struct {
	ConfirmationType string `json:"confirmation_type" validate:"required,oneof=org_structure performance_components"`
}

// UpdateLevelRequest - включение или отключение уровня
type UpdateLevelRequest struct {
	IsEnabled *bool `json:"is_enabled" validate:"required"`
}

// CreateAssignmentRequest - назначение пользователя в подразделение
type CreateAssignmentRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// LevelResponse - уровень иерархии
type LevelResponse struct {
	ID             uuid.UUID `json:"id"`
	FiscalYearID   uuid.UUID `json:"fiscal_year_id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	PluralName     string    `json:"plural_name"`
	HierarchyLevel int       `json:"hierarchy_level"`
	IsStandard     bool      `json:"is_standard"`
	IsEnabled      bool      `json:"is_enabled"`
	Icon           string    `json:"icon,omitempty"`
	Color          string    `json:"color,omitempty"`
}

// OrgUnitSummary - краткое описание родителя или ребёнка
type OrgUnitSummary struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
	Name string    `json:"name"`
}

// UserSummary - краткое описание пользователя
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// AssignmentResponse - назначение пользователя
type AssignmentResponse struct {
	ID            uuid.UUID    `json:"id"`
	OrgUnitID     uuid.UUID    `json:"org_unit_id"`
	UserID        uuid.UUID    `json:"user_id"`
	EffectiveFrom time.Time    `json:"effective_from"`
	EffectiveTo   *time.Time   `json:"effective_to,omitempty"`
	User          *UserSummary `json:"user,omitempty"`
}

// ChampionResponse - ответственный за KPI
type ChampionResponse struct {
	UserID     uuid.UUID    `json:"user_id"`
	AssignedBy string       `json:"assigned_by"`
	AssignedAt time.Time    `json:"assigned_at"`
	User       *UserSummary `json:"user,omitempty"`
}

// OrgUnitResponse - ответ с данными подразделения
type OrgUnitResponse struct {
	ID                uuid.UUID            `json:"id"`
	TenantID          uuid.UUID            `json:"tenant_id"`
	FiscalYearID      uuid.UUID            `json:"fiscal_year_id"`
	LevelDefinitionID uuid.UUID            `json:"level_definition_id"`
	Code              string               `json:"code"`
	Name              string               `json:"name"`
	Description       string               `json:"description,omitempty"`
	ParentID          *uuid.UUID           `json:"parent_id"`
	Metadata          map[string]any       `json:"metadata,omitempty"`
	SortOrder         int                  `json:"sort_order"`
	EffectiveFrom     time.Time            `json:"effective_from"`
	EffectiveTo       *time.Time           `json:"effective_to,omitempty"`
	IsActive          bool                 `json:"is_active"`
	Level             *LevelResponse       `json:"level,omitempty"`
	Parent            *OrgUnitSummary      `json:"parent,omitempty"`
	Children          []OrgUnitSummary     `json:"children"`
	Assignments       []AssignmentResponse `json:"assignments"`
	Champions         []ChampionResponse   `json:"champions"`
}

// ConfirmationResponse - отметка о подтверждении
type ConfirmationResponse struct {
	ID               uuid.UUID `json:"id"`
	FiscalYearID     uuid.UUID `json:"fiscal_year_id"`
	ConfirmationType string    `json:"confirmation_type"`
	ConfirmedAt      time.Time `json:"confirmed_at"`
	ConfirmedBy      uuid.UUID `json:"confirmed_by"`
}

// StructureStatusResponse - состояние подтверждений года
type StructureStatusResponse struct {
	FiscalYearID  uuid.UUID              `json:"fiscal_year_id"`
	Locked        bool                   `json:"locked"`
	Confirmations []ConfirmationResponse `json:"confirmations"`
}

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
