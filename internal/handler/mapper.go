package handler

import (
	"github.com/kpi-hierarchy-api/internal/domain"
	"github.com/kpi-hierarchy-api/internal/dto"
	"github.com/kpi-hierarchy-api/internal/service"
)

func toLevelResponse(level *domain.LevelDefinition) dto.LevelResponse {
	return dto.LevelResponse{
		ID:             level.ID,
		FiscalYearID:   level.FiscalYearID,
		Code:           level.Code,
		Name:           level.Name,
		PluralName:     level.PluralName,
		HierarchyLevel: level.HierarchyLevel,
		IsStandard:     level.IsStandard,
		IsEnabled:      level.IsEnabled,
		Icon:           level.Icon,
		Color:          level.Color,
	}
}

func toUserSummary(user *domain.User) *dto.UserSummary {
	if user == nil {
		return nil
	}
	return &dto.UserSummary{ID: user.ID, Email: user.Email, FullName: user.FullName}
}

func toAssignmentResponse(a *domain.UserAssignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:            a.ID,
		OrgUnitID:     a.OrgUnitID,
		UserID:        a.UserID,
		EffectiveFrom: a.EffectiveFrom,
		EffectiveTo:   a.EffectiveTo,
		User:          toUserSummary(a.User),
	}
}

func toOrgUnitResponse(unit *domain.OrgUnit) dto.OrgUnitResponse {
	resp := dto.OrgUnitResponse{
		ID:                unit.ID,
		TenantID:          unit.TenantID,
		FiscalYearID:      unit.FiscalYearID,
		LevelDefinitionID: unit.LevelDefinitionID,
		Code:              unit.Code,
		Name:              unit.Name,
		Description:       unit.Description,
		ParentID:          unit.ParentID,
		Metadata:          unit.Metadata,
		SortOrder:         unit.SortOrder,
		EffectiveFrom:     unit.EffectiveFrom,
		EffectiveTo:       unit.EffectiveTo,
		IsActive:          unit.IsActive,
		Children:          make([]dto.OrgUnitSummary, len(unit.Children)),
		Assignments:       make([]dto.AssignmentResponse, len(unit.Assignments)),
		Champions:         make([]dto.ChampionResponse, len(unit.Champions)),
	}

	if unit.Level != nil {
		level := toLevelResponse(unit.Level)
		resp.Level = &level
	}
	if unit.Parent != nil {
		resp.Parent = &dto.OrgUnitSummary{ID: unit.Parent.ID, Code: unit.Parent.Code, Name: unit.Parent.Name}
	}
	for i, child := range unit.Children {
		resp.Children[i] = dto.OrgUnitSummary{ID: child.ID, Code: child.Code, Name: child.Name}
	}
	for i := range unit.Assignments {
		resp.Assignments[i] = toAssignmentResponse(&unit.Assignments[i])
	}
	for i, champion := range unit.Champions {
		resp.Champions[i] = dto.ChampionResponse{
			UserID:     champion.UserID,
			AssignedBy: champion.AssignedBy,
			AssignedAt: champion.AssignedAt,
			User:       toUserSummary(champion.User),
		}
	}

	return resp
}

func toConfirmationResponse(c *domain.StructureConfirmation) dto.ConfirmationResponse {
	return dto.ConfirmationResponse{
		ID:               c.ID,
		FiscalYearID:     c.FiscalYearID,
		ConfirmationType: string(c.ConfirmationType),
		ConfirmedAt:      c.ConfirmedAt,
		ConfirmedBy:      c.ConfirmedBy,
	}
}

func toStatusResponse(status *service.StructureStatus) dto.StructureStatusResponse {
	resp := dto.StructureStatusResponse{
		FiscalYearID:  status.FiscalYearID,
		Locked:        status.Locked,
		Confirmations: make([]dto.ConfirmationResponse, len(status.Confirmations)),
	}
	for i := range status.Confirmations {
		resp.Confirmations[i] = toConfirmationResponse(&status.Confirmations[i])
	}
	return resp
}
