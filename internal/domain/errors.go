package domain

import (
	"fmt"
)

// ErrorKind - класс ошибки, определяющий реакцию транспорта
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindStorage       ErrorKind = "storage"
)

// Error - типизированная бизнес-ошибка. Message показывается пользователю,
// Code используется для диагностики и сопоставления через errors.Is.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is сравнивает ошибки по коду, чтобы динамические сообщения
// совпадали с объявленными ниже эталонами
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NewNotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewAuthorizationError(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

func NewStorageError(code string, cause error) *Error {
	return &Error{Kind: KindStorage, Code: code, Message: "operation failed", Cause: cause}
}

// Определение бизнес-ошибок
var (
	ErrOrgUnitNotFound    = NewNotFoundError("ORG_UNIT_NOT_FOUND", "organizational unit not found")
	ErrLevelNotFound      = NewNotFoundError("LEVEL_NOT_FOUND", "level definition not found")
	ErrFiscalYearNotFound = NewNotFoundError("FISCAL_YEAR_NOT_FOUND", "fiscal year not found")
	ErrUserNotFound       = NewNotFoundError("USER_NOT_FOUND", "user not found")
	ErrAssignmentNotFound = NewNotFoundError("ASSIGNMENT_NOT_FOUND", "user assignment not found")

	ErrTenantMismatch = NewAuthorizationError("TENANT_MISMATCH", "access to this organization is forbidden")
	ErrRoleRequired   = NewAuthorizationError("ROLE_REQUIRED", "organization administrator role is required")

	ErrInvalidCode            = NewValidationError("ORG_UNIT_INVALID_CODE", "code must be 2 to 4 uppercase letters or digits")
	ErrBlankName              = NewValidationError("ORG_UNIT_BLANK_NAME", "name must not be blank")
	ErrCodeNotDerivable       = NewValidationError("ORG_UNIT_CODE_NOT_DERIVABLE", "cannot derive a code from this name, pass the code explicitly")
	ErrDuplicateCode          = NewValidationError("ORG_UNIT_DUPLICATE_CODE", "organizational unit with this code already exists at this level")
	ErrDuplicateOrgUnit       = NewValidationError("ORG_UNIT_DUPLICATE", "Duplicate organizational unit")
	ErrLevelFiscalYear        = NewValidationError("LEVEL_FISCAL_YEAR_MISMATCH", "level does not belong to this fiscal year")
	ErrLevelDisabled          = NewValidationError("LEVEL_DISABLED", "level is disabled")
	ErrParentInactive         = NewValidationError("PARENT_INACTIVE", "parent organizational unit is inactive")
	ErrParentFiscalYear       = NewValidationError("PARENT_FISCAL_YEAR_MISMATCH", "parent belongs to a different fiscal year")
	ErrParentLevelOrder       = NewValidationError("PARENT_LEVEL_ORDER", "Parent must be at a higher organizational level")
	ErrChildLevelOrder        = NewValidationError("CHILD_LEVEL_ORDER", "active child units must stay at a lower organizational level")
	ErrSelfParent             = NewValidationError("ORG_UNIT_SELF_PARENT", "organizational unit cannot be its own parent")
	ErrCircularReference      = NewValidationError("ORG_UNIT_CIRCULAR", "cannot move unit under its own descendant")
	ErrOrganizationHasParent  = NewValidationError("ORGANIZATION_HAS_PARENT", "organization unit cannot have a parent")
	ErrDeleteOrganization     = NewValidationError("ORGANIZATION_DELETE", "organization unit cannot be deleted")
	ErrHasActiveChildren      = NewValidationError("ORG_UNIT_HAS_CHILDREN", "cannot delete unit with active child units")
	ErrHasActiveAssignments   = NewValidationError("ORG_UNIT_HAS_ASSIGNMENTS", "cannot delete unit with active user assignments")
	ErrChampionsNotFound      = NewValidationError("CHAMPIONS_NOT_FOUND", "champion users not found in this organization")
	ErrStructureLocked        = NewValidationError("STRUCTURE_LOCKED", "organizational structure for this fiscal year is confirmed and locked")
	ErrFiscalYearArchived     = NewValidationError("FISCAL_YEAR_ARCHIVED", "fiscal year is archived")
	ErrAlreadyConfirmed       = NewValidationError("STRUCTURE_ALREADY_CONFIRMED", "structure is already confirmed for this fiscal year")
	ErrInvalidConfirmation    = NewValidationError("CONFIRMATION_INVALID_TYPE", "unknown confirmation type")
	ErrStructureIncomplete    = NewValidationError("STRUCTURE_INCOMPLETE", "organizational structure is not ready for confirmation")
	ErrOrganizationLevelFixed = NewValidationError("ORGANIZATION_LEVEL_FIXED", "organization level cannot be disabled")
	ErrOrganizationRelevel    = NewValidationError("ORGANIZATION_RELEVEL", "organization unit cannot change its level")
	ErrUnitInactive           = NewValidationError("ORG_UNIT_INACTIVE", "organizational unit is inactive")
	ErrAssignmentEnded        = NewValidationError("ASSIGNMENT_ENDED", "user assignment already ended")
)

// Withf возвращает копию ошибки с уточнённым сообщением, сохраняя код
func (e *Error) Withf(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...), Cause: e.Cause}
}
