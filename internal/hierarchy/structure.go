package hierarchy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// Problem - нарушение, мешающее подтвердить структуру
type Problem struct {
	UnitID  *uuid.UUID
	Message string
}

// CheckStructure проверяет готовность дерева года к подтверждению:
// есть включённый уровень, есть активные подразделения, нет висячих
// ссылок на родителя, нет циклов, глубина цепочки родителей меньше числа
// уровней, есть хотя бы один корень.
func CheckStructure(levels []domain.LevelDefinition, units []domain.OrgUnit) []Problem {
	var problems []Problem

	enabled := false
	for _, l := range levels {
		if l.IsEnabled {
			enabled = true
			break
		}
	}
	if !enabled {
		problems = append(problems, Problem{Message: "at least one enabled level is required"})
	}

	active := make(map[uuid.UUID]*domain.OrgUnit, len(units))
	for i := range units {
		if units[i].IsActive {
			active[units[i].ID] = &units[i]
		}
	}
	if len(active) == 0 {
		return append(problems, Problem{Message: "at least one active organizational unit is required"})
	}

	hasRoot := false
	for i := range units {
		u := &units[i]
		if !u.IsActive {
			continue
		}
		if u.ParentID == nil {
			hasRoot = true
			continue
		}
		if _, ok := active[*u.ParentID]; !ok {
			problems = append(problems, Problem{
				UnitID:  &u.ID,
				Message: fmt.Sprintf("unit %s references a missing or inactive parent", u.Code),
			})
			continue
		}
		if inCycle(active, u.ID) {
			problems = append(problems, Problem{
				UnitID:  &u.ID,
				Message: fmt.Sprintf("unit %s has a circular parent chain", u.Code),
			})
			continue
		}
		if depth, ok := Depth(active, u.ID); ok && depth >= len(levels) {
			problems = append(problems, Problem{
				UnitID:  &u.ID,
				Message: fmt.Sprintf("unit %s is nested deeper than the level registry allows", u.Code),
			})
		}
	}
	if !hasRoot {
		problems = append(problems, Problem{Message: "at least one root organizational unit is required"})
	}

	return problems
}

// inCycle сообщает, возвращается ли цепочка родителей узла сама в себя.
// Обрыв цепочки циклом не считается: он отмечается как висячая ссылка.
func inCycle(units map[uuid.UUID]*domain.OrgUnit, id uuid.UUID) bool {
	visited := make(map[uuid.UUID]struct{})
	current := units[id]
	for current != nil && current.ParentID != nil {
		if _, seen := visited[current.ID]; seen {
			return true
		}
		visited[current.ID] = struct{}{}
		current = units[*current.ParentID]
	}
	return false
}
