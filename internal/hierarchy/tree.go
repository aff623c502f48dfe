package hierarchy

import (
	"github.com/google/uuid"

	"github.com/kpi-hierarchy-api/internal/domain"
)

// Adjacency - индекс parentID -> дочерние ID, строится один раз на проверку
type Adjacency map[uuid.UUID][]uuid.UUID

// BuildAdjacency строит индекс детей по списку подразделений
func BuildAdjacency(units []domain.OrgUnit) Adjacency {
	adj := make(Adjacency, len(units))
	for _, u := range units {
		if u.ParentID == nil {
			continue
		}
		adj[*u.ParentID] = append(adj[*u.ParentID], u.ID)
	}
	return adj
}

// Descendants возвращает множество всех потомков узла. Обход идёт по явному
// стеку; множество посещённых гарантирует завершение даже на испорченных
// данных с циклами. Сам узел в результат не входит.
func (adj Adjacency) Descendants(id uuid.UUID) map[uuid.UUID]struct{} {
	visited := make(map[uuid.UUID]struct{})
	stack := append([]uuid.UUID(nil), adj[id]...)

	for len(stack) > 0 {
		n := len(stack) - 1
		current := stack[n]
		stack = stack[:n]

		if current == id {
			continue
		}
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}
		stack = append(stack, adj[current]...)
	}

	return visited
}

// IsDescendant сообщает, находится ли candidate в поддереве id
func (adj Adjacency) IsDescendant(id, candidate uuid.UUID) bool {
	_, ok := adj.Descendants(id)[candidate]
	return ok
}

// CheckReparent проверяет перенос подразделения unitID под newParentID
// на самоссылку и цикл
func CheckReparent(adj Adjacency, unitID, newParentID uuid.UUID) error {
	if unitID == newParentID {
		return domain.ErrSelfParent
	}
	if adj.IsDescendant(unitID, newParentID) {
		return domain.ErrCircularReference
	}
	return nil
}

// CheckLevelOrder - родитель должен стоять строго выше по иерархии
func CheckLevelOrder(parent, child *domain.LevelDefinition) error {
	if parent.HierarchyLevel >= child.HierarchyLevel {
		return domain.ErrParentLevelOrder
	}
	return nil
}

// Depth возвращает длину цепочки родителей узла и false, если цепочка
// зациклена или ссылается на отсутствующий узел
func Depth(units map[uuid.UUID]*domain.OrgUnit, id uuid.UUID) (int, bool) {
	visited := make(map[uuid.UUID]struct{})
	depth := 0
	current, ok := units[id]
	if !ok {
		return 0, false
	}

	for current.ParentID != nil {
		if _, seen := visited[current.ID]; seen {
			return depth, false
		}
		visited[current.ID] = struct{}{}

		parent, ok := units[*current.ParentID]
		if !ok {
			return depth, false
		}
		depth++
		current = parent
	}

	return depth, true
}
