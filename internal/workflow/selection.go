package workflow

import "go-catalog-admin/internal/repository"

// Selection is the category id set an operator picks while a drawer is open.
// It is owned by one workflow instance and is not safe for concurrent use on
// its own.
type Selection struct {
	ids     []uint
	touched bool
}

// NewSelection seeds a selection, e.g. from a stored product. Seeding does not
// count as a change by the operator.
func NewSelection(ids ...uint) *Selection {
	return &Selection{ids: repository.UniqueIDs(ids)}
}

// Set replaces the selection with ids and marks it as changed.
func (s *Selection) Set(ids []uint) {
	s.ids = repository.UniqueIDs(ids)
	s.touched = true
}

// IDs returns a sorted copy of the selected ids.
func (s *Selection) IDs() []uint {
	out := make([]uint, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *Selection) Len() int { return len(s.ids) }

func (s *Selection) Touched() bool { return s.touched }

func (s *Selection) Clear() {
	s.ids = nil
	s.touched = false
}
