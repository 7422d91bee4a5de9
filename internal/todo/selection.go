package todo

import "sort"

// Selection is the set of task ids marked for bulk completion.
type Selection struct {
	ids map[int64]struct{}
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[int64]struct{})}
}

func (s *Selection) Toggle(id int64) bool {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

func (s *Selection) Clear() {
	s.ids = make(map[int64]struct{})
}

func (s *Selection) Has(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	return len(s.ids)
}

func (s *Selection) CanComplete() bool {
	return len(s.ids) > 0
}

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Selection) set() map[int64]struct{} {
	copied := make(map[int64]struct{}, len(s.ids))
	for id := range s.ids {
		copied[id] = struct{}{}
	}
	return copied
}
