// Package selection holds the session's chosen inventory ids and resolves the
// display state of each item from selection, reservation, and proximity.
package selection

import "sort"

// Set is a set of inventory item ids. The zero value is an empty set ready to
// use. Set is owned by a single session and is not safe for concurrent use.
type Set struct {
	ids map[string]struct{}
}

// New returns a set containing ids.
func New(ids ...string) *Set {
	s := &Set{}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

func (s *Set) add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Contains reports whether id is selected.
func (s *Set) Contains(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// ContainsAll reports whether every id is selected. It is false for an empty list.
func (s *Set) ContainsAll(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Len returns the number of selected ids.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// Toggle adds id when absent and removes it when present.
func (s *Set) Toggle(id string) {
	if s.Contains(id) {
		delete(s.ids, id)
		return
	}
	s.add(id)
}

// ToggleGroup applies the all-or-none rule: when every id in the group is
// already selected they are all removed, otherwise they are all added. The
// decision uses the membership before any change.
func (s *Set) ToggleGroup(ids []string) {
	if len(ids) == 0 {
		return
	}
	if s.ContainsAll(ids) {
		for _, id := range ids {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range ids {
		s.add(id)
	}
}

// SelectAll replaces the selection with ids.
func (s *Set) SelectAll(ids []string) {
	s.ids = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.ids = nil
}

// IDs returns the selected ids sorted ascending.
func (s *Set) IDs() []string {
	out := make([]string, 0, s.Len())
	if s != nil {
		for id := range s.ids {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same ids.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s == nil {
		return true
	}
	for id := range s.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	return New(s.IDs()...)
}
