package listing

// Selection is an ordered set of selected row ids. The list is in
// selection mode while it is non-empty.
type Selection struct {
	ids []int
}

// Active reports whether selection mode is on.
func (s *Selection) Active() bool {
	return len(s.ids) > 0
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in the order they were selected.
func (s *Selection) IDs() []int {
	return append([]int(nil), s.ids...)
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int) bool {
	return s.index(id) >= 0
}

// Toggle adds or removes id.
func (s *Selection) Toggle(id int) {
	if i := s.index(id); i >= 0 {
		s.ids = append(s.ids[:i], s.ids[i+1:]...)
		return
	}
	s.ids = append(s.ids, id)
}

// Begin handles a long press. It does nothing unless allowed. Outside
// selection mode it starts a selection holding only id; inside it toggles id.
func (s *Selection) Begin(id int, allowed bool) {
	if !allowed {
		return
	}
	if !s.Active() {
		s.ids = []int{id}
		return
	}
	s.Toggle(id)
}

// Press handles a short press. In selection mode the press toggles id and
// is consumed; otherwise it returns false and the caller opens the row.
func (s *Selection) Press(id int) bool {
	if !s.Active() {
		return false
	}
	s.Toggle(id)
	return true
}

// SelectAll replaces the selection with ids, dropping duplicates.
func (s *Selection) SelectAll(ids []int) {
	s.ids = nil
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Clear leaves selection mode.
func (s *Selection) Clear() {
	s.ids = nil
}

// Retain drops selected ids that are not in present.
func (s *Selection) Retain(present []int) {
	keep := make(map[int]struct{}, len(present))
	for _, id := range present {
		keep[id] = struct{}{}
	}
	out := s.ids[:0]
	for _, id := range s.ids {
		if _, ok := keep[id]; ok {
			out = append(out, id)
		}
	}
	s.ids = out
}

func (s *Selection) index(id int) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}
