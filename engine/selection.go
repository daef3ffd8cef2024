package engine

import "sync"

// Selection tracks keys marked for bulk action. It only ever holds keys on
// the current page.
type Selection struct {
	mu       sync.RWMutex
	visible  []string
	onPage   map[string]struct{}
	selected map[string]struct{}
}

func NewSelection() *Selection {
	return &Selection{
		onPage:   make(map[string]struct{}),
		selected: make(map[string]struct{}),
	}
}

// Retain makes items the visible page and drops every selected key that is
// not on it.
func (s *Selection) Retain(items []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.visible = append(s.visible[:0:0], items...)
	s.onPage = make(map[string]struct{}, len(items))
	for _, k := range items {
		s.onPage[k] = struct{}{}
	}
	for k := range s.selected {
		if _, ok := s.onPage[k]; !ok {
			delete(s.selected, k)
		}
	}
}

// Toggle flips key and returns whether it is now selected. Keys that are not
// on the visible page are ignored.
func (s *Selection) Toggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.onPage[key]; !ok {
		return false
	}
	if _, ok := s.selected[key]; ok {
		delete(s.selected, key)
		return false
	}
	s.selected[key] = struct{}{}
	return true
}

// SelectAll selects exactly the visible page.
func (s *Selection) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.visible {
		s.selected[k] = struct{}{}
	}
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = make(map[string]struct{})
}

// Remove drops keys from both the selection and the visible page.
func (s *Selection) Remove(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.selected, k)
		delete(s.onPage, k)
	}
	kept := s.visible[:0]
	for _, k := range s.visible {
		if _, ok := s.onPage[k]; ok {
			kept = append(kept, k)
		}
	}
	s.visible = kept
}

func (s *Selection) IsSelected(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[key]
	return ok
}

func (s *Selection) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

// Keys returns the selected keys in page order.
func (s *Selection) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.selected))
	for _, k := range s.visible {
		if _, ok := s.selected[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// AllSelected is true when the page is non-empty and every key on it is
// selected.
func (s *Selection) AllSelected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.visible) == 0 {
		return false
	}
	for _, k := range s.visible {
		if _, ok := s.selected[k]; !ok {
			return false
		}
	}
	return true
}
