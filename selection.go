package plasticity

import (
	"sync"

	"github.com/shaunstanislauslau/plasticity/geom"
)

// Selection is the set of currently selected items.
type Selection struct {
	mu       sync.Mutex
	selected map[geom.Version]struct{}
}

type SelectionMemento struct {
	selected map[geom.Version]struct{}
}

func NewSelection() *Selection {
	return &Selection{selected: make(map[geom.Version]struct{})}
}

func (s *Selection) Add(v geom.Version) {
	s.mu.Lock()
	s.selected[v] = struct{}{}
	s.mu.Unlock()
}

func (s *Selection) Remove(v geom.Version) {
	s.mu.Lock()
	delete(s.selected, v)
	s.mu.Unlock()
}

func (s *Selection) Toggle(v geom.Version) (selected bool) {
	s.mu.Lock()
	if _, ok := s.selected[v]; ok {
		delete(s.selected, v)
	} else {
		s.selected[v] = struct{}{}
		selected = true
	}
	s.mu.Unlock()
	return
}

func (s *Selection) Clear() {
	s.mu.Lock()
	s.selected = make(map[geom.Version]struct{})
	s.mu.Unlock()
}

func (s *Selection) Has(v geom.Version) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[v]
	return ok
}

func (s *Selection) List() []geom.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]geom.Version, 0, len(s.selected))
	for v := range s.selected {
		out = append(out, v)
	}
	return out
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selected)
}

func (s *Selection) Snapshot() *SelectionMemento {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &SelectionMemento{selected: make(map[geom.Version]struct{}, len(s.selected))}
	for v := range s.selected {
		m.selected[v] = struct{}{}
	}
	return m
}

func (s *Selection) restore(m *SelectionMemento) {
	s.mu.Lock()
	s.selected = make(map[geom.Version]struct{}, len(m.selected))
	for v := range m.selected {
		s.selected[v] = struct{}{}
	}
	s.mu.Unlock()
}
