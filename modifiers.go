package plasticity

import (
	"sync"

	"github.com/shaunstanislauslau/plasticity/geom"
)

// Modifier is one entry of an item's non-destructive modifier stack.
type Modifier struct {
	Name   string
	Target geom.Version
	Params map[string]float64
}

func (m Modifier) clone() Modifier {
	c := Modifier{Name: m.Name, Target: m.Target}
	if m.Params != nil {
		c.Params = make(map[string]float64, len(m.Params))
		for k, v := range m.Params {
			c.Params[k] = v
		}
	}
	return c
}

// ModifierStack is the ordered list of modifiers applied on top of
// authored geometry.
type ModifierStack struct {
	mu    sync.Mutex
	stack []Modifier
}

type ModifierMemento struct {
	stack []Modifier
}

func NewModifierStack() *ModifierStack {
	return &ModifierStack{}
}

func (s *ModifierStack) Push(m Modifier) {
	s.mu.Lock()
	s.stack = append(s.stack, m.clone())
	s.mu.Unlock()
}

func (s *ModifierStack) Pop() (Modifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return Modifier{}, false
	}
	m := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return m, true
}

// For lists the modifiers targeting one item, bottom-up.
func (s *ModifierStack) For(target geom.Version) []Modifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Modifier
	for _, m := range s.stack {
		if m.Target == target {
			out = append(out, m.clone())
		}
	}
	return out
}

func (s *ModifierStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

func (s *ModifierStack) Clear() {
	s.mu.Lock()
	s.stack = nil
	s.mu.Unlock()
}

func (s *ModifierStack) Snapshot() *ModifierMemento {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &ModifierMemento{stack: make([]Modifier, 0, len(s.stack))}
	for _, mod := range s.stack {
		m.stack = append(m.stack, mod.clone())
	}
	return m
}

func (s *ModifierStack) restore(m *ModifierMemento) {
	s.mu.Lock()
	s.stack = make([]Modifier, 0, len(m.stack))
	for _, mod := range m.stack {
		s.stack = append(s.stack, mod.clone())
	}
	s.mu.Unlock()
}
