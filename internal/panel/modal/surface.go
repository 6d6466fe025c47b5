package modal

import "sync"

// MemorySurface is an in-process Surface: a minimal stand-in for the document
// the panel renders into. The HTTP surface uses it to track focus and scroll
// state; tests use it to assert the trap contract.
type MemorySurface struct {
	mu         sync.Mutex
	focusables []string
	active     string
	removed    map[string]bool
	scrolled   bool
}

// NewMemorySurface builds a surface whose dialog contains the given focusable
// elements, in tab order.
func NewMemorySurface(focusables ...string) *MemorySurface {
	return &MemorySurface{
		focusables: focusables,
		removed:    make(map[string]bool),
	}
}

func (s *MemorySurface) ActiveElement() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *MemorySurface) Focus(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.removed[id] {
		return
	}
	s.active = id
}

func (s *MemorySurface) Focusables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.focusables))
	for _, id := range s.focusables {
		if !s.removed[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s *MemorySurface) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.removed[id]
}

func (s *MemorySurface) SetScrollLocked(locked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolled = locked
}

// ScrollLocked reports whether page scroll is currently suppressed.
func (s *MemorySurface) ScrollLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolled
}

// Remove detaches an element, as when the node that had focus before the
// dialog opened is gone by the time it closes.
func (s *MemorySurface) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed[id] = true
	if s.active == id {
		s.active = ""
	}
}
