package pyscan

// scopeKind distinguishes function and class scopes on the tracker stack.
type scopeKind int

const (
	scopeFunction scopeKind = iota
	scopeClass
)

type scopeEntry struct {
	kind scopeKind
	name string
}

// ScopeTracker maintains the function/class nesting stack during traversal.
// It is owned by the traversal driver and pushed/popped at definition
// boundaries; Current is a pure query.
type ScopeTracker struct {
	stack []scopeEntry
}

// Push records entry into a function or class definition.
func (s *ScopeTracker) Push(kind scopeKind, name string) {
	s.stack = append(s.stack, scopeEntry{kind: kind, name: name})
}

// Pop records exit from the innermost definition.
func (s *ScopeTracker) Pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
}

// Current reports whether the traversal is at module scope and the innermost
// enclosing function and class names. The two kinds are resolved
// independently, so a class nested inside a function reports both.
func (s *ScopeTracker) Current() (isModuleScope bool, function, class string) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		e := s.stack[i]
		if e.kind == scopeFunction && function == "" {
			function = e.name
		}
		if e.kind == scopeClass && class == "" {
			class = e.name
		}
	}
	return len(s.stack) == 0, function, class
}
