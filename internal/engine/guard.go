package engine

import "strings"

// guard is the set of propagation flags currently raised by an engine.
type guard uint8

const (
	// guardAdding is raised while the engine inserts into either collection.
	guardAdding guard = 1 << iota

	// guardRemoving is raised while the engine removes from either collection.
	guardRemoving
)

func (g guard) has(flag guard) bool {
	return g&flag != 0
}

func (g guard) String() string {
	if g == 0 {
		return "none"
	}
	var names []string
	if g.has(guardAdding) {
		names = append(names, "adding")
	}
	if g.has(guardRemoving) {
		names = append(names, "removing")
	}
	return strings.Join(names, "|")
}

// withGuard runs fn with flag raised and restores the previous flags on
// every exit path, panics included.
func (e *Engine) withGuard(flag guard, fn func()) {
	prev := e.guards
	e.guards |= flag
	defer func() { e.guards = prev }()
	fn()
}

// guarded reports whether flag is raised. Handlers call it on entry.
func (e *Engine) guarded(flag guard) bool {
	return e.guards.has(flag)
}
