package operation

// Local is per-entity operation state. Earlier designs shared one state
// slot across all entities visited in a pass, which silently corrupts
// anything entity-specific - here state is keyed by entity identity,
// created zero-valued on first visit and retired once the entity stops
// matching the owning operation.
type Local[S any] struct {
	states map[int]*S
}

func NewLocal[S any]() *Local[S] {
	return &Local[S]{states: make(map[int]*S)}
}

// Get returns the state for an entity, creating it on first visit.
func (l *Local[S]) Get(entity int) *S {
	if state, ok := l.states[entity]; ok {
		return state
	}
	state := new(S)
	l.states[entity] = state
	return state
}

func (l *Local[S]) Len() int {
	return len(l.states)
}

// Retain drops the state of every entity not in the alive set. Called
// by the driver after each pass.
func (l *Local[S]) Retain(alive map[int]bool) {
	for entity := range l.states {
		if !alive[entity] {
			delete(l.states, entity)
		}
	}
}
