package access

import "fmt"

type Mode string

const (
	MODE_READ  Mode = "Read"
	MODE_WRITE Mode = "Write"
)

// Claim is a single component access claim of an operation.
type Claim struct {
	Component string
	Mode      Mode
}

// DataRequirement is the ordered list of component claims an operation
// needs fetched per entity. It carries access rights, unlike a
// FilterRequirement which is a pure existence test.
type DataRequirement struct {
	Claims []Claim
}

func NewData() DataRequirement {
	return DataRequirement{}
}

func (d DataRequirement) Read(component string) DataRequirement {
	return d.add(component, MODE_READ)
}

func (d DataRequirement) Write(component string) DataRequirement {
	return d.add(component, MODE_WRITE)
}

// add appends a claim, unifying duplicates on the same component. A read
// joining an existing write (or the other way around) keeps the write,
// the union of the mutable claims.
func (d DataRequirement) add(component string, mode Mode) DataRequirement {
	claims := make([]Claim, len(d.Claims), len(d.Claims)+1)
	copy(claims, d.Claims)
	for i := range claims {
		if claims[i].Component == component {
			if claims[i].Mode != mode {
				claims[i].Mode = MODE_WRITE
			}
			return DataRequirement{Claims: claims}
		}
	}
	return DataRequirement{Claims: append(claims, Claim{Component: component, Mode: mode})}
}

// Mode returns the claimed mode for a component, if any.
func (d DataRequirement) Mode(component string) (Mode, bool) {
	for _, cl := range d.Claims {
		if cl.Component == component {
			return cl.Mode, true
		}
	}
	return "", false
}

func (d DataRequirement) Empty() bool {
	return len(d.Claims) == 0
}

// Fuse unifies two data requirements under a single owner. Overlapping
// claims keep the union of the mutable access, so fusing never fails.
// This is only safe when the owner exposes the underlying views through
// a disjoint container, one at a time.
func Fuse(a DataRequirement, b DataRequirement) DataRequirement {
	fused := a
	for _, cl := range b.Claims {
		fused = fused.add(cl.Component, cl.Mode)
	}
	return fused
}

// Project derives the pure existence facts of a data requirement: every
// claim on a component, read or write, becomes a must-be-present term.
// The result carries no access rights, which is what allows folding one
// operation's eligibility into another operation's filter.
func Project(d DataRequirement) FilterRequirement {
	f := NewFilter()
	for _, cl := range d.Claims {
		f = f.With(cl.Component)
	}
	return f
}

// FilterRequirement is a conjunction of must-be-present / must-be-absent
// terms over component existence on an entity.
type FilterRequirement struct {
	Present []string
	Absent  []string
}

func NewFilter() FilterRequirement {
	return FilterRequirement{}
}

func (f FilterRequirement) With(component string) FilterRequirement {
	return FilterRequirement{Present: appendTerm(f.Present, component), Absent: f.Absent}
}

func (f FilterRequirement) Without(component string) FilterRequirement {
	return FilterRequirement{Present: f.Present, Absent: appendTerm(f.Absent, component)}
}

func (f FilterRequirement) Empty() bool {
	return len(f.Present) == 0 && len(f.Absent) == 0
}

// Satisfiable reports whether any entity could ever match. A component
// required both present and absent is a legal, if useless, state - it
// simply matches no entity.
func (f FilterRequirement) Satisfiable() bool {
	for _, term := range f.Present {
		for _, other := range f.Absent {
			if term == other {
				return false
			}
		}
	}
	return true
}

// And conjoins two filter requirements by deduplicated term union. This
// always succeeds, even if the result is unsatisfiable.
func And(a FilterRequirement, b FilterRequirement) FilterRequirement {
	merged := FilterRequirement{
		Present: appendTerm(nil, a.Present...),
		Absent:  appendTerm(nil, a.Absent...),
	}
	merged.Present = appendTerm(merged.Present, b.Present...)
	merged.Absent = appendTerm(merged.Absent, b.Absent...)
	return merged
}

func appendTerm(terms []string, add ...string) []string {
	out := make([]string, len(terms), len(terms)+len(add))
	copy(out, terms)
next:
	for _, term := range add {
		for _, existing := range out {
			if existing == term {
				continue next
			}
		}
		out = append(out, term)
	}
	return out
}

// Declaration pairs the data and filter requirements an operation
// exposes for composition and scheduling.
type Declaration struct {
	Data   DataRequirement
	Filter FilterRequirement
}

// ConflictError reports incompatible access claims on one component by
// two independently scheduled operations.
type ConflictError struct {
	Component string
	A         Mode
	B         Mode
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting access on component %s: %s vs %s", e.Component, e.A, e.B)
}

// Merge conjoins two declarations of independent operations. Data
// requirements conflict iff some component is write-claimed by one side
// and claimed in any mode by the other. Filters always merge. Pure,
// computed once per composition or attachment, never per entity.
func Merge(a Declaration, b Declaration) (Declaration, error) {
	for _, cl := range a.Data.Claims {
		other, ok := b.Data.Mode(cl.Component)
		if !ok {
			continue
		}
		if cl.Mode == MODE_WRITE || other == MODE_WRITE {
			return Declaration{}, &ConflictError{Component: cl.Component, A: cl.Mode, B: other}
		}
	}

	merged := Declaration{Filter: And(a.Filter, b.Filter)}
	merged.Data = a.Data
	for _, cl := range b.Data.Claims {
		if _, ok := merged.Data.Mode(cl.Component); !ok {
			merged.Data.Claims = append(merged.Data.Claims, cl)
		}
	}
	return merged, nil
}

// Validate checks a declaration for structural defects that must surface
// at construction time, before any entity is processed. Requirements
// built through the fluent builders are always valid; hand-built claim
// lists may not be.
func Validate(d Declaration) error {
	seen := make(map[string]Mode)
	for _, cl := range d.Data.Claims {
		if cl.Component == "" {
			return fmt.Errorf("data requirement contains a claim without component type")
		}
		if cl.Mode != MODE_READ && cl.Mode != MODE_WRITE {
			return fmt.Errorf("data requirement claims unknown mode %q on component %s", cl.Mode, cl.Component)
		}
		if mode, ok := seen[cl.Component]; ok && mode != cl.Mode {
			return fmt.Errorf("data requirement claims component %s in disagreeing modes", cl.Component)
		}
		seen[cl.Component] = cl.Mode
	}
	for _, term := range append(append([]string{}, d.Filter.Present...), d.Filter.Absent...) {
		if term == "" {
			return fmt.Errorf("filter requirement contains an empty component type")
		}
	}
	return nil
}
