package view

import "github.com/voodooEntity/synapse/src/system/memory"

// Fetch lazily obtains one sub-view for the current entity.
type Fetch func() (*memory.View, error)

// Disjoint2 holds two independently-obtained views over the same entity
// whose declarations may overlap, even on write access. The overlap is
// safe because the accessors are exclusive in time: each one fetches its
// sub-view, runs the body, flushes, and only then may the other be used.
// Holding one accessor while requesting another panics.
//
// An operation exposing its data through a Disjoint2 declares the fused
// requirement (union of the mutable claims) as its own access, so the
// scheduler still sees every touched component.
type Disjoint2 struct {
	fetch  [2]Fetch
	active bool
}

func NewDisjoint2(p0 Fetch, p1 Fetch) *Disjoint2 {
	return &Disjoint2{fetch: [2]Fetch{p0, p1}}
}

// P0 runs fn with exclusive access to the first sub-view.
func (d *Disjoint2) P0(fn func(*memory.View)) error {
	return d.use(0, fn)
}

// P1 runs fn with exclusive access to the second sub-view.
func (d *Disjoint2) P1(fn func(*memory.View)) error {
	return d.use(1, fn)
}

func (d *Disjoint2) use(index int, fn func(*memory.View)) error {
	if d.active {
		panic("disjoint view accessors are mutually exclusive, release the current one first")
	}
	d.active = true
	defer func() { d.active = false }()

	v, err := d.fetch[index]()
	if err != nil {
		return err
	}
	fn(v)
	v.Flush()
	return nil
}

// Disjoint3 is the three-view variant. Larger arities nest containers.
type Disjoint3 struct {
	fetch  [3]Fetch
	active bool
}

func NewDisjoint3(p0 Fetch, p1 Fetch, p2 Fetch) *Disjoint3 {
	return &Disjoint3{fetch: [3]Fetch{p0, p1, p2}}
}

func (d *Disjoint3) P0(fn func(*memory.View)) error {
	return d.use(0, fn)
}

func (d *Disjoint3) P1(fn func(*memory.View)) error {
	return d.use(1, fn)
}

func (d *Disjoint3) P2(fn func(*memory.View)) error {
	return d.use(2, fn)
}

func (d *Disjoint3) use(index int, fn func(*memory.View)) error {
	if d.active {
		panic("disjoint view accessors are mutually exclusive, release the current one first")
	}
	d.active = true
	defer func() { d.active = false }()

	v, err := d.fetch[index]()
	if err != nil {
		return err
	}
	fn(v)
	v.Flush()
	return nil
}
