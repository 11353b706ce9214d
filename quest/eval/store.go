package eval

import (
	"sort"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/program"
)

// Lookup is the read side shared by definition stores and hosts
type Lookup interface {
	Get(path string) (quest.Value, bool)
}

// Store is a path-addressable value store
type Store interface {
	Lookup
	Set(path string, v quest.Value)
}

// Host is the capability a host application exposes to scripts. The
// evaluator never caches host results between statements.
type Host interface {
	Store
	Call(receiver quest.Value, fn string, args []quest.Value) (quest.Value, bool)
}

// Facts is the boolean fact table of one pass
type Facts map[string]bool

// Names returns fact names in sorted order
func (f Facts) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defs is a node's definition store: ordered, mutable variables
type Defs struct {
	names  []string
	values map[string]quest.Value
}

// NewDefs seeds a store from a definition node; a nil node yields an empty store
func NewDefs(node *program.DefNode) *Defs {
	d := &Defs{values: make(map[string]quest.Value)}
	if node != nil {
		for _, e := range node.Entries {
			d.Set(e.Name, e.Value)
		}
	}
	return d
}

// Get returns the value stored under path. Safe on a nil store.
func (d *Defs) Get(path string) (quest.Value, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[path]
	return v, ok
}

// Has reports whether path is defined
func (d *Defs) Has(path string) bool {
	_, ok := d.Get(path)
	return ok
}

// Set stores v under path, appending new names in insertion order
func (d *Defs) Set(path string, v quest.Value) {
	if _, ok := d.values[path]; !ok {
		d.names = append(d.names, path)
	}
	d.values[path] = v
}

// Names returns variable names in definition order
func (d *Defs) Names() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of variables
func (d *Defs) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Clone returns an independent copy
func (d *Defs) Clone() *Defs {
	c := &Defs{values: make(map[string]quest.Value, d.Len())}
	for _, name := range d.Names() {
		c.Set(name, d.values[name])
	}
	return c
}

// Resolve returns a literal unchanged and looks a Ref up in each store in
// order, returning the first hit.
func Resolve(v quest.Value, stores ...Lookup) (quest.Value, bool) {
	ref, ok := v.(quest.Ref)
	if !ok {
		return v, v != nil
	}
	for _, s := range stores {
		if s == nil {
			continue
		}
		if found, ok := s.Get(string(ref)); ok {
			return found, true
		}
	}
	return nil, false
}

// ResolveNumber resolves v and requires the result to be a Number
func ResolveNumber(v quest.Value, stores ...Lookup) (float64, bool) {
	resolved, ok := Resolve(v, stores...)
	if !ok {
		return 0, false
	}
	return quest.AsNumber(resolved)
}

// nopHost is used when an evaluator is built without a host
type nopHost struct{}

func (nopHost) Get(string) (quest.Value, bool) { return nil, false }
func (nopHost) Set(string, quest.Value)        {}
func (nopHost) Call(quest.Value, string, []quest.Value) (quest.Value, bool) {
	return nil, false
}
