// Package storage provides reference implementations of the host data
// capability: an in-process map and a Badger-backed persistent store.
package storage

import (
	"sort"
	"sync"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/eval"
)

var (
	_ eval.Host = (*MemoryHost)(nil)
	_ eval.Host = (*BadgerHost)(nil)
)

// MemoryHost keeps world data in a map. It is safe for concurrent use.
type MemoryHost struct {
	mu    sync.RWMutex
	data  map[string]quest.Value
	funcs *Functions
}

// NewMemoryHost creates an empty host. A nil registry uses DefaultFunctions.
func NewMemoryHost(funcs *Functions) *MemoryHost {
	if funcs == nil {
		funcs = DefaultFunctions
	}
	return &MemoryHost{
		data:  make(map[string]quest.Value),
		funcs: funcs,
	}
}

// Get returns the value stored under path
func (h *MemoryHost) Get(path string) (quest.Value, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.data[path]
	return v, ok
}

// Set stores v under path
func (h *MemoryHost) Set(path string, v quest.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data[path] = v
}

// Call dispatches to the function registry
func (h *MemoryHost) Call(receiver quest.Value, fn string, args []quest.Value) (quest.Value, bool) {
	return h.funcs.Call(receiver, fn, args)
}

// Load stores every entry of world
func (h *MemoryHost) Load(world map[string]quest.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for path, v := range world {
		h.data[path] = v
	}
}

// Paths returns the stored paths in sorted order
func (h *MemoryHost) Paths() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	paths := make([]string, 0, len(h.data))
	for path := range h.data {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns a copy of the stored data
func (h *MemoryHost) Snapshot() map[string]quest.Value {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]quest.Value, len(h.data))
	for path, v := range h.data {
		out[path] = v
	}
	return out
}
