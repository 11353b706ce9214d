package program

import "strings"

// Next is a transition directive produced by a pass
type Next interface {
	String() string
	next()
}

// Now transitions immediately to Node
type Now struct {
	Node string
}

// Restart re-enters the current node
type Restart struct{}

// Back returns to the previously visited node
type Back struct{}

// Await asks for manual advancement to Node; without it the current node
// is visited again
type Await struct {
	Node string
}

// SelectEntry is one choice of a Select
type SelectEntry struct {
	Key  string
	Next Next
}

// Select defers to the driver, which picks one keyed directive
type Select struct {
	Entries []SelectEntry
}

func (Now) next()     {}
func (Restart) next() {}
func (Back) next()    {}
func (Await) next()   {}
func (Select) next()  {}

func (n Now) String() string   { return "next:now " + n.Node }
func (Restart) String() string { return "next:restart" }
func (Back) String() string    { return "next:back" }
func (n Await) String() string { return "next:await " + n.Node }

func (n Select) String() string {
	parts := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		parts[i] = e.Key + " " + e.Next.String()
	}
	return "next:select [" + strings.Join(parts, ", ") + "]"
}

// Lookup returns the directive stored under key
func (n Select) Lookup(key string) (Next, bool) {
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Next, true
		}
	}
	return nil, false
}

// Keys returns the choice keys in source order
func (n Select) Keys() []string {
	keys := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		keys[i] = e.Key
	}
	return keys
}
