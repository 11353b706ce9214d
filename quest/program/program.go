// Package program holds the parsed, immutable form of a quest script:
// blocks, statements and the expression families they are built from.
//
// Every family is a closed set. Statement, Logic and Next are interfaces with
// an unexported marker method so only this package can add variants, and
// consumers switch over the concrete types exhaustively.
package program

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wbrown/janus-quest/quest"
)

// Block is a named unit of a program, either a SourceNode or a DefNode
type Block interface {
	BlockName() string
	String() string
	block()
}

// SourceNode is an executable node: statements run top to bottom each pass
type SourceNode struct {
	Name       string
	Statements []Statement
}

// DefEntry is one variable of a definition node
type DefEntry struct {
	Name  string
	Value quest.Value
}

// DefNode declares the initial variables of a node's definition store
type DefNode struct {
	Name    string
	Entries []DefEntry
}

func (n *SourceNode) BlockName() string { return n.Name }
func (n *DefNode) BlockName() string    { return n.Name }

func (*SourceNode) block() {}
func (*DefNode) block()    {}

// String renders the node in program syntax. Template bindings are folded
// back into the 'name references of the statement that follows them.
func (n *SourceNode) String() string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString("\n")

	var pending map[string]string
	for _, stmt := range n.Statements {
		if l, ok := stmt.(*LogicStmt); ok && l.Template != "" {
			if pending == nil {
				pending = make(map[string]string)
			}
			pending[l.Name] = l.Template
			continue
		}

		line := stmt.String()
		if pending != nil {
			line = restoreTemplates(line, pending)
			pending = nil
		}
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(";\n")
	return b.String()
}

// restoreTemplates replaces whole words naming a minted alias with the
// template reference they came from. Quoted text is left alone.
func restoreTemplates(line string, aliases map[string]string) string {
	var out, word strings.Builder
	flush := func() {
		if tmpl, ok := aliases[word.String()]; ok {
			out.WriteString("'" + tmpl)
		} else {
			out.WriteString(word.String())
		}
		word.Reset()
	}

	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			flush()
			quoted = !quoted
			out.WriteRune(r)
		case quoted:
			out.WriteRune(r)
		case r == ' ' || r == '[' || r == ']' || r == ',':
			flush()
			out.WriteRune(r)
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return out.String()
}

// String renders the node in program syntax
func (n *DefNode) String() string {
	var b strings.Builder
	b.WriteString(n.Name)
	b.WriteString(" def\n")
	for _, e := range n.Entries {
		fmt.Fprintf(&b, "  %s %s\n", e.Name, e.Value)
	}
	b.WriteString(";\n")
	return b.String()
}

// Program is the result of parsing a script
type Program struct {
	Blocks []Block

	sources map[string]*SourceNode
	defs    map[string]*DefNode
}

// NewProgram indexes blocks by name. Names must be unique per namespace.
func NewProgram(blocks []Block) (*Program, error) {
	p := &Program{
		Blocks:  blocks,
		sources: make(map[string]*SourceNode),
		defs:    make(map[string]*DefNode),
	}

	for _, b := range blocks {
		switch n := b.(type) {
		case *SourceNode:
			if _, dup := p.sources[n.Name]; dup {
				return nil, fmt.Errorf("duplicate node %q", n.Name)
			}
			p.sources[n.Name] = n
		case *DefNode:
			if _, dup := p.defs[n.Name]; dup {
				return nil, fmt.Errorf("duplicate definition node %q", n.Name)
			}
			p.defs[n.Name] = n
		default:
			return nil, fmt.Errorf("unknown block type %T", b)
		}
	}

	return p, nil
}

// Source returns the source node with the given name
func (p *Program) Source(name string) (*SourceNode, bool) {
	n, ok := p.sources[name]
	return n, ok
}

// Def returns the definition node with the given name
func (p *Program) Def(name string) (*DefNode, bool) {
	n, ok := p.defs[name]
	return n, ok
}

// SourceNames returns source node names in program order
func (p *Program) SourceNames() []string {
	var names []string
	for _, b := range p.Blocks {
		if n, ok := b.(*SourceNode); ok {
			names = append(names, n.Name)
		}
	}
	return names
}

// String renders the whole program
func (p *Program) String() string {
	parts := make([]string, len(p.Blocks))
	for i, b := range p.Blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n")
}

// Validate reports transitions that name nodes the program does not define.
// Parsing does not require this; a driver may supply nodes from elsewhere.
func (p *Program) Validate() error {
	missing := make(map[string][]string)
	for _, name := range p.SourceNames() {
		node := p.sources[name]
		for _, stmt := range node.Statements {
			for _, target := range Targets(stmt) {
				if _, ok := p.sources[target]; !ok {
					missing[target] = append(missing[target], name)
				}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	targets := make([]string, 0, len(missing))
	for target := range missing {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	parts := make([]string, len(targets))
	for i, target := range targets {
		parts[i] = fmt.Sprintf("%s (from %s)", target, strings.Join(missing[target], ", "))
	}
	return fmt.Errorf("unknown transition targets: %s", strings.Join(parts, "; "))
}
