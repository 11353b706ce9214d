package program

import (
	"strings"

	"github.com/wbrown/janus-quest/quest"
)

// StatementKind identifies a statement variant
type StatementKind int

const (
	KindLogic StatementKind = iota
	KindComposite
	KindIf
	KindOr
	KindNext
	KindEmit
	KindMut
	KindWhen
)

var statementKindNames = [...]string{
	KindLogic:     "logic",
	KindComposite: "composite",
	KindIf:        "if",
	KindOr:        "or",
	KindNext:      "next",
	KindEmit:      "emit",
	KindMut:       "mut",
	KindWhen:      "when",
}

func (k StatementKind) String() string {
	if int(k) < len(statementKindNames) {
		return statementKindNames[k]
	}
	return "unknown"
}

// Statement is one line of a source node
type Statement interface {
	Kind() StatementKind
	String() string
	statement()
}

// LogicStmt derives a fact: name <logic>
type LogicStmt struct {
	Name  string
	Logic Logic

	// Template is set on the binding minted for a 'template reference.
	// The node renders it back as 'Template on the statement that uses it.
	Template string
}

// CompositeStmt aggregates other facts: name:expect ref...
type CompositeStmt struct {
	Name   string
	Expect Expect
	Refs   []string
}

// IfStmt emits and optionally transitions when its expectation holds
type IfStmt struct {
	Expect Expect
	Emit   []quest.Value
	Next   Next
}

// OrStmt is the fallback of the if directly above it
type OrStmt struct {
	Emit []quest.Value
	Next Next
}

// NextStmt is an unconditional transition
type NextStmt struct {
	Next Next
}

// EmitStmt unconditionally emits values
type EmitStmt struct {
	Values []quest.Value
}

// MutStmt mutates the value stored at Target
type MutStmt struct {
	Op     MutOp
	Func   string // For MutFn
	Target string
	Args   []quest.Value
}

// WhenEntry pairs a fact with the mutation it triggers
type WhenEntry struct {
	Fact string
	Mut  *MutStmt
}

// WhenStmt applies mutations for the facts that are currently true
type WhenStmt struct {
	Entries []WhenEntry
}

func (*LogicStmt) Kind() StatementKind     { return KindLogic }
func (*CompositeStmt) Kind() StatementKind { return KindComposite }
func (*IfStmt) Kind() StatementKind        { return KindIf }
func (*OrStmt) Kind() StatementKind        { return KindOr }
func (*NextStmt) Kind() StatementKind      { return KindNext }
func (*EmitStmt) Kind() StatementKind      { return KindEmit }
func (*MutStmt) Kind() StatementKind       { return KindMut }
func (*WhenStmt) Kind() StatementKind      { return KindWhen }

func (*LogicStmt) statement()     {}
func (*CompositeStmt) statement() {}
func (*IfStmt) statement()        {}
func (*OrStmt) statement()        {}
func (*NextStmt) statement()      {}
func (*EmitStmt) statement()      {}
func (*MutStmt) statement()       {}
func (*WhenStmt) statement()      {}

func (s *LogicStmt) String() string {
	return s.Name + " " + s.Logic.String()
}

func (s *CompositeStmt) String() string {
	parts := append([]string{s.Name + ":" + s.Expect.String()}, s.Refs...)
	return strings.Join(parts, " ")
}

func (s *IfStmt) String() string {
	return joinLine("if "+s.Expect.String(), s.Emit, s.Next)
}

func (s *OrStmt) String() string {
	return joinLine("or", s.Emit, s.Next)
}

func (s *NextStmt) String() string {
	return s.Next.String()
}

func (s *EmitStmt) String() string {
	return joinLine("emit", s.Values, nil)
}

func (s *MutStmt) String() string {
	return joinLine("@"+s.Target+" "+s.opString(), s.Args, nil)
}

func (s *MutStmt) opString() string {
	if s.Op == MutFn {
		return "fn:" + s.Func
	}
	return s.Op.String()
}

func (s *WhenStmt) String() string {
	parts := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		parts[i] = e.Fact + " " + e.Mut.String()
	}
	return "when [" + strings.Join(parts, ", ") + "]"
}

// joinLine renders a keyword, its values and an optional directive
func joinLine(head string, values []quest.Value, next Next) string {
	parts := []string{head}
	for _, v := range values {
		parts = append(parts, v.String())
	}
	if next != nil {
		parts = append(parts, next.String())
	}
	return strings.Join(parts, " ")
}

// Targets returns the node names a statement can transition to directly
func Targets(stmt Statement) []string {
	switch s := stmt.(type) {
	case *IfStmt:
		return nextTargets(s.Next)
	case *OrStmt:
		return nextTargets(s.Next)
	case *NextStmt:
		return nextTargets(s.Next)
	default:
		return nil
	}
}

func nextTargets(next Next) []string {
	switch n := next.(type) {
	case Now:
		return []string{n.Node}
	case Await:
		return []string{n.Node}
	case Select:
		var out []string
		for _, e := range n.Entries {
			out = append(out, nextTargets(e.Next)...)
		}
		return out
	default:
		return nil
	}
}
