package program

import (
	"github.com/wbrown/janus-quest/quest"
)

// Logic is a boolean-producing expression
type Logic interface {
	String() string
	logic()
}

// Is copies the truth of a host value or fact
type Is struct {
	Name string
}

// IsNot inverts the truth of a host value or fact
type IsNot struct {
	Name string
}

// GreaterThan compares two numeric operands
type GreaterThan struct {
	Left  quest.Value
	Right quest.Value
}

// LessThan compares two numeric operands
type LessThan struct {
	Left  quest.Value
	Right quest.Value
}

func (Is) logic()          {}
func (IsNot) logic()       {}
func (GreaterThan) logic() {}
func (LessThan) logic()    {}

func (l Is) String() string          { return l.Name }
func (l IsNot) String() string       { return "!" + l.Name }
func (l GreaterThan) String() string { return l.Left.String() + " > " + l.Right.String() }
func (l LessThan) String() string    { return l.Left.String() + " < " + l.Right.String() }

// ExpectKind selects how an expectation is tested
type ExpectKind int

const (
	ExpectAll ExpectKind = iota
	ExpectAny
	ExpectNone
	ExpectRef
)

// Expect is an aggregation policy or a reference to a single fact
type Expect struct {
	Kind ExpectKind
	Ref  string // For ExpectRef
}

// ParseExpect reads an expectation. The three keywords are reserved and
// anything else is a reference.
func ParseExpect(s string) Expect {
	switch s {
	case "all":
		return Expect{Kind: ExpectAll}
	case "any":
		return Expect{Kind: ExpectAny}
	case "none":
		return Expect{Kind: ExpectNone}
	default:
		return Expect{Kind: ExpectRef, Ref: s}
	}
}

// Formal reports whether the expectation is one of all/any/none
func (e Expect) Formal() bool {
	return e.Kind != ExpectRef
}

func (e Expect) String() string {
	switch e.Kind {
	case ExpectAll:
		return "all"
	case ExpectAny:
		return "any"
	case ExpectNone:
		return "none"
	default:
		return e.Ref
	}
}
