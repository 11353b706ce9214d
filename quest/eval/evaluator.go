// Package eval executes source nodes against a fact table, a definition
// store and a host capability.
//
// Operand resolution is explicit about where names are looked up. Logic
// comparisons read the host only; mutations read the definition store first
// and then the host.
package eval

import (
	"fmt"
	"time"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/annotations"
	"github.com/wbrown/janus-quest/quest/program"
)

// Result is what a statement or a pass hands back to the driver
type Result struct {
	Emit []quest.Value
	Next program.Next
}

// Actionable reports whether the result carries values or a transition
func (r Result) Actionable() bool {
	return len(r.Emit) > 0 || r.Next != nil
}

// Evaluator runs statements for one pass. It is not safe for concurrent use.
type Evaluator struct {
	facts     Facts
	defs      *Defs
	host      Host
	collector *annotations.Collector
	node      string
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithHandler sends evaluation events to h
func WithHandler(h annotations.Handler) Option {
	return func(e *Evaluator) {
		e.collector = annotations.NewCollector(h)
	}
}

// WithCollector records evaluation events in c
func WithCollector(c *annotations.Collector) Option {
	return func(e *Evaluator) {
		e.collector = c
	}
}

// New creates an evaluator. Nil arguments are replaced with empty facts,
// an empty definition store and a host that holds nothing.
func New(facts Facts, defs *Defs, host Host, opts ...Option) *Evaluator {
	if facts == nil {
		facts = make(Facts)
	}
	if defs == nil {
		defs = NewDefs(nil)
	}
	if host == nil {
		host = nopHost{}
	}

	e := &Evaluator{facts: facts, defs: defs, host: host}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Facts returns the fact table the evaluator writes to
func (e *Evaluator) Facts() Facts { return e.facts }

// Defs returns the definition store the evaluator mutates
func (e *Evaluator) Defs() *Defs { return e.defs }

// Eval evaluates a single statement
func (e *Evaluator) Eval(stmt program.Statement) Result {
	switch s := stmt.(type) {
	case *program.LogicStmt:
		e.evalLogic(s)
		return Result{}
	case *program.CompositeStmt:
		e.evalComposite(s)
		return Result{}
	case *program.IfStmt:
		r, _ := e.evalIf(s)
		return r
	case *program.OrStmt:
		return Result{Emit: copyValues(s.Emit), Next: s.Next}
	case *program.EmitStmt:
		return Result{Emit: copyValues(s.Values)}
	case *program.NextStmt:
		return Result{Next: s.Next}
	case *program.MutStmt:
		e.evalMut(s)
		return Result{}
	case *program.WhenStmt:
		e.evalWhen(s)
		return Result{}
	default:
		panic(fmt.Sprintf("unknown statement type: %T", stmt))
	}
}

// evalLogic writes one fact derived from host data
func (e *Evaluator) evalLogic(s *program.LogicStmt) {
	switch l := s.Logic.(type) {
	case program.Is:
		if v, ok := e.host.Get(l.Name); ok {
			e.setFact(s.Name, quest.Truthy(v))
		} else if f, ok := e.facts[l.Name]; ok {
			e.setFact(s.Name, f)
		} else {
			e.skipLogic(s.Name, l.Name+" not found")
		}

	case program.IsNot:
		if v, ok := e.host.Get(l.Name); ok {
			e.setFact(s.Name, !quest.Truthy(v))
		} else if f, ok := e.facts[l.Name]; ok {
			e.setFact(s.Name, !f)
		} else {
			e.skipLogic(s.Name, l.Name+" not found")
		}

	case program.GreaterThan:
		if left, right, ok := e.compareOperands(s.Name, l.Left, l.Right); ok {
			e.setFact(s.Name, left > right)
		}

	case program.LessThan:
		if left, right, ok := e.compareOperands(s.Name, l.Left, l.Right); ok {
			e.setFact(s.Name, left < right)
		}

	default:
		panic(fmt.Sprintf("unknown logic type: %T", s.Logic))
	}
}

// compareOperands resolves both sides of a comparison against the host
func (e *Evaluator) compareOperands(fact string, left, right quest.Value) (float64, float64, bool) {
	l, lok := ResolveNumber(left, e.host)
	r, rok := ResolveNumber(right, e.host)
	if !lok || !rok {
		e.skipLogic(fact, "operands did not resolve to numbers")
		return 0, 0, false
	}
	return l, r, true
}

// evalComposite sets its fact to true when the policy holds and never
// writes false. A ref found in neither the fact table nor the host blocks
// all.
func (e *Evaluator) evalComposite(s *program.CompositeStmt) {
	sawTrue, sawFalse, missing := false, false, false

	for _, ref := range s.Refs {
		if f, ok := e.facts[ref]; ok {
			if f {
				sawTrue = true
			} else {
				sawFalse = true
			}
			continue
		}
		if v, ok := e.host.Get(ref); ok {
			if quest.Truthy(v) {
				sawTrue = true
			} else {
				sawFalse = true
			}
			continue
		}
		missing = true
	}

	var holds bool
	switch s.Expect.Kind {
	case program.ExpectAll:
		holds = sawTrue && !sawFalse && !missing
	case program.ExpectAny:
		holds = sawTrue
	case program.ExpectNone:
		holds = sawFalse && !sawTrue
	case program.ExpectRef:
		// rejected by the parser
	}

	if holds {
		e.setFact(s.Name, true)
	} else {
		e.skipLogic(s.Name, "composite "+s.Expect.String()+" did not hold")
	}
}

// evalIf returns the statement's payload when its expectation holds
func (e *Evaluator) evalIf(s *program.IfStmt) (Result, bool) {
	if !e.expect(s.Expect) {
		return Result{}, false
	}
	return Result{Emit: copyValues(s.Emit), Next: s.Next}, true
}

// expect tests an expectation. The aggregate kinds range over the whole
// fact table. None is true for any non-empty table, whatever it holds.
func (e *Evaluator) expect(x program.Expect) bool {
	switch x.Kind {
	case program.ExpectAll:
		if len(e.facts) == 0 {
			return false
		}
		for _, f := range e.facts {
			if !f {
				return false
			}
		}
		return true

	case program.ExpectAny:
		for _, f := range e.facts {
			if f {
				return true
			}
		}
		return false

	case program.ExpectNone:
		return len(e.facts) > 0

	case program.ExpectRef:
		if f, ok := e.facts[x.Ref]; ok {
			return f
		}
		if v, ok := e.host.Get(x.Ref); ok {
			return quest.Truthy(v)
		}
		return false

	default:
		panic(fmt.Sprintf("unknown expect kind: %d", x.Kind))
	}
}

// evalWhen applies the mutation of every entry whose fact is true
func (e *Evaluator) evalWhen(s *program.WhenStmt) {
	for _, entry := range s.Entries {
		if e.facts[entry.Fact] {
			e.evalMut(entry.Mut)
		}
	}
}

func (e *Evaluator) setFact(name string, value bool) {
	e.facts[name] = value
	if e.collector.Enabled() {
		e.collector.AddEvent(annotations.FactWritten, map[string]interface{}{
			"node":  e.node,
			"fact":  name,
			"value": value,
		})
	}
}

func (e *Evaluator) skipLogic(name, reason string) {
	if e.collector.Enabled() {
		e.collector.AddEvent(annotations.LogicSkipped, map[string]interface{}{
			"node":   e.node,
			"fact":   name,
			"reason": reason,
		})
	}
}

// Run evaluates a node's statements in order and stops at the first
// actionable result. An or is only evaluated when the most recent if did
// not hold.
func (e *Evaluator) Run(node *program.SourceNode) Result {
	start := time.Now()
	e.node = node.Name
	if e.collector.Enabled() {
		e.collector.AddEvent(annotations.PassBegin, map[string]interface{}{
			"node":       node.Name,
			"statements": len(node.Statements),
		})
	}

	var result Result
	ifFailed := false
	for i, stmt := range node.Statements {
		var r Result
		switch s := stmt.(type) {
		case *program.IfStmt:
			var held bool
			r, held = e.evalIf(s)
			ifFailed = !held
		case *program.OrStmt:
			if !ifFailed {
				continue
			}
			ifFailed = false
			r = e.Eval(s)
		default:
			r = e.Eval(s)
		}

		if e.collector.Enabled() {
			e.collector.AddEvent(annotations.StatementEvaluated, map[string]interface{}{
				"node":       node.Name,
				"index":      i,
				"kind":       stmt.Kind().String(),
				"statement":  stmt.String(),
				"actionable": r.Actionable(),
			})
		}

		if r.Actionable() {
			result = r
			break
		}
	}

	if e.collector.Enabled() {
		next := ""
		if result.Next != nil {
			next = result.Next.String()
		}
		e.collector.AddTiming(annotations.PassComplete, start, map[string]interface{}{
			"node":    node.Name,
			"emitted": len(result.Emit),
			"next":    next,
		})
	}
	return result
}

// Pass runs one evaluation pass over node
func Pass(node *program.SourceNode, facts Facts, defs *Defs, host Host, opts ...Option) Result {
	return New(facts, defs, host, opts...).Run(node)
}

func copyValues(values []quest.Value) []quest.Value {
	if len(values) == 0 {
		return nil
	}
	out := make([]quest.Value, len(values))
	copy(out, values)
	return out
}
