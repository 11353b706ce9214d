// Package runner is a reference driver: it walks a program's nodes one pass
// at a time, resolves transition directives and keeps the visit history that
// next:back needs.
package runner

import (
	"errors"
	"fmt"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/annotations"
	"github.com/wbrown/janus-quest/quest/eval"
	"github.com/wbrown/janus-quest/quest/program"
)

var (
	ErrUnknownNode    = errors.New("unknown node")
	ErrUnknownChoice  = errors.New("unknown choice")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrNothingPending = errors.New("nothing pending")
)

// Chooser picks a select key for node. Returning false leaves the choice
// pending.
type Chooser func(node string, sel program.Select) (string, bool)

// Options configures a Cursor
type Options struct {
	MaxSteps  int  // Steps per Run, 0 for unlimited
	KeepFacts bool // Carry one fact table across every pass of the walk
	Chooser   Chooser
	Handler   annotations.Handler
}

// DefaultOptions returns the options used by Env.Cursor
func DefaultOptions() Options {
	return Options{MaxSteps: 1000}
}

// Env holds a program, a host and one definition store per source node
type Env struct {
	prog *program.Program
	host eval.Host
	defs map[string]*eval.Defs
}

// NewEnv creates an environment. Each source node's definition store is
// seeded from the definition node of the same name, if there is one.
func NewEnv(prog *program.Program, host eval.Host) *Env {
	env := &Env{
		prog: prog,
		host: host,
		defs: make(map[string]*eval.Defs),
	}
	for _, name := range prog.SourceNames() {
		def, _ := prog.Def(name)
		env.defs[name] = eval.NewDefs(def)
	}
	return env
}

// Program returns the program being driven
func (env *Env) Program() *program.Program { return env.prog }

// Host returns the host capability
func (env *Env) Host() eval.Host { return env.host }

// Defs returns the definition store of a source node
func (env *Env) Defs(node string) (*eval.Defs, bool) {
	d, ok := env.defs[node]
	return d, ok
}

// Cursor starts a walk at start with DefaultOptions
func (env *Env) Cursor(start string) (*Cursor, error) {
	return env.CursorWithOptions(start, DefaultOptions())
}

// CursorWithOptions starts a walk at start
func (env *Env) CursorWithOptions(start string, opts Options) (*Cursor, error) {
	if _, ok := env.prog.Source(start); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, start)
	}
	return &Cursor{
		env:       env,
		opts:      opts,
		current:   start,
		collector: annotations.NewCollector(opts.Handler),
	}, nil
}

// Visit records one pass and what the cursor did with its result
type Visit struct {
	Node  string        // node the pass ran on
	Emit  []quest.Value // values the pass emitted
	Next  program.Next  // directive the pass produced, nil if none
	Facts eval.Facts    // fact table after the pass
	To    string        // current node once the directive was applied
}

// Cursor tracks the position of one walk through a program. It is not safe
// for concurrent use.
type Cursor struct {
	env       *Env
	opts      Options
	collector *annotations.Collector

	current string
	history []string
	facts   eval.Facts
	pending program.Next // Await or Select waiting on the caller
	steps   int
}

// Current returns the node the next step will run
func (c *Cursor) Current() string { return c.current }

// History returns previously visited nodes, oldest first
func (c *Cursor) History() []string {
	out := make([]string, len(c.history))
	copy(out, c.history)
	return out
}

// Pending returns the await or select directive waiting on the caller
func (c *Cursor) Pending() program.Next { return c.pending }

// Steps returns the number of passes run so far
func (c *Cursor) Steps() int { return c.steps }

// Step runs one pass over the current node and applies its directive. A
// pending await or select that was not resolved is dropped, so the current
// node runs again.
func (c *Cursor) Step() (Visit, error) {
	node, ok := c.env.prog.Source(c.current)
	if !ok {
		return Visit{}, fmt.Errorf("%w: %q", ErrUnknownNode, c.current)
	}
	c.pending = nil

	facts := c.facts
	if !c.opts.KeepFacts || facts == nil {
		facts = make(eval.Facts)
	}
	c.facts = facts

	r := eval.Pass(node, facts, c.env.defs[c.current], c.env.host, eval.WithCollector(c.collector))
	c.steps++

	visit := Visit{Node: node.Name, Emit: r.Emit, Next: r.Next, Facts: facts}
	if err := c.apply(r.Next); err != nil {
		return visit, err
	}
	visit.To = c.current
	return visit, nil
}

// Run steps until a pass yields no directive, an await or select is left
// pending, or MaxSteps passes have run.
func (c *Cursor) Run() ([]Visit, error) {
	var visits []Visit
	for i := 0; ; i++ {
		if c.opts.MaxSteps > 0 && i >= c.opts.MaxSteps {
			c.stopped("step limit")
			return visits, fmt.Errorf("%w: %d steps at %q", ErrStepLimit, c.opts.MaxSteps, c.current)
		}

		v, err := c.Step()
		visits = append(visits, v)
		if err != nil {
			return visits, err
		}

		switch {
		case c.pending != nil:
			c.stopped("waiting on " + c.pending.String())
			return visits, nil
		case v.Next == nil:
			c.stopped("no transition")
			return visits, nil
		}
	}
}

// Advance grants a pending await and moves to its target
func (c *Cursor) Advance() error {
	await, ok := c.pending.(program.Await)
	if !ok {
		return fmt.Errorf("%w: no await at %q", ErrNothingPending, c.current)
	}
	c.pending = nil
	return c.moveTo(await.Node, await.String())
}

// Choose resolves a pending select with key
func (c *Cursor) Choose(key string) error {
	sel, ok := c.pending.(program.Select)
	if !ok {
		return fmt.Errorf("%w: no select at %q", ErrNothingPending, c.current)
	}
	next, ok := sel.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q at %q (have %v)", ErrUnknownChoice, key, c.current, sel.Keys())
	}
	c.pending = nil
	return c.apply(next)
}

func (c *Cursor) apply(next program.Next) error {
	switch n := next.(type) {
	case nil:
		return nil

	case program.Now:
		return c.moveTo(n.Node, n.String())

	case program.Restart:
		c.moved(c.current, c.current, n.String())
		return nil

	case program.Back:
		if len(c.history) == 0 {
			c.moved(c.current, c.current, n.String())
			return nil
		}
		from := c.current
		c.current = c.history[len(c.history)-1]
		c.history = c.history[:len(c.history)-1]
		c.moved(from, c.current, n.String())
		return nil

	case program.Await:
		c.pending = n
		if c.collector.Enabled() {
			c.collector.AddEvent(annotations.CursorAwait, map[string]interface{}{
				"node":   c.current,
				"target": n.Node,
			})
		}
		return nil

	case program.Select:
		if c.opts.Chooser != nil {
			if key, ok := c.opts.Chooser(c.current, n); ok {
				chosen, found := n.Lookup(key)
				if !found {
					return fmt.Errorf("%w: %q at %q (have %v)", ErrUnknownChoice, key, c.current, n.Keys())
				}
				return c.apply(chosen)
			}
		}
		c.pending = n
		if c.collector.Enabled() {
			c.collector.AddEvent(annotations.CursorSelect, map[string]interface{}{
				"node": c.current,
				"keys": n.Keys(),
			})
		}
		return nil

	default:
		panic(fmt.Sprintf("unknown directive type: %T", next))
	}
}

func (c *Cursor) moveTo(target, directive string) error {
	if _, ok := c.env.prog.Source(target); !ok {
		return fmt.Errorf("%w: %q (from %q)", ErrUnknownNode, target, c.current)
	}
	from := c.current
	c.history = append(c.history, from)
	c.current = target
	c.moved(from, target, directive)
	return nil
}

func (c *Cursor) moved(from, to, directive string) {
	if c.collector.Enabled() {
		c.collector.AddEvent(annotations.CursorMoved, map[string]interface{}{
			"from":      from,
			"to":        to,
			"directive": directive,
		})
	}
}

func (c *Cursor) stopped(reason string) {
	if c.collector.Enabled() {
		c.collector.AddEvent(annotations.CursorStopped, map[string]interface{}{
			"node":   c.current,
			"reason": reason,
			"steps":  c.steps,
		})
	}
}
