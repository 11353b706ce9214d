package eval

import (
	"fmt"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/annotations"
	"github.com/wbrown/janus-quest/quest/program"
)

// locate finds the store currently holding target: the definition store
// first, then the host. The store is nil when neither holds it.
func (e *Evaluator) locate(target string) (Store, string, quest.Value) {
	if v, ok := e.defs.Get(target); ok {
		return e.defs, "defs", v
	}
	if v, ok := e.host.Get(target); ok {
		return e.host, "host", v
	}
	return nil, "", nil
}

func (e *Evaluator) evalMut(m *program.MutStmt) {
	store, where, current := e.locate(m.Target)

	switch {
	case m.Op.Arithmetic():
		if store == nil {
			e.skipMut(m.Target, "target not found")
			return
		}
		left, ok := quest.AsNumber(current)
		if !ok {
			e.skipMut(m.Target, "target is not a number")
			return
		}
		right, ok := ResolveNumber(m.Args[0], e.defs, e.host)
		if !ok {
			e.skipMut(m.Target, fmt.Sprintf("argument %s did not resolve to a number", m.Args[0]))
			return
		}

		var result float64
		switch m.Op {
		case program.MutAdd:
			result = left + right
		case program.MutSub:
			result = left - right
		case program.MutMul:
			result = left * right
		case program.MutDiv:
			if right == 0 {
				e.skipMut(m.Target, "division by zero")
				return
			}
			result = left / right
		}
		e.apply(store, where, m.Target, quest.Number(result))

	case m.Op == program.MutSwap:
		// a target nobody holds yet is created on the host
		if store == nil {
			store, where = e.host, "host"
		}
		e.apply(store, where, m.Target, m.Args[0])

	case m.Op == program.MutFn:
		if store == nil {
			e.skipMut(m.Target, "target not found")
			return
		}
		args := make([]quest.Value, len(m.Args))
		for i, a := range m.Args {
			v, ok := Resolve(a, e.defs, e.host)
			if !ok {
				e.skipMut(m.Target, fmt.Sprintf("argument %s did not resolve", a))
				return
			}
			args[i] = v
		}
		result, ok := e.host.Call(current, m.Func, args)
		if !ok || result == nil {
			e.skipMut(m.Target, "fn:"+m.Func+" returned nothing")
			return
		}
		e.apply(store, where, m.Target, result)

	default:
		panic(fmt.Sprintf("unknown mutation op: %d", m.Op))
	}
}

func (e *Evaluator) apply(store Store, where, target string, v quest.Value) {
	store.Set(target, v)
	if e.collector.Enabled() {
		e.collector.AddEvent(annotations.MutationApplied, map[string]interface{}{
			"node":   e.node,
			"target": target,
			"store":  where,
			"value":  v.String(),
		})
	}
}

func (e *Evaluator) skipMut(target, reason string) {
	if e.collector.Enabled() {
		e.collector.AddEvent(annotations.MutationSkipped, map[string]interface{}{
			"node":   e.node,
			"target": target,
			"reason": reason,
		})
	}
}
