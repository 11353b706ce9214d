package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-quest/quest/lexer"
	"github.com/wbrown/janus-quest/quest/program"
)

// parseMut reads @target <op> <args>
func parseMut(head lexer.Token, rest []lexer.Token) (*program.MutStmt, error) {
	target := strings.TrimPrefix(head.Value, "@")
	if target == "" {
		return nil, fmt.Errorf("empty mutation target at %s", head.Pos())
	}
	if len(rest) == 0 {
		return nil, fmt.Errorf("mutation of %q requires an operator at %s", target, head.Pos())
	}

	opTok := rest[0]
	if opTok.Type != lexer.TokenWord {
		return nil, fmt.Errorf("mutation operator must be a bare word at %s", opTok.Pos())
	}

	args, err := parseValues(rest[1:])
	if err != nil {
		return nil, err
	}

	if fn, ok := strings.CutPrefix(opTok.Value, "fn:"); ok {
		if fn == "" {
			return nil, fmt.Errorf("function mutation without a name at %s", opTok.Pos())
		}
		return &program.MutStmt{Op: program.MutFn, Func: fn, Target: target, Args: args}, nil
	}

	op, ok := program.ParseMutOp(opTok.Value)
	if !ok {
		return nil, fmt.Errorf("unknown mutation operator %q at %s", opTok.Value, opTok.Pos())
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("mutation %q expects 1 argument, got %d at %s", opTok.Value, len(args), opTok.Pos())
	}

	return &program.MutStmt{Op: op, Target: target, Args: args}, nil
}

// parseWhen reads when [fact @target op args, ...]
func parseWhen(head lexer.Token, rest []lexer.Token) (program.Statement, error) {
	if len(rest) != 1 || rest[0].Type != lexer.TokenList {
		return nil, fmt.Errorf("when requires a single map literal at %s", head.Pos())
	}

	list := rest[0]
	if len(list.Entries) == 0 {
		return nil, fmt.Errorf("when map is empty at %s", list.Pos())
	}

	when := &program.WhenStmt{Entries: make([]program.WhenEntry, 0, len(list.Entries))}
	seen := make(map[string]bool)
	for _, entry := range list.Entries {
		key := entry[0]
		if key.Type != lexer.TokenWord {
			return nil, fmt.Errorf("when key must be a bare name at %s", key.Pos())
		}
		if seen[key.Value] {
			return nil, fmt.Errorf("duplicate when key %q at %s", key.Value, key.Pos())
		}
		seen[key.Value] = true

		if len(entry) < 2 {
			return nil, fmt.Errorf("when key %q has no mutation at %s", key.Value, key.Pos())
		}
		stmt, err := ParseStatement(entry[1:])
		if err != nil {
			return nil, fmt.Errorf("when key %q: %w", key.Value, err)
		}
		mut, ok := stmt.(*program.MutStmt)
		if !ok {
			return nil, fmt.Errorf("when key %q must map to a mutation, got %s at %s", key.Value, stmt.Kind(), entry[1].Pos())
		}
		when.Entries = append(when.Entries, program.WhenEntry{Fact: key.Value, Mut: mut})
	}

	return when, nil
}
