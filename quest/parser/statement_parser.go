package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-quest/quest/lexer"
	"github.com/wbrown/janus-quest/quest/program"
)

// ParseStatement parses the tokens of one source line
func ParseStatement(toks []lexer.Token) (program.Statement, error) {
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	head := toks[0]
	if head.Type != lexer.TokenWord {
		return nil, fmt.Errorf("statement must start with a bare name at %s", head.Pos())
	}
	rest := toks[1:]

	switch {
	case strings.HasPrefix(head.Value, "@"):
		mut, err := parseMut(head, rest)
		if err != nil {
			return nil, err
		}
		return mut, nil
	case head.Value == "when":
		return parseWhen(head, rest)
	case head.Value == "if":
		return parseIf(head, rest)
	case head.Value == "or":
		return parseOr(head, rest)
	case isNextWord(head.Value):
		next, err := parseDirective(toks)
		if err != nil {
			return nil, err
		}
		return &program.NextStmt{Next: next}, nil
	case head.Value == "emit":
		return parseEmit(head, rest)
	case strings.Contains(head.Value, ":"):
		return parseComposite(head, rest)
	default:
		logic, err := parseLogic(head, rest)
		if err != nil {
			return nil, err
		}
		return &program.LogicStmt{Name: head.Value, Logic: logic}, nil
	}
}

// isNextWord matches "next" and any "next:<tag>"
func isNextWord(s string) bool {
	return s == "next" || strings.HasPrefix(s, "next:")
}

func parseIf(head lexer.Token, rest []lexer.Token) (program.Statement, error) {
	if len(rest) < 2 {
		return nil, fmt.Errorf("if requires an expectation and at least one value or directive at %s", head.Pos())
	}

	expectTok := rest[0]
	if expectTok.Type != lexer.TokenWord {
		return nil, fmt.Errorf("if expectation must be a bare name at %s", expectTok.Pos())
	}
	if isNextWord(expectTok.Value) {
		return nil, fmt.Errorf("if requires an expectation before %q at %s", expectTok.Value, expectTok.Pos())
	}

	next, remaining, err := splitNext(rest[1:])
	if err != nil {
		return nil, err
	}
	values, err := parseValues(remaining)
	if err != nil {
		return nil, err
	}

	return &program.IfStmt{
		Expect: program.ParseExpect(expectTok.Value),
		Emit:   values,
		Next:   next,
	}, nil
}

func parseOr(head lexer.Token, rest []lexer.Token) (program.Statement, error) {
	if len(rest) < 1 {
		return nil, fmt.Errorf("or requires at least one value or directive at %s", head.Pos())
	}

	next, remaining, err := splitNext(rest)
	if err != nil {
		return nil, err
	}
	values, err := parseValues(remaining)
	if err != nil {
		return nil, err
	}

	return &program.OrStmt{Emit: values, Next: next}, nil
}

func parseEmit(head lexer.Token, rest []lexer.Token) (program.Statement, error) {
	if len(rest) == 0 {
		return nil, fmt.Errorf("emit requires at least one value at %s", head.Pos())
	}
	values, err := parseValues(rest)
	if err != nil {
		return nil, err
	}
	return &program.EmitStmt{Values: values}, nil
}

func parseComposite(head lexer.Token, rest []lexer.Token) (program.Statement, error) {
	parts := strings.Split(head.Value, ":")
	if len(parts) != 2 || parts[0] == "" {
		return nil, fmt.Errorf("composite must be written <name>:<all|any|none> at %s", head.Pos())
	}

	expect := program.ParseExpect(parts[1])
	if !expect.Formal() {
		return nil, fmt.Errorf("informal expect %q in composite %q at %s", parts[1], parts[0], head.Pos())
	}

	if len(rest) == 0 {
		return nil, fmt.Errorf("composite %q requires at least one fact at %s", parts[0], head.Pos())
	}
	refs := make([]string, len(rest))
	for i, tok := range rest {
		if tok.Type != lexer.TokenWord {
			return nil, fmt.Errorf("composite fact must be a bare name at %s", tok.Pos())
		}
		refs[i] = tok.Value
	}

	return &program.CompositeStmt{Name: parts[0], Expect: expect, Refs: refs}, nil
}

// parseLogic reads the expression after a fact name
func parseLogic(head lexer.Token, rest []lexer.Token) (program.Logic, error) {
	switch len(rest) {
	case 1:
		operand := rest[0]
		if operand.Type != lexer.TokenWord {
			return nil, fmt.Errorf("logic operand must be a bare name at %s", operand.Pos())
		}
		if strings.HasPrefix(operand.Value, "!") {
			name := operand.Value[1:]
			if name == "" {
				return nil, fmt.Errorf("negation without a name at %s", operand.Pos())
			}
			return program.IsNot{Name: name}, nil
		}
		return program.Is{Name: operand.Value}, nil

	case 3:
		left, err := parseValue(rest[0])
		if err != nil {
			return nil, err
		}
		right, err := parseValue(rest[2])
		if err != nil {
			return nil, err
		}

		op := rest[1]
		switch {
		case op.IsWord(">"):
			return program.GreaterThan{Left: left, Right: right}, nil
		case op.IsWord("<"):
			return program.LessThan{Left: left, Right: right}, nil
		default:
			return nil, fmt.Errorf("unknown comparison operator %q at %s", op.Value, op.Pos())
		}

	default:
		return nil, fmt.Errorf("logic %q expects 1 or 3 operands, got %d at %s", head.Value, len(rest), head.Pos())
	}
}
