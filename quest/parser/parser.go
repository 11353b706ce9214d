package parser

import (
	"fmt"

	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/lexer"
	"github.com/wbrown/janus-quest/quest/program"
)

// defMarker is the header keyword that declares a definition node
const defMarker = "def"

// ParseProgram parses a complete script into a Program
func ParseProgram(input string) (*program.Program, error) {
	raw, err := lexer.Lex(input)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}

	blocks := make([]program.Block, 0, len(raw))
	for _, rb := range raw {
		b, err := parseBlock(rb)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}

	return program.NewProgram(blocks)
}

// ParseStatements parses block content without a header or terminator,
// applying the same template aliasing and or/if ordering as a source node.
func ParseStatements(src string) ([]program.Statement, error) {
	lines, err := lexer.LexLines(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	return assembleSource(lines)
}

// ParseLine parses a single statement. Template references are rejected
// because their binding statements would be lost.
func ParseLine(src string) (program.Statement, error) {
	lines, err := lexer.LexLines(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}
	if len(lines) != 1 {
		return nil, fmt.Errorf("expected exactly one statement, got %d lines", len(lines))
	}
	if len(lines[0].Aliases) > 0 {
		return nil, fmt.Errorf("template references need a node context at line %d", lines[0].Number)
	}
	return ParseStatement(lines[0].Tokens)
}

// parseBlock classifies a block by its header and builds it
func parseBlock(rb lexer.RawBlock) (program.Block, error) {
	header := rb.Lines[0]
	if len(header.Aliases) > 0 {
		return nil, fmt.Errorf("template reference in block header at line %d", header.Number)
	}
	for _, tok := range header.Tokens {
		if tok.Type != lexer.TokenWord {
			return nil, fmt.Errorf("block header must contain bare names at %s", tok.Pos())
		}
	}

	toks := header.Tokens
	switch {
	case len(toks) == 1:
		stmts, err := assembleSource(rb.Lines[1:])
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", toks[0].Value, err)
		}
		return &program.SourceNode{Name: toks[0].Value, Statements: stmts}, nil

	case len(toks) == 2 && toks[1].Value == defMarker:
		entries, err := assembleDefs(rb.Lines[1:])
		if err != nil {
			return nil, fmt.Errorf("definition node %q: %w", toks[0].Value, err)
		}
		return &program.DefNode{Name: toks[0].Value, Entries: entries}, nil

	default:
		return nil, fmt.Errorf("invalid block header at line %d: expected <name> or <name> %s", header.Number, defMarker)
	}
}

// assembleDefs reads name/value lines
func assembleDefs(lines []lexer.Line) ([]program.DefEntry, error) {
	entries := make([]program.DefEntry, 0, len(lines))
	seen := make(map[string]bool)

	for _, line := range lines {
		if len(line.Aliases) > 0 {
			return nil, fmt.Errorf("template reference in definition at line %d", line.Number)
		}
		if len(line.Tokens) != 2 {
			return nil, fmt.Errorf("definition must be <name> <value> at line %d, got %d tokens", line.Number, len(line.Tokens))
		}

		name := line.Tokens[0]
		if name.Type != lexer.TokenWord {
			return nil, fmt.Errorf("definition name must be a bare name at %s", name.Pos())
		}
		if seen[name.Value] {
			return nil, fmt.Errorf("duplicate definition %q at %s", name.Value, name.Pos())
		}
		seen[name.Value] = true

		value, err := parseValue(line.Tokens[1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, program.DefEntry{Name: name.Value, Value: value})
	}

	return entries, nil
}

// assembleSource parses statement lines, inserting each line's alias
// bindings immediately before the statement that uses them.
func assembleSource(lines []lexer.Line) ([]program.Statement, error) {
	var stmts []program.Statement
	var prev program.Statement

	for _, line := range lines {
		stmt, err := ParseStatement(line.Tokens)
		if err != nil {
			return nil, err
		}

		if stmt.Kind() == program.KindOr {
			if prev == nil || prev.Kind() != program.KindIf {
				return nil, fmt.Errorf("or must directly follow an if at line %d", line.Number)
			}
		}

		for _, alias := range line.Aliases {
			stmts = append(stmts, &program.LogicStmt{
				Name:     alias.Name,
				Logic:    program.Is{Name: alias.Template},
				Template: alias.Template,
			})
		}
		stmts = append(stmts, stmt)
		prev = stmt
	}

	return stmts, nil
}

// parseValue converts a single token to a Value
func parseValue(tok lexer.Token) (quest.Value, error) {
	switch tok.Type {
	case lexer.TokenWord:
		return quest.ParseValue(tok.Value), nil
	case lexer.TokenText:
		return quest.Text(tok.Value), nil
	default:
		return nil, fmt.Errorf("list literal is not a value at %s", tok.Pos())
	}
}

// parseValues converts tokens to Values
func parseValues(toks []lexer.Token) ([]quest.Value, error) {
	if len(toks) == 0 {
		return nil, nil
	}
	values := make([]quest.Value, 0, len(toks))
	for _, tok := range toks {
		v, err := parseValue(tok)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
