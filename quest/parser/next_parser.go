package parser

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-quest/quest/lexer"
	"github.com/wbrown/janus-quest/quest/program"
)

const (
	tagSelect  = "next:select"
	tagNow     = "next:now"
	tagAwait   = "next:await"
	tagBack    = "next:back"
	tagRestart = "next:restart"
)

// splitNext extracts an optional trailing directive from the tail of an
// if/or line and returns the tokens that remain. A next:select with its map
// is removed wherever it appears; the other forms must be at the end.
func splitNext(toks []lexer.Token) (program.Next, []lexer.Token, error) {
	for i, tok := range toks {
		if !tok.IsWord(tagSelect) {
			continue
		}
		if i+1 >= len(toks) || toks[i+1].Type != lexer.TokenList {
			return nil, nil, fmt.Errorf("%s must be followed by a map literal at %s", tagSelect, tok.Pos())
		}
		sel, err := parseSelect(toks[i+1])
		if err != nil {
			return nil, nil, err
		}

		rest := make([]lexer.Token, 0, len(toks)-2)
		rest = append(rest, toks[:i]...)
		rest = append(rest, toks[i+2:]...)
		if err := checkMisplaced(rest); err != nil {
			return nil, nil, err
		}
		return sel, rest, nil
	}

	next, rest, err := trailingNext(toks)
	if err != nil {
		return nil, nil, err
	}
	if err := checkMisplaced(rest); err != nil {
		return nil, nil, err
	}
	return next, rest, nil
}

// trailingNext recognizes the singleton and pair directive forms
func trailingNext(toks []lexer.Token) (program.Next, []lexer.Token, error) {
	n := len(toks)
	if n == 0 {
		return nil, toks, nil
	}

	last := toks[n-1]
	switch {
	case last.IsWord(tagBack):
		return program.Back{}, toks[:n-1], nil
	case last.IsWord(tagRestart):
		return program.Restart{}, toks[:n-1], nil
	case last.IsWord(tagNow), last.IsWord(tagAwait):
		return nil, nil, fmt.Errorf("%s requires a node name at %s", last.Value, last.Pos())
	}

	if n < 2 {
		return nil, toks, nil
	}

	tag := toks[n-2]
	if tag.Type != lexer.TokenWord {
		return nil, toks, nil
	}
	if !isNextWord(tag.Value) {
		if strings.Contains(tag.Value, ":") {
			return nil, nil, fmt.Errorf("unknown tag %q at %s", tag.Value, tag.Pos())
		}
		return nil, toks, nil
	}
	if tag.IsWord(tagBack) || tag.IsWord(tagRestart) {
		// singletons never take an operand; the caller reports them
		return nil, toks, nil
	}
	if last.Type != lexer.TokenWord {
		return nil, nil, fmt.Errorf("%s requires a bare node name at %s", tag.Value, last.Pos())
	}

	switch tag.Value {
	case tagNow:
		return program.Now{Node: last.Value}, toks[:n-2], nil
	case tagAwait:
		return program.Await{Node: last.Value}, toks[:n-2], nil
	default:
		return nil, nil, fmt.Errorf("unknown directive %q at %s", tag.Value, tag.Pos())
	}
}

// checkMisplaced rejects directive tags left among plain values
func checkMisplaced(toks []lexer.Token) error {
	for _, tok := range toks {
		if tok.Type == lexer.TokenWord && isNextWord(tok.Value) {
			return fmt.Errorf("misplaced or unknown directive %q at %s", tok.Value, tok.Pos())
		}
	}
	return nil
}

// parseDirective parses tokens that must form exactly one directive
func parseDirective(toks []lexer.Token) (program.Next, error) {
	next, rest, err := splitNext(toks)
	if err != nil {
		return nil, err
	}
	if next == nil {
		if len(toks) > 0 {
			return nil, fmt.Errorf("invalid directive at %s", toks[0].Pos())
		}
		return nil, fmt.Errorf("missing directive")
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected %s after directive at %s", describe(rest[0]), rest[0].Pos())
	}
	return next, nil
}

// parseSelect reads a map from choice keys to directives
func parseSelect(list lexer.Token) (program.Select, error) {
	if len(list.Entries) == 0 {
		return program.Select{}, fmt.Errorf("%s requires at least one entry at %s", tagSelect, list.Pos())
	}

	sel := program.Select{Entries: make([]program.SelectEntry, 0, len(list.Entries))}
	seen := make(map[string]bool)
	for _, entry := range list.Entries {
		key := entry[0]
		if key.Type != lexer.TokenWord {
			return program.Select{}, fmt.Errorf("select key must be a bare name at %s", key.Pos())
		}
		if seen[key.Value] {
			return program.Select{}, fmt.Errorf("duplicate select key %q at %s", key.Value, key.Pos())
		}
		seen[key.Value] = true

		if len(entry) < 2 {
			return program.Select{}, fmt.Errorf("select key %q has no directive at %s", key.Value, key.Pos())
		}
		next, err := parseDirective(entry[1:])
		if err != nil {
			return program.Select{}, fmt.Errorf("select key %q: %w", key.Value, err)
		}
		sel.Entries = append(sel.Entries, program.SelectEntry{Key: key.Value, Next: next})
	}

	return sel, nil
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokenText:
		return fmt.Sprintf("text %q", tok.Value)
	case lexer.TokenList:
		return "list literal"
	default:
		return fmt.Sprintf("%q", strings.TrimSpace(tok.Value))
	}
}
