package lexer

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// aliasCounter is shared by every lexer so minted names stay unique for
// the lifetime of the process.
var aliasCounter atomic.Uint64

// mintAlias returns a fresh name for a template instance. Words can never
// contain '#', so a minted name cannot collide with an author's name.
func mintAlias(template string) string {
	return fmt.Sprintf("%s#%d", template, aliasCounter.Add(1))
}

// listFrame collects the entries of an open bracket literal
type listFrame struct {
	entries [][]Token
	current []Token
	line    int
	col     int
}

// Lexer splits program text into blocks of token lines
type Lexer struct {
	input    string
	pos      int
	line     int
	col      int
	fragment bool

	blocks []RawBlock
	block  *RawBlock
	cur    Line
	frames []*listFrame

	word     strings.Builder
	wordLine int
	wordCol  int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Lex tokenizes a whole program into terminated blocks
func Lex(input string) ([]RawBlock, error) {
	l := NewLexer(input)
	if err := l.Lex(); err != nil {
		return nil, err
	}
	return l.Blocks(), nil
}

// LexLines tokenizes a fragment of block content with no terminator
func LexLines(input string) ([]Line, error) {
	l := NewLexer(input)
	l.fragment = true
	if err := l.Lex(); err != nil {
		return nil, err
	}
	if l.block == nil {
		return nil, nil
	}
	return l.block.Lines, nil
}

// Blocks returns the blocks produced by Lex
func (l *Lexer) Blocks() []RawBlock {
	return l.blocks
}

// Lex scans the entire input
func (l *Lexer) Lex() error {
	for l.pos < len(l.input) {
		ch := l.peek()
		switch {
		case ch == '#':
			if err := l.flushWord(); err != nil {
				return err
			}
			l.skipComment()

		case ch == '"':
			if err := l.flushWord(); err != nil {
				return err
			}
			tok, err := l.readText()
			if err != nil {
				return err
			}
			l.emit(tok)

		case ch == '[':
			if err := l.flushWord(); err != nil {
				return err
			}
			l.frames = append(l.frames, &listFrame{line: l.line, col: l.col})
			l.advance()

		case ch == ']':
			if len(l.frames) == 0 {
				return fmt.Errorf("unbalanced ']' at %d:%d", l.line, l.col)
			}
			if err := l.flushWord(); err != nil {
				return err
			}
			l.advance()
			l.closeList()

		case ch == ',' && len(l.frames) > 0:
			if err := l.flushWord(); err != nil {
				return err
			}
			l.advance()
			frame := l.frames[len(l.frames)-1]
			if len(frame.current) > 0 {
				frame.entries = append(frame.entries, frame.current)
			}
			frame.current = nil

		case ch == ';':
			if len(l.frames) > 0 {
				return fmt.Errorf("block terminator inside list literal at %d:%d", l.line, l.col)
			}
			if l.fragment {
				return fmt.Errorf("unexpected block terminator at %d:%d", l.line, l.col)
			}
			if err := l.flushWord(); err != nil {
				return err
			}
			line, col := l.line, l.col
			l.advance()
			l.endLine()
			if l.block == nil {
				return fmt.Errorf("block terminator without a block at %d:%d", line, col)
			}
			l.blocks = append(l.blocks, *l.block)
			l.block = nil

		case ch == '\n':
			if err := l.flushWord(); err != nil {
				return err
			}
			l.advance()
			if len(l.frames) == 0 {
				l.endLine()
			}

		case isSpace(ch):
			if err := l.flushWord(); err != nil {
				return err
			}
			l.advance()

		default:
			if l.word.Len() == 0 {
				l.wordLine, l.wordCol = l.line, l.col
			}
			l.word.WriteByte(ch)
			l.advance()
		}
	}

	if len(l.frames) > 0 {
		frame := l.frames[len(l.frames)-1]
		return fmt.Errorf("unclosed '[' at %d:%d", frame.line, frame.col)
	}
	if err := l.flushWord(); err != nil {
		return err
	}
	l.endLine()

	if l.block != nil && !l.fragment {
		return fmt.Errorf("unterminated block starting at line %d: missing ';'", l.block.Line)
	}
	return nil
}

// peek returns the current character without advancing
func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

// advance moves to the next character
func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipComment discards everything up to, not including, the newline
func (l *Lexer) skipComment() {
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}
}

// readText reads a quoted literal. Quotes do not nest and have no escapes.
func (l *Lexer) readText() (Token, error) {
	line, col := l.line, l.col
	l.advance() // skip opening quote

	var result strings.Builder
	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '"' {
			l.advance()
			return Token{Type: TokenText, Value: result.String(), Line: line, Col: col}, nil
		}
		result.WriteByte(ch)
		l.advance()
	}

	return Token{}, fmt.Errorf("unterminated quote at %d:%d", line, col)
}

// flushWord turns pending characters into a word token
func (l *Lexer) flushWord() error {
	if l.word.Len() == 0 {
		return nil
	}
	word := l.word.String()
	l.word.Reset()

	tok := Token{Type: TokenWord, Value: word, Line: l.wordLine, Col: l.wordCol}
	if strings.HasPrefix(word, "'") {
		template := word[1:]
		if template == "" {
			return fmt.Errorf("empty template reference at %d:%d", l.wordLine, l.wordCol)
		}
		alias := mintAlias(template)
		l.cur.Aliases = append(l.cur.Aliases, Alias{Name: alias, Template: template})
		tok.Value = alias
	}

	l.emit(tok)
	return nil
}

// emit appends a token to the innermost open list, or to the current line
func (l *Lexer) emit(tok Token) {
	if len(l.frames) > 0 {
		frame := l.frames[len(l.frames)-1]
		frame.current = append(frame.current, tok)
		return
	}
	if len(l.cur.Tokens) == 0 {
		l.cur.Number = tok.Line
	}
	l.cur.Tokens = append(l.cur.Tokens, tok)
}

// closeList pops the innermost frame and emits it as a list token
func (l *Lexer) closeList() {
	frame := l.frames[len(l.frames)-1]
	l.frames = l.frames[:len(l.frames)-1]
	if len(frame.current) > 0 {
		frame.entries = append(frame.entries, frame.current)
	}
	l.emit(Token{Type: TokenList, Entries: frame.entries, Line: frame.line, Col: frame.col})
}

// endLine moves the current line into the open block
func (l *Lexer) endLine() {
	if len(l.cur.Tokens) == 0 {
		l.cur = Line{}
		return
	}
	if l.block == nil {
		l.block = &RawBlock{Line: l.cur.Number}
	}
	l.block.Lines = append(l.block.Lines, l.cur)
	l.cur = Line{}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v'
}
