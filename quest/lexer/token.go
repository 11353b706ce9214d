package lexer

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a script token
type TokenType int

const (
	TokenWord TokenType = iota
	TokenText
	TokenList
)

// Token represents a lexical token in a script line
type Token struct {
	Type    TokenType
	Value   string    // For words and text
	Entries [][]Token // For list literals, one slice per comma separated entry
	Line    int
	Col     int
}

// Word creates a word token without position information
func Word(s string) Token {
	return Token{Type: TokenWord, Value: s}
}

// IsWord reports whether the token is a bare word equal to s
func (t Token) IsWord(s string) bool {
	return t.Type == TokenWord && t.Value == s
}

// Pos returns the token position as line:col
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Col)
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenWord:
		return fmt.Sprintf("Word[%d:%d]:%s", t.Line, t.Col, t.Value)
	case TokenText:
		return fmt.Sprintf("Text[%d:%d]:%q", t.Line, t.Col, t.Value)
	case TokenList:
		parts := make([]string, len(t.Entries))
		for i, entry := range t.Entries {
			items := make([]string, len(entry))
			for j, tok := range entry {
				items[j] = tok.String()
			}
			parts[i] = strings.Join(items, " ")
		}
		return fmt.Sprintf("List[%d:%d]:[%s]", t.Line, t.Col, strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("Unknown[%d:%d]:%s", t.Line, t.Col, t.Value)
	}
}

// Alias binds a minted fact name to the template it instantiates
type Alias struct {
	Name     string
	Template string
}

// Line is the token sequence of one logical program line
type Line struct {
	Number  int
	Tokens  []Token
	Aliases []Alias
}

// RawBlock is a terminated group of lines, not yet classified
type RawBlock struct {
	Line  int
	Lines []Line
}
