package quest

import (
	"errors"
	"strconv"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindText Kind = iota
	KindNumber
	KindBool
	KindRef
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Value is the closed set of values a script can hold or emit.
// The only implementations are Text, Number, Bool and Ref.
type Value interface {
	Kind() Kind
	String() string
	sealed()
}

// Text is a quoted literal
type Text string

// Number is a numeric literal
type Number float64

// Bool is a boolean literal
type Bool bool

// Ref is a symbolic, path-style name resolved at evaluation time
type Ref string

func (Text) Kind() Kind   { return KindText }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (Ref) Kind() Kind    { return KindRef }

func (Text) sealed()   {}
func (Number) sealed() {}
func (Bool) sealed()   {}
func (Ref) sealed()    {}

// String quotes the text as written in programs. The grammar has no
// escapes, so the content is copied as is.
func (t Text) String() string { return `"` + string(t) + `"` }

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (r Ref) String() string { return string(r) }

// ParseValue classifies a bare token. Numbers win over booleans, and
// anything else becomes a Ref. Literals too large for a float64 become
// ±Inf. It never fails.
func ParseValue(token string) Value {
	f, err := strconv.ParseFloat(token, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return Number(f)
	}
	switch token {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Ref(token)
}

// AsNumber returns the float held by a Number value
func AsNumber(v Value) (float64, bool) {
	if n, ok := v.(Number); ok {
		return float64(n), true
	}
	return 0, false
}

// Truthy reports how a value counts when used as a fact: booleans count as
// themselves, any other existing value counts as true.
func Truthy(v Value) bool {
	if b, ok := v.(Bool); ok {
		return bool(b)
	}
	return v != nil
}

// Display renders a value for output to a player or log, without quoting text
func Display(v Value) string {
	if v == nil {
		return "nil"
	}
	if t, ok := v.(Text); ok {
		return string(t)
	}
	return v.String()
}
