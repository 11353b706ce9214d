package storage

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/wbrown/janus-quest/quest"
)

// Function computes a new value for a mutation target. The receiver is the
// target's current value.
type Function func(receiver quest.Value, args []quest.Value) (quest.Value, bool)

// FunctionMetadata describes a host function
type FunctionMetadata struct {
	Name        string
	MinArgs     int
	MaxArgs     int // -1 for unlimited
	Description string
	Fn          Function
}

// Functions is the registry behind a host's Call
type Functions struct {
	functions map[string]FunctionMetadata
}

// DefaultFunctions holds the builtin functions
var DefaultFunctions = NewFunctions()

// NewFunctions returns a registry with the builtin functions registered
func NewFunctions() *Functions {
	r := &Functions{
		functions: make(map[string]FunctionMetadata),
	}

	// Text functions
	r.Register(FunctionMetadata{
		Name:        "concat",
		MinArgs:     0,
		MaxArgs:     -1,
		Description: "Append the arguments to the receiver as text",
		Fn:          concat,
	})

	r.Register(FunctionMetadata{
		Name:        "upper",
		MinArgs:     0,
		MaxArgs:     0,
		Description: "Upper-case a text receiver",
		Fn:          mapText(strings.ToUpper),
	})

	r.Register(FunctionMetadata{
		Name:        "lower",
		MinArgs:     0,
		MaxArgs:     0,
		Description: "Lower-case a text receiver",
		Fn:          mapText(strings.ToLower),
	})

	r.Register(FunctionMetadata{
		Name:        "len",
		MinArgs:     0,
		MaxArgs:     0,
		Description: "Length of a text receiver in characters",
		Fn: func(receiver quest.Value, _ []quest.Value) (quest.Value, bool) {
			t, ok := receiver.(quest.Text)
			if !ok {
				return nil, false
			}
			return quest.Number(utf8.RuneCountInString(string(t))), true
		},
	})

	// Numeric functions
	r.Register(FunctionMetadata{
		Name:        "min",
		MinArgs:     1,
		MaxArgs:     -1,
		Description: "Smallest of the receiver and the arguments",
		Fn:          fold(math.Min),
	})

	r.Register(FunctionMetadata{
		Name:        "max",
		MinArgs:     1,
		MaxArgs:     -1,
		Description: "Largest of the receiver and the arguments",
		Fn:          fold(math.Max),
	})

	r.Register(FunctionMetadata{
		Name:        "abs",
		MinArgs:     0,
		MaxArgs:     0,
		Description: "Absolute value of a numeric receiver",
		Fn: func(receiver quest.Value, _ []quest.Value) (quest.Value, bool) {
			n, ok := quest.AsNumber(receiver)
			if !ok {
				return nil, false
			}
			return quest.Number(math.Abs(n)), true
		},
	})

	r.Register(FunctionMetadata{
		Name:        "round",
		MinArgs:     0,
		MaxArgs:     1,
		Description: "Round a numeric receiver to an optional number of decimals",
		Fn:          round,
	})

	// Boolean functions
	r.Register(FunctionMetadata{
		Name:        "not",
		MinArgs:     0,
		MaxArgs:     0,
		Description: "Negate the receiver's truth",
		Fn: func(receiver quest.Value, _ []quest.Value) (quest.Value, bool) {
			return quest.Bool(!quest.Truthy(receiver)), true
		},
	})

	return r
}

// Register adds a function to the registry
func (r *Functions) Register(meta FunctionMetadata) {
	r.functions[meta.Name] = meta
}

// IsRegistered checks if a function name is registered
func (r *Functions) IsRegistered(name string) bool {
	_, ok := r.functions[name]
	return ok
}

// Validate checks if a function call is valid
func (r *Functions) Validate(name string, argCount int) error {
	meta, ok := r.functions[name]
	if !ok {
		return fmt.Errorf("unknown function '%s' - supported functions: %s",
			name, r.ListFunctions())
	}

	if argCount < meta.MinArgs {
		return fmt.Errorf("function '%s' requires at least %d arguments, got %d",
			name, meta.MinArgs, argCount)
	}

	if meta.MaxArgs != -1 && argCount > meta.MaxArgs {
		return fmt.Errorf("function '%s' accepts at most %d arguments, got %d",
			name, meta.MaxArgs, argCount)
	}

	return nil
}

// ListFunctions returns a comma-separated, sorted list of registered functions
func (r *Functions) ListFunctions() string {
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// GetMetadata returns metadata for a function
func (r *Functions) GetMetadata(name string) (FunctionMetadata, bool) {
	meta, ok := r.functions[name]
	return meta, ok
}

// Call runs a registered function. Unknown names and arity mismatches
// produce no value.
func (r *Functions) Call(receiver quest.Value, name string, args []quest.Value) (quest.Value, bool) {
	if r == nil || r.Validate(name, len(args)) != nil {
		return nil, false
	}
	meta := r.functions[name]
	if meta.Fn == nil {
		return nil, false
	}
	return meta.Fn(receiver, args)
}

func concat(receiver quest.Value, args []quest.Value) (quest.Value, bool) {
	var b strings.Builder
	if receiver != nil {
		b.WriteString(quest.Display(receiver))
	}
	for _, a := range args {
		b.WriteString(quest.Display(a))
	}
	return quest.Text(b.String()), true
}

func mapText(f func(string) string) Function {
	return func(receiver quest.Value, _ []quest.Value) (quest.Value, bool) {
		t, ok := receiver.(quest.Text)
		if !ok {
			return nil, false
		}
		return quest.Text(f(string(t))), true
	}
}

// fold combines the receiver with each argument in turn
func fold(combine func(a, b float64) float64) Function {
	return func(receiver quest.Value, args []quest.Value) (quest.Value, bool) {
		acc, ok := quest.AsNumber(receiver)
		if !ok {
			return nil, false
		}
		for _, a := range args {
			n, ok := quest.AsNumber(a)
			if !ok {
				return nil, false
			}
			acc = combine(acc, n)
		}
		return quest.Number(acc), true
	}
}

func round(receiver quest.Value, args []quest.Value) (quest.Value, bool) {
	n, ok := quest.AsNumber(receiver)
	if !ok {
		return nil, false
	}
	places := 0.0
	if len(args) == 1 {
		if places, ok = quest.AsNumber(args[0]); !ok {
			return nil, false
		}
	}
	scale := math.Pow(10, math.Trunc(places))
	return quest.Number(math.Round(n*scale) / scale), true
}
