package storage

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/eval"
	"github.com/wbrown/janus-quest/quest/parser"
	"github.com/wbrown/janus-quest/quest/program"
)

const worldYAML = `
player:
  name: Ada
  gold: 10
  stats:
    str: 7.5
door:
  key: true
  locked: false
title: "42"
`

func TestLoadWorld(t *testing.T) {
	world, err := LoadWorld(strings.NewReader(worldYAML))
	require.NoError(t, err)

	assert.Equal(t, map[string]quest.Value{
		"player.name":      quest.Text("Ada"),
		"player.gold":      quest.Number(10),
		"player.stats.str": quest.Number(7.5),
		"door.key":         quest.Bool(true),
		"door.locked":      quest.Bool(false),
		"title":            quest.Text("42"),
	}, world)
}

func TestLoadWorldEmpty(t *testing.T) {
	world, err := LoadWorld(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, world)
}

func TestLoadWorldErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"not a mapping", "- a\n- b\n", "must be a mapping"},
		{"sequence value", "items:\n  - sword\n", "items: unsupported value"},
		{"null value", "player:\n  name: ~\n", "player.name: null value"},
		{"bad yaml", "a: [\n", "failed to decode world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWorld(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFunctions(t *testing.T) {
	f := NewFunctions()

	tests := []struct {
		name     string
		receiver quest.Value
		args     []quest.Value
		want     quest.Value
		ok       bool
	}{
		{"concat", quest.Text("Sir "), []quest.Value{quest.Text("Ada"), quest.Number(2)}, quest.Text("Sir Ada2"), true},
		{"upper", quest.Text("ada"), nil, quest.Text("ADA"), true},
		{"lower", quest.Text("ADA"), nil, quest.Text("ada"), true},
		{"upper", quest.Number(1), nil, nil, false},
		{"len", quest.Text("héllo"), nil, quest.Number(5), true},
		{"min", quest.Number(5), []quest.Value{quest.Number(3), quest.Number(9)}, quest.Number(3), true},
		{"max", quest.Number(5), []quest.Value{quest.Number(3), quest.Number(9)}, quest.Number(9), true},
		{"max", quest.Number(5), []quest.Value{quest.Text("9")}, nil, false},
		{"min", quest.Number(5), nil, nil, false},
		{"abs", quest.Number(-4), nil, quest.Number(4), true},
		{"round", quest.Number(2.5), nil, quest.Number(3), true},
		{"round", quest.Number(3.14159), []quest.Value{quest.Number(2)}, quest.Number(3.14), true},
		{"not", quest.Bool(true), nil, quest.Bool(false), true},
		{"not", quest.Text("x"), nil, quest.Bool(false), true},
		{"missing", quest.Number(1), nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.Call(tt.receiver, tt.name, tt.args)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFunctionsValidate(t *testing.T) {
	f := NewFunctions()
	assert.NoError(t, f.Validate("round", 1))
	assert.ErrorContains(t, f.Validate("round", 2), "at most 1")
	assert.ErrorContains(t, f.Validate("min", 0), "at least 1")
	assert.ErrorContains(t, f.Validate("nope", 0), "unknown function 'nope'")
	assert.True(t, strings.HasPrefix(f.ListFunctions(), "abs, concat"))

	f.Register(FunctionMetadata{
		Name:    "double",
		MinArgs: 0,
		MaxArgs: 0,
		Fn: func(receiver quest.Value, _ []quest.Value) (quest.Value, bool) {
			n, ok := quest.AsNumber(receiver)
			return quest.Number(2 * n), ok
		},
	})
	assert.True(t, f.IsRegistered("double"))
	v, ok := f.Call(quest.Number(4), "double", nil)
	require.True(t, ok)
	assert.Equal(t, quest.Number(8), v)
	assert.False(t, DefaultFunctions.IsRegistered("double"))
}

func TestMemoryHost(t *testing.T) {
	h := NewMemoryHost(nil)
	_, ok := h.Get("player.gold")
	assert.False(t, ok)

	h.Load(map[string]quest.Value{"player.gold": quest.Number(10), "door.key": quest.Bool(true)})
	h.Set("player.name", quest.Text("ada"))

	v, ok := h.Get("player.gold")
	require.True(t, ok)
	assert.Equal(t, quest.Number(10), v)
	assert.Equal(t, []string{"door.key", "player.gold", "player.name"}, h.Paths())

	v, ok = h.Call(quest.Text("ada"), "upper", nil)
	require.True(t, ok)
	assert.Equal(t, quest.Text("ADA"), v)

	snap := h.Snapshot()
	snap["player.gold"] = quest.Number(0)
	v, _ = h.Get("player.gold")
	assert.Equal(t, quest.Number(10), v)
}

func newBadgerHost(t *testing.T) *BadgerHost {
	t.Helper()
	h, err := NewBadgerHost("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestBadgerHost(t *testing.T) {
	h := newBadgerHost(t)

	_, ok := h.Get("player.gold")
	assert.False(t, ok)

	values := map[string]quest.Value{
		"player.gold": quest.Number(10),
		"player.name": quest.Text("Ada"),
		"door.key":    quest.Bool(true),
		"door.target": quest.Ref("hall"),
	}
	require.NoError(t, h.Load(values))

	for path, want := range values {
		got, ok := h.Get(path)
		require.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}

	h.Set("player.gold", quest.Number(12))
	v, _ := h.Get("player.gold")
	assert.Equal(t, quest.Number(12), v)
	require.NoError(t, h.Err())

	paths, err := h.Paths()
	require.NoError(t, err)
	assert.Equal(t, []string{"door.key", "door.target", "player.gold", "player.name"}, paths)

	snap, err := h.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap, 4)
	assert.Equal(t, quest.Number(12), snap["player.gold"])
}

func TestBadgerHostPersists(t *testing.T) {
	dir, err := os.MkdirTemp("", "quest-badger-*")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	h, err := NewBadgerHost(dir, nil)
	require.NoError(t, err)
	h.Set("chapter", quest.Number(3))
	require.NoError(t, h.Close())

	h, err = NewBadgerHost(dir, nil)
	require.NoError(t, err)
	defer h.Close()

	v, ok := h.Get("chapter")
	require.True(t, ok)
	assert.Equal(t, quest.Number(3), v)
}

func TestHostsDrivePasses(t *testing.T) {
	node := `
has_key door.key
rich player.gold > 5
if all "welcome" next:now hall
`
	stmts, err := parser.ParseStatements(node)
	require.NoError(t, err)
	world, err := LoadWorld(strings.NewReader(worldYAML))
	require.NoError(t, err)

	hosts := map[string]eval.Host{
		"memory": NewMemoryHost(nil),
		"badger": newBadgerHost(t),
	}

	for name, host := range hosts {
		t.Run(name, func(t *testing.T) {
			Seed(host, world)
			r := eval.Pass(&program.SourceNode{Name: "gate", Statements: stmts}, nil, nil, host)
			assert.Equal(t, []quest.Value{quest.Text("welcome")}, r.Emit)

			e := eval.New(nil, nil, host)
			e.Eval(mustParse(t, "@player.name fn:concat \" the Bold\""))
			v, _ := host.Get("player.name")
			assert.Equal(t, quest.Text("Ada the Bold"), v)

			e.Eval(mustParse(t, "@player.gold fn:min 3"))
			v, _ = host.Get("player.gold")
			assert.Equal(t, quest.Number(3), v)
		})
	}
}

func mustParse(t *testing.T, src string) program.Statement {
	t.Helper()
	s, err := parser.ParseLine(src)
	require.NoError(t, err)
	return s
}
