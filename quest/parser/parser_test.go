package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/program"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestParseProgram(t *testing.T) {
	prog, err := ParseProgram(readFixture(t, "quest.txt"))
	require.NoError(t, err)
	require.NoError(t, prog.Validate())

	assert.Equal(t, []string{"gate", "hall"}, prog.SourceNames())

	gate, ok := prog.Source("gate")
	require.True(t, ok)
	require.Len(t, gate.Statements, 7)

	assert.Equal(t, &program.LogicStmt{Name: "has_key", Logic: program.Is{Name: "door.key"}}, gate.Statements[0])
	assert.Equal(t, &program.LogicStmt{
		Name:  "strong",
		Logic: program.GreaterThan{Left: quest.Ref("player.str"), Right: quest.Number(5)},
	}, gate.Statements[1])
	assert.Equal(t, &program.CompositeStmt{
		Name:   "ready",
		Expect: program.Expect{Kind: program.ExpectAll},
		Refs:   []string{"has_key", "strong"},
	}, gate.Statements[2])
	assert.Equal(t, &program.IfStmt{
		Expect: program.Expect{Kind: program.ExpectRef, Ref: "has_key"},
		Emit:   []quest.Value{quest.Text("The door creaks open.")},
		Next:   program.Now{Node: "hall"},
	}, gate.Statements[3])
	assert.Equal(t, &program.OrStmt{
		Emit: []quest.Value{quest.Text("It is locked.")},
		Next: program.Await{Node: "gate"},
	}, gate.Statements[4])
	assert.Equal(t, &program.MutStmt{Op: program.MutAdd, Target: "tries", Args: []quest.Value{quest.Number(1)}}, gate.Statements[5])

	when, ok := gate.Statements[6].(*program.WhenStmt)
	require.True(t, ok)
	require.Len(t, when.Entries, 2)
	assert.Equal(t, "has_key", when.Entries[0].Fact)
	assert.Equal(t, &program.MutStmt{Op: program.MutSwap, Target: "door", Args: []quest.Value{quest.Ref("open")}}, when.Entries[0].Mut)
	assert.Equal(t, "ready", when.Entries[1].Fact)
	assert.Equal(t, &program.MutStmt{
		Op: program.MutFn, Func: "sum", Target: "gold",
		Args: []quest.Value{quest.Number(5), quest.Ref("bonus")},
	}, when.Entries[1].Mut)

	defs, ok := prog.Def("gate")
	require.True(t, ok)
	assert.Equal(t, []program.DefEntry{
		{Name: "tries", Value: quest.Number(0)},
		{Name: "greeting", Value: quest.Text("hello there")},
	}, defs.Entries)

	hall, ok := prog.Source("hall")
	require.True(t, ok)
	require.Len(t, hall.Statements, 3)
	assert.Equal(t, &program.EmitStmt{Values: []quest.Value{quest.Text("A long hall."), quest.Number(3), quest.Bool(true)}}, hall.Statements[0])
	assert.Equal(t, &program.NextStmt{Next: program.Restart{}}, hall.Statements[2])
}

func TestProgramStringGolden(t *testing.T) {
	prog, err := ParseProgram(readFixture(t, "quest.txt"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "program", []byte(prog.String()))
}

func TestProgramStringReparses(t *testing.T) {
	prog, err := ParseProgram(readFixture(t, "quest.txt"))
	require.NoError(t, err)

	again, err := ParseProgram(prog.String())
	require.NoError(t, err)
	assert.Equal(t, prog.Blocks, again.Blocks)
}

func TestTemplateProgramStringReparses(t *testing.T) {
	prog, err := ParseProgram(readFixture(t, "templates.txt"))
	require.NoError(t, err)

	out := prog.String()
	assert.NotContains(t, out, "#")
	assert.Contains(t, out, "  blessed:any 'has_key 'door.open\n")
	assert.Contains(t, out, `  if 'tmpl "open" next:now hall`)
	assert.Contains(t, out, "  when ['blessed @favor + 1]\n")

	again, err := ParseProgram(out)
	require.NoError(t, err)
	assert.Equal(t, out, again.String())

	before, _ := prog.Source("shrine")
	after, _ := again.Source("shrine")
	require.Len(t, after.Statements, len(before.Statements))
	for i, stmt := range before.Statements {
		assert.Equal(t, stmt.Kind(), after.Statements[i].Kind(), i)
		if l, ok := stmt.(*program.LogicStmt); ok {
			assert.Equal(t, l.Template, after.Statements[i].(*program.LogicStmt).Template, i)
		}
	}
}

func TestNextRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want program.Next
	}{
		{"now", `if ok "v" next:now hall`, program.Now{Node: "hall"}},
		{"restart", `if ok "v" next:restart`, program.Restart{}},
		{"back", `if ok "v" next:back`, program.Back{}},
		{"await", `if ok "v" next:await cellar`, program.Await{Node: "cellar"}},
		{"select", `if ok next:select [yes next:now hall, no next:back, later next:await gate] "v"`, program.Select{
			Entries: []program.SelectEntry{
				{Key: "yes", Next: program.Now{Node: "hall"}},
				{Key: "no", Next: program.Back{}},
				{Key: "later", Next: program.Await{Node: "gate"}},
			},
		}},
		{"nested select", `or next:select [a next:select [b next:restart]]`, program.Select{
			Entries: []program.SelectEntry{
				{Key: "a", Next: program.Select{Entries: []program.SelectEntry{{Key: "b", Next: program.Restart{}}}}},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := ParseLine(tt.src)
			require.NoError(t, err)

			var next program.Next
			switch s := stmt.(type) {
			case *program.IfStmt:
				next = s.Next
			case *program.OrStmt:
				next = s.Next
			default:
				t.Fatalf("unexpected statement %T", stmt)
			}
			assert.Equal(t, tt.want, next)

			reparsed, err := ParseLine(next.String())
			require.NoError(t, err)
			assert.Equal(t, &program.NextStmt{Next: tt.want}, reparsed)

			again, err := ParseLine(stmt.String())
			require.NoError(t, err)
			assert.Equal(t, stmt, again)
		})
	}
}

func TestParseStatementForms(t *testing.T) {
	tests := []struct {
		src  string
		want program.Statement
	}{
		{"unlocked !door.locked", &program.LogicStmt{Name: "unlocked", Logic: program.IsNot{Name: "door.locked"}}},
		{"low hp < 3", &program.LogicStmt{Name: "low", Logic: program.LessThan{Left: quest.Ref("hp"), Right: quest.Number(3)}}},
		{"any_of:any a b c", &program.CompositeStmt{Name: "any_of", Expect: program.Expect{Kind: program.ExpectAny}, Refs: []string{"a", "b", "c"}}},
		{"calm:none angry", &program.CompositeStmt{Name: "calm", Expect: program.Expect{Kind: program.ExpectNone}, Refs: []string{"angry"}}},
		{"next:now hall", &program.NextStmt{Next: program.Now{Node: "hall"}}},
		{"next:back", &program.NextStmt{Next: program.Back{}}},
		{`if none "x" "y"`, &program.IfStmt{Expect: program.Expect{Kind: program.ExpectNone}, Emit: []quest.Value{quest.Text("x"), quest.Text("y")}}},
		{`or "only"`, &program.OrStmt{Emit: []quest.Value{quest.Text("only")}}},
		{"or next:back", &program.OrStmt{Next: program.Back{}}},
		{`emit "7" 7`, &program.EmitStmt{Values: []quest.Value{quest.Text("7"), quest.Number(7)}}},
		{"@hp sub 2", &program.MutStmt{Op: program.MutSub, Target: "hp", Args: []quest.Value{quest.Number(2)}}},
		{"@hp * x", &program.MutStmt{Op: program.MutMul, Target: "hp", Args: []quest.Value{quest.Ref("x")}}},
		{"@hp div 2", &program.MutStmt{Op: program.MutDiv, Target: "hp", Args: []quest.Value{quest.Number(2)}}},
		{`@name = "Ada"`, &program.MutStmt{Op: program.MutSwap, Target: "name", Args: []quest.Value{quest.Text("Ada")}}},
		{"@roll fn:dice", &program.MutStmt{Op: program.MutFn, Func: "dice", Target: "roll"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := ParseLine(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrailingDirectiveAfterValues(t *testing.T) {
	stmt, err := ParseLine(`if ok "a" "b" next:back`)
	require.NoError(t, err)
	s := stmt.(*program.IfStmt)
	assert.Equal(t, []quest.Value{quest.Text("a"), quest.Text("b")}, s.Emit)
	assert.Equal(t, program.Back{}, s.Next)
}

func TestQuotedTokensAreAlwaysText(t *testing.T) {
	stmt, err := ParseLine(`emit "true" "12" "gold"`)
	require.NoError(t, err)
	assert.Equal(t, []quest.Value{quest.Text("true"), quest.Text("12"), quest.Text("gold")}, stmt.(*program.EmitStmt).Values)
}

func TestTemplateAliasesPrecedeTheirStatement(t *testing.T) {
	stmts, err := ParseStatements(`
emit "start"
both:all 'has_key 'has_key
`)
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	assert.IsType(t, &program.EmitStmt{}, stmts[0])

	first := stmts[1].(*program.LogicStmt)
	second := stmts[2].(*program.LogicStmt)
	assert.Equal(t, program.Is{Name: "has_key"}, first.Logic)
	assert.Equal(t, program.Is{Name: "has_key"}, second.Logic)
	assert.NotEqual(t, first.Name, second.Name)
	assert.True(t, strings.HasPrefix(first.Name, "has_key#"))

	comp := stmts[3].(*program.CompositeStmt)
	assert.Equal(t, []string{first.Name, second.Name}, comp.Refs)
}

func TestDefinitionNode(t *testing.T) {
	prog, err := ParseProgram("inn def\n  rooms 4\n  open true\n  keeper \"Mara\"\n  sign welcome\n;\n")
	require.NoError(t, err)
	def, ok := prog.Def("inn")
	require.True(t, ok)
	assert.Equal(t, []program.DefEntry{
		{Name: "rooms", Value: quest.Number(4)},
		{Name: "open", Value: quest.Bool(true)},
		{Name: "keeper", Value: quest.Text("Mara")},
		{Name: "sign", Value: quest.Ref("welcome")},
	}, def.Entries)
	assert.Empty(t, prog.SourceNames())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unterminated block", "gate\n  emit 1\n", "missing ';'"},
		{"bad header", "gate extra words\n  emit 1\n;", "invalid block header"},
		{"quoted header", "\"gate\"\n  emit 1\n;", "header"},
		{"duplicate node", "a\n emit 1\n;\na\n emit 2\n;", `duplicate node "a"`},
		{"duplicate def", "a def\n x 1\n;\na def\n y 1\n;", `duplicate definition node "a"`},
		{"def arity", "a def\n x 1 2\n;", `definition node "a"`},
		{"def duplicate entry", "a def\n x 1\n x 2\n;", "duplicate definition"},
		{"or without if", "a\n emit 1\n or 2\n;", "or must directly follow an if"},
		{"or first", "a\n or 2\n;", "or must directly follow an if"},
		{"informal composite", "a\n c:maybe x\n;", "informal expect"},
		{"composite without refs", "a\n c:all\n;", "composite"},
		{"logic arity", "a\n x 1 2\n;", "expects 1 or 3 operands"},
		{"logic operator", "a\n x 1 = 2\n;", "unknown comparison operator"},
		{"bare negation", "a\n x !\n;", "negation without a name"},
		{"if without values", "a\n if ok\n;", "if requires"},
		{"if directive as expectation", "a\n if next:back\n;", "if requires"},
		{"now without node", "a\n if ok \"v\" next:now\n;", "requires a node name"},
		{"unknown directive", "a\n if ok \"v\" next:jump hall\n;", "unknown directive"},
		{"unknown tag", "a\n if has_key \"hi\" foo:bar hall\n;", `unknown tag "foo:bar"`},
		{"unknown tag in or", "a\n if ok \"v\"\n or goto:x hall\n;", `unknown tag "goto:x"`},
		{"misplaced directive", "a\n if ok next:back \"v\"\n;", "misplaced or unknown directive"},
		{"select without map", "a\n if ok next:select\n;", "must be followed by a map literal"},
		{"select empty", "a\n if ok next:select []\n;", "at least one entry"},
		{"select duplicate key", "a\n if ok next:select [x next:back, x next:restart]\n;", "duplicate select key"},
		{"select bad entry", "a\n if ok next:select [x hall]\n;", `select key "x"`},
		{"standalone junk", "a\n next:now hall extra\n;", "misplaced or unknown directive"},
		{"emit empty", "a\n emit\n;", "emit"},
		{"empty target", "a\n @ + 1\n;", "empty mutation target"},
		{"mut without op", "a\n @gold\n;", "requires an operator"},
		{"mut unknown op", "a\n @gold ^ 2\n;", "unknown mutation operator"},
		{"mut arity", "a\n @gold + 1 2\n;", "expects 1 argument"},
		{"when not a map", "a\n when x\n;", "single map literal"},
		{"when empty", "a\n when []\n;", "when map is empty"},
		{"when non mut", "a\n when [x emit 1]\n;", "must map to a mutation"},
		{"when duplicate", "a\n when [x @a + 1, x @b + 1]\n;", "duplicate when key"},
		{"list as value", "a\n emit [1]\n;", "list literal is not a value"},
		{"empty template", "a\n emit '\n;", "empty template reference"},
		{"unclosed list", "a\n when [x @a + 1\n;", "block terminator inside list literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLineRejectsTemplates(t *testing.T) {
	_, err := ParseLine("if 'has_key \"x\"")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template references")

	_, err = ParseLine("a 1 < 2\nb 2 < 3")
	require.Error(t, err)
}
