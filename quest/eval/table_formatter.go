package eval

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/wbrown/janus-quest/quest"
)

// TableFormatter renders pass state as markdown tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a cell
	MaxWidth int
	// TruncateString is appended to truncated cells
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatFacts renders a fact table sorted by fact name
func (tf *TableFormatter) FormatFacts(facts Facts) string {
	if len(facts) == 0 {
		return "_No facts_"
	}
	rows := make([][]string, 0, len(facts))
	for _, name := range facts.Names() {
		rows = append(rows, []string{name, fmt.Sprintf("%t", facts[name])})
	}
	return tf.formatTable([]string{"fact", "value"}, rows)
}

// FormatValues renders emitted values in emission order
func (tf *TableFormatter) FormatValues(values []quest.Value) string {
	if len(values) == 0 {
		return "_No values_"
	}
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{fmt.Sprintf("%d", i), kindOf(v), tf.formatValue(v)}
	}
	return tf.formatTable([]string{"#", "kind", "value"}, rows)
}

// FormatDefs renders a definition store in definition order
func (tf *TableFormatter) FormatDefs(defs *Defs) string {
	if defs.Len() == 0 {
		return "_No definitions_"
	}
	rows := make([][]string, 0, defs.Len())
	for _, name := range defs.Names() {
		v, _ := defs.Get(name)
		rows = append(rows, []string{name, kindOf(v), tf.formatValue(v)})
	}
	return tf.formatTable([]string{"name", "kind", "value"}, rows)
}

// formatTable formats headers and rows as a markdown table
func (tf *TableFormatter) formatTable(headers []string, rows [][]string) string {
	tableString := &strings.Builder{}

	alignment := make([]tw.Align, len(headers))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(headers)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()

	tableString.WriteString(fmt.Sprintf("\n_%d rows_\n", len(rows)))
	return tableString.String()
}

func (tf *TableFormatter) formatValue(v quest.Value) string {
	s := quest.Display(v)
	if tf.MaxWidth > 0 && len(s) > tf.MaxWidth {
		return s[:tf.MaxWidth] + tf.TruncateString
	}
	return s
}

func kindOf(v quest.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
