package annotations

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter, coloring output only when the
// writer is the process's own terminal.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stderr
	}

	useColor := false
	if f, ok := w.(*os.File); ok && (f == os.Stdout || f == os.Stderr) {
		useColor = !color.NoColor
	}

	return &OutputFormatter{useColor: useColor, writer: w}
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)
	d := event.Data

	switch event.Name {
	case PassBegin:
		return fmt.Sprintf("%s %s Pass %s starting with %d statements",
			latency,
			f.colorize("===", color.FgYellow),
			f.colorize(str(d, "node"), color.FgCyan),
			num(d, "statements"))

	case PassComplete:
		next := str(d, "next")
		if next == "" {
			next = "no transition"
		}
		return fmt.Sprintf("%s %s Pass %s done with %s, %s",
			latency,
			f.colorize("===", color.FgGreen),
			f.colorize(str(d, "node"), color.FgCyan),
			f.colorizeCount("values", num(d, "emitted")),
			next)

	case StatementEvaluated:
		marker := " "
		if b, _ := d["actionable"].(bool); b {
			marker = f.colorize("→", color.FgGreen)
		}
		return fmt.Sprintf("%s %s #%d %s", latency, marker, num(d, "index"), str(d, "statement"))

	case FactWritten:
		value, _ := d["value"].(bool)
		shown := f.colorize("false", color.FgRed)
		if value {
			shown = f.colorize("true", color.FgGreen)
		}
		return fmt.Sprintf("%s     fact %s = %s", latency, str(d, "fact"), shown)

	case LogicSkipped:
		return fmt.Sprintf("%s     fact %s %s: %s",
			latency, str(d, "fact"), f.colorize("skipped", color.FgYellow), str(d, "reason"))

	case MutationApplied:
		return fmt.Sprintf("%s     @%s ← %s (%s)",
			latency, str(d, "target"), str(d, "value"), str(d, "store"))

	case MutationSkipped:
		return fmt.Sprintf("%s     @%s %s: %s",
			latency, str(d, "target"), f.colorize("unchanged", color.FgYellow), str(d, "reason"))

	case CursorMoved:
		return fmt.Sprintf("%s %s %s → %s (%s)",
			latency,
			f.colorize(">>>", color.FgBlue),
			str(d, "from"),
			f.colorize(str(d, "to"), color.FgCyan),
			str(d, "directive"))

	case CursorAwait:
		return fmt.Sprintf("%s %s %s awaiting advance to %s",
			latency, f.colorize("...", color.FgYellow), str(d, "node"), str(d, "target"))

	case CursorSelect:
		keys, _ := d["keys"].([]string)
		return fmt.Sprintf("%s %s %s waiting for a choice of [%s]",
			latency, f.colorize("???", color.FgYellow), str(d, "node"), strings.Join(keys, " "))

	case CursorStopped:
		return fmt.Sprintf("%s %s stopped at %s after %d steps: %s",
			latency, f.colorize("■", color.FgRed), str(d, "node"), num(d, "steps"), str(d, "reason"))

	default:
		// Generic format for unknown events
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	// Use microseconds for sub-millisecond durations
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)
	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorizeCount formats a count with a label
func (f *OutputFormatter) colorizeCount(label string, count int) string {
	text := fmt.Sprintf("%d %s", count, label)
	if !f.useColor {
		return text
	}
	if count == 0 {
		return color.HiBlackString(text)
	}
	return color.MagentaString(text)
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// ConsoleHandler creates a handler that prints formatted events to stderr.
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stderr).Handle
}

func str(data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func num(data map[string]interface{}, key string) int {
	if v, ok := data[key].(int); ok {
		return v
	}
	return 0
}
