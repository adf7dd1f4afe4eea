package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ANSI colors per level, used when the stream is a terminal.
var levelColors = map[slog.Level]string{
	slog.LevelDebug: "\x1b[90m",
	slog.LevelInfo:  "\x1b[36m",
	slog.LevelWarn:  "\x1b[33m",
	slog.LevelError: "\x1b[31m",
}

const colorReset = "\x1b[0m"

// Human-readable "LEVEL message key=value" formatter.
//
// Groups are rendered as dotted key prefixes. The timestamp and the source
// location are only shown in verbose mode.
type PrettyFormatter struct {
	color   bool
	verbose bool
}

// Creates a formatter; color enables ANSI level colors.
func NewPrettyFormatter(color bool) *PrettyFormatter {
	return &PrettyFormatter{color: color}
}

// Enables timestamps and source locations.
func (f *PrettyFormatter) SetVerbose(verbose bool) {
	f.verbose = verbose
}

// Format renders r followed by a newline.
func (f *PrettyFormatter) Format(r slog.Record, groups []string, attrs []slog.Attr) []byte {
	var b strings.Builder

	if f.verbose && !r.Time.IsZero() {
		b.WriteString(r.Time.UTC().Format(time.RFC3339))
		b.WriteByte(' ')
	}

	label := fmt.Sprintf("%-5s", r.Level.String())
	if c, ok := levelColors[r.Level]; ok && f.color {
		label = c + label + colorReset
	}
	b.WriteString(label)
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range attrs {
		appendAttr(&b, groups, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(&b, groups, a)
		return true
	})

	if f.verbose && r.PC != 0 {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&b, " source=%s:%d", src.File, src.Line)
		}
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

func appendAttr(b *strings.Builder, groups []string, a slog.Attr) {
	v := a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if v.Kind() == slog.KindGroup {
		nested := groups
		if a.Key != "" {
			nested = append(append([]string(nil), groups...), a.Key)
		}
		for _, g := range v.Group() {
			appendAttr(b, nested, g)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}

	b.WriteByte(' ')
	b.WriteString(key)
	b.WriteByte('=')
	b.WriteString(formatValue(v))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok && err != nil {
			return strconv.Quote(err.Error())
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}
