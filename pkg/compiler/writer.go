package compiler

import (
	"fmt"
	"strings"
)

// scriptWriter accumulates generated JavaScript one line at a time
type scriptWriter struct {
	sb    strings.Builder
	depth int
}

func (w *scriptWriter) line(format string, args ...any) {
	for i := 0; i < w.depth; i++ {
		w.sb.WriteString("  ")
	}
	if len(args) == 0 {
		w.sb.WriteString(format)
	} else {
		fmt.Fprintf(&w.sb, format, args...)
	}
	w.sb.WriteByte('\n')
}

func (w *scriptWriter) open(format string, args ...any) {
	w.line(format, args...)
	w.depth++
}

func (w *scriptWriter) close(format string, args ...any) {
	if w.depth > 0 {
		w.depth--
	}
	w.line(format, args...)
}

func (w *scriptWriter) String() string {
	return w.sb.String()
}

// indent prefixes every non-empty line of s
func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			sb.WriteString(prefix)
		}
		sb.WriteString(l)
	}
	return sb.String()
}
