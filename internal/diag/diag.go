// Package diag renders compile and link errors for the terminal
package diag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/recera/pria/pkg/compiler"
)

var (
	errorColor = lipgloss.Color("#ef4444") // Red
	stageColor = lipgloss.Color("#d946ef") // Magenta
	pathColor  = lipgloss.Color("#06b6d4") // Cyan
	labelColor = lipgloss.Color("#f59e0b") // Yellow
	mutedColor = lipgloss.Color("#94a3b8") // Muted gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(errorColor)

	stageStyle  = lipgloss.NewStyle().Foreground(stageColor)
	pathStyle   = lipgloss.NewStyle().Foreground(pathColor)
	labelStyle  = lipgloss.NewStyle().Foreground(labelColor)
	gutterStyle = lipgloss.NewStyle().Foreground(mutedColor)
	markStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
)

type palette struct {
	title, stage, path, label, gutter, mark func(...string) string
}

var (
	colored = palette{
		title:  titleStyle.Render,
		stage:  stageStyle.Render,
		path:   pathStyle.Render,
		label:  labelStyle.Render,
		gutter: gutterStyle.Render,
		mark:   markStyle.Render,
	}
	plain = palette{
		title:  join,
		stage:  join,
		path:   join,
		label:  join,
		gutter: join,
		mark:   join,
	}
)

func join(s ...string) string { return strings.Join(s, " ") }

// Format renders err with terminal styles. source is the content of the
// file the error points at and may be nil.
func Format(err error, source []byte) string {
	return format(err, source, colored)
}

// Plain renders err like Format without styles
func Plain(err error, source []byte) string {
	return format(err, source, plain)
}

func format(err error, source []byte, p palette) string {
	var cerr *compiler.Error
	if !errors.As(err, &cerr) {
		return p.title(" PRIA ERROR ") + "\n" + err.Error()
	}

	var sb strings.Builder
	sb.WriteString(p.title(" PRIA ERROR "))
	sb.WriteString(" " + p.stage("["+cerr.Kind.Stage()+"]"))
	if where := location(cerr); where != "" {
		sb.WriteString(" " + p.path(where))
	}
	sb.WriteString("\n")
	sb.WriteString(message(cerr))

	if cerr.Component != "" {
		sb.WriteString("\n" + p.label("Component:") + " " + cerr.Component)
	}
	if len(cerr.Chain) > 0 {
		sb.WriteString("\n" + p.label("Chain:") + " " + strings.Join(cerr.Chain, " -> "))
	}
	if frame := codeFrame(source, cerr.Loc, p); frame != "" {
		sb.WriteString("\n\n" + frame)
	}
	return sb.String()
}

// location is file:line:col with the file relative to the working
// directory when it lies inside it.
func location(e *compiler.Error) string {
	file := e.File
	if file == "" {
		return ""
	}
	if wd, err := os.Getwd(); err == nil && filepath.IsAbs(file) {
		if rel, err := filepath.Rel(wd, file); err == nil && !strings.HasPrefix(rel, "..") {
			file = rel
		}
	}
	if e.Loc.IsZero() {
		return file
	}
	return file + ":" + e.Loc.String()
}

func message(e *compiler.Error) string {
	msg := e.Kind.String() + ": " + e.Msg
	if e.Expr != "" {
		msg += fmt.Sprintf(" (%q)", e.Expr)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// codeFrame shows the line at loc with one line of context on each side
// and a caret under the column.
func codeFrame(source []byte, loc compiler.Loc, p palette) string {
	if len(source) == 0 || loc.IsZero() {
		return ""
	}
	lines := strings.Split(strings.ReplaceAll(string(source), "\r\n", "\n"), "\n")
	if loc.Line > len(lines) {
		return ""
	}
	start := max(1, loc.Line-1)
	end := min(len(lines), loc.Line+1)
	width := len(strconv.Itoa(end))

	var out []string
	for n := start; n <= end; n++ {
		marker := " "
		if n == loc.Line {
			marker = p.mark(">")
		}
		num := fmt.Sprintf("%*d", width, n)
		out = append(out, fmt.Sprintf("%s %s | %s", marker, p.gutter(num), lines[n-1]))
		if n == loc.Line {
			pad := strings.Repeat(" ", max(0, loc.Column-1))
			out = append(out, fmt.Sprintf("  %s | %s%s", strings.Repeat(" ", width), pad, p.mark("^")))
		}
	}
	return strings.Join(out, "\n")
}
