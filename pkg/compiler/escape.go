package compiler

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;")

// escapeAttr escapes a decoded attribute value for a double-quoted
// HTML attribute.
func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// decodeEntities resolves character references written in JSX text and
// string attributes.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// literalKind describes a compile-time constant attribute expression
type literalKind uint8

const (
	notLiteral literalKind = iota
	literalOmit
	literalBare
	literalValue
)

// foldLiteral evaluates expression code that is a constant literal. Only
// forms whose string conversion is unambiguous are folded; everything
// else is bound at runtime.
func foldLiteral(code string) (literalKind, string) {
	code = strings.TrimSpace(code)
	switch code {
	case "true":
		return literalBare, ""
	case "false", "null", "undefined":
		return literalOmit, ""
	}
	if code == "" {
		return notLiteral, ""
	}

	if f, err := strconv.ParseFloat(code, 64); err == nil && code != "-0" && strconv.FormatFloat(f, 'f', -1, 64) == code {
		return literalValue, code
	}

	q := code[0]
	if len(code) >= 2 && (q == '"' || q == '\'' || q == '`') && code[len(code)-1] == q {
		inner := code[1 : len(code)-1]
		if strings.ContainsRune(inner, '\\') || strings.IndexByte(inner, q) >= 0 {
			return notLiteral, ""
		}
		if q == '`' && strings.Contains(inner, "${") {
			return notLiteral, ""
		}
		if q != '`' && strings.ContainsAny(inner, "\r\n") {
			return notLiteral, ""
		}
		return literalValue, inner
	}
	return notLiteral, ""
}
