package compiler

import "strconv"

// uidGen hands out script identifiers. Every identifier starts with _$
// so it cannot collide with user code.
type uidGen struct {
	counters map[string]int
}

func newUIDGen() *uidGen {
	return &uidGen{counters: make(map[string]int)}
}

func (g *uidGen) next(prefix string) string {
	n := g.counters[prefix]
	g.counters[prefix] = n + 1
	return "_$" + prefix + strconv.Itoa(n)
}

// placeholder returns a component placeholder comment unique within the
// template being compiled.
func (g *uidGen) placeholder() string {
	n := g.counters["cmp"]
	g.counters["cmp"] = n + 1
	return PlaceholderPrefix + strconv.Itoa(n) + PlaceholderSuffix
}

// Placeholder comment markers embedded in templates
const (
	PlaceholderPrefix = "<!--__PRIA_CMP_"
	PlaceholderSuffix = "__-->"
)
