package compiler

import "strings"

// Step is one hop of a DOM path
type Step byte

const (
	// StepFirst moves to the first child
	StepFirst Step = 'f'
	// StepNext moves to the next sibling
	StepNext Step = 'n'
)

// DefaultAnchorInterval is the longest step chain emitted before the
// current node is captured in a fresh anchor variable.
const DefaultAnchorInterval = 6

// Address locates a template node relative to a named anchor variable.
// Addresses are values; First and Next return extended copies.
type Address struct {
	Anchor string
	Steps  []Step
}

// RootAddress addresses the anchor itself
func RootAddress(anchor string) Address {
	return Address{Anchor: anchor}
}

func (a Address) with(s Step) Address {
	steps := make([]Step, len(a.Steps), len(a.Steps)+1)
	copy(steps, a.Steps)
	return Address{Anchor: a.Anchor, Steps: append(steps, s)}
}

// First addresses the first child of a's node
func (a Address) First() Address { return a.with(StepFirst) }

// Next addresses the next sibling of a's node
func (a Address) Next() Address { return a.with(StepNext) }

// Len returns the number of steps
func (a Address) Len() int { return len(a.Steps) }

// Path returns the steps as a string such as "fnn"
func (a Address) Path() string {
	var sb strings.Builder
	for _, s := range a.Steps {
		sb.WriteByte(byte(s))
	}
	return sb.String()
}

// Expr renders the address as a property chain: anchor.f.n.n
func (a Address) Expr() string {
	var sb strings.Builder
	sb.WriteString(a.Anchor)
	for _, s := range a.Steps {
		sb.WriteByte('.')
		sb.WriteByte(byte(s))
	}
	return sb.String()
}

// Rebase splits an address longer than k steps. decl captures the node
// k steps from the anchor in a variable named id, and next addresses the
// same node as a relative to id. ok is false when a is short enough.
func (a Address) Rebase(k int, id string) (decl string, next Address, ok bool) {
	if k <= 0 || len(a.Steps) <= k {
		return "", a, false
	}
	prefix := Address{Anchor: a.Anchor, Steps: a.Steps[:k]}
	rest := make([]Step, len(a.Steps)-k)
	copy(rest, a.Steps[k:])
	return "const " + id + " = " + prefix.Expr(), Address{Anchor: id, Steps: rest}, true
}
