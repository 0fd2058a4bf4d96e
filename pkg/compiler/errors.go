package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies compile and link failures
type Kind uint8

const (
	KindParse Kind = iota + 1
	KindResolution
	KindCycle
	KindDepth
	KindBudget
	KindMissingDependency
)

// Sentinel errors matched with errors.Is
var (
	ErrParse             = errors.New("parse failure")
	ErrResolution        = errors.New("resolution failure")
	ErrCycle             = errors.New("cycle detected")
	ErrDepthExceeded     = errors.New("depth exceeded")
	ErrBudgetExceeded    = errors.New("expansion budget exceeded")
	ErrMissingDependency = errors.New("missing dependency entry")
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseFailure"
	case KindResolution:
		return "ResolutionFailure"
	case KindCycle:
		return "CycleDetected"
	case KindDepth:
		return "DepthExceeded"
	case KindBudget:
		return "ExpansionBudgetExceeded"
	case KindMissingDependency:
		return "MissingDependencyEntry"
	}
	return "Unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindParse:
		return ErrParse
	case KindResolution:
		return ErrResolution
	case KindCycle:
		return ErrCycle
	case KindDepth:
		return ErrDepthExceeded
	case KindBudget:
		return ErrBudgetExceeded
	case KindMissingDependency:
		return ErrMissingDependency
	}
	return nil
}

// Stage names the phase an error kind belongs to
func (k Kind) Stage() string {
	if k == KindParse {
		return "compile"
	}
	return "link"
}

// Error is a fatal compile or link failure attributed to a file and,
// when known, a component and source location.
type Error struct {
	Kind      Kind
	File      string
	Component string
	Loc       Loc
	// Expr is the offending expression text for parse failures
	Expr string
	// Chain lists the expansion keys leading to a cycle
	Chain []string
	Msg   string
	Err   error
}

// Errorf creates an Error of the given kind
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.File != "" {
		sb.WriteString(": ")
		sb.WriteString(e.File)
		if !e.Loc.IsZero() {
			sb.WriteString(":")
			sb.WriteString(e.Loc.String())
		}
	}
	if e.Component != "" {
		fmt.Fprintf(&sb, " (component %s)", e.Component)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Expr != "" {
		fmt.Fprintf(&sb, ": %q", e.Expr)
	}
	if len(e.Chain) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Chain, " -> "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Is matches the sentinel of the error's kind
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// At fills in the location fields that are still empty and returns e
func (e *Error) At(file, component string, loc Loc) *Error {
	if e.File == "" {
		e.File = file
	}
	if e.Component == "" {
		e.Component = component
	}
	if e.Loc.IsZero() {
		e.Loc = loc
	}
	return e
}
