package reactive

import (
	"reflect"

	"github.com/recera/pria/pkg/scheduler"
)

// ChangeKind identifies the mutation an array cell performed. The string
// values are part of the generated-script contract.
type ChangeKind string

const (
	ChangeReplace ChangeKind = "setNew"
	ChangePush    ChangeKind = "push"
	ChangeSetAt   ChangeKind = "setAt"
	ChangeRemove  ChangeKind = "remove"
)

// Kinds lists every change kind in the order the loop binding handles them
var Kinds = []ChangeKind{ChangePush, ChangeSetAt, ChangeRemove, ChangeReplace}

// Change is the structured descriptor delivered to array subscribers.
// Index is -1 for ChangeReplace.
type Change struct {
	Kind  ChangeKind
	Index int
}

// Signal is the read side shared by State and Array
type Signal[T any] interface {
	Get(f *Frame) T
	Peek() T
}

// State is a reactive value cell
type State[T any] struct {
	value T
	subs  subscribers
	sched scheduler.Scheduler
}

// NewState creates a new reactive state
func NewState[T any](initial T, sched scheduler.Scheduler) *State[T] {
	return &State[T]{
		value: initial,
		sched: sched,
	}
}

// Get returns the current value and subscribes the frame's effect
func (s *State[T]) Get(f *Frame) T {
	f.track(s)
	return s.value
}

// Peek returns the current value without tracking
func (s *State[T]) Peek() T {
	return s.value
}

// Set stores value and notifies subscribers if it differs from the
// current value.
func (s *State[T]) Set(value T) {
	if same(s.value, value) {
		return
	}
	if debugLog != nil {
		debugLog("[State] Set called, subscribers:", s.subs.len())
	}
	s.value = value
	s.subs.notify(nil, s.sched)
}

// Update applies fn to the current value and stores the result
func (s *State[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Subscribers returns the number of effects currently subscribed
func (s *State[T]) Subscribers() int {
	return s.subs.len()
}

func (s *State[T]) subscribe(e *Effect) {
	s.subs.add(e)
}

func (s *State[T]) unsubscribe(e *Effect) {
	s.subs.remove(e)
}

// same compares by value for comparable values and by identity for
// reference types. No deep comparison is performed.
func same[T any](a, b T) bool {
	va := reflect.ValueOf(&a).Elem()
	vb := reflect.ValueOf(&b).Elem()

	if va.Kind() == reflect.Interface {
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		va, vb = va.Elem(), vb.Elem()
		if va.Type() != vb.Type() {
			return false
		}
	}

	switch va.Kind() {
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() {
		return va.Equal(vb)
	}
	return false
}
