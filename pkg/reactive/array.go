package reactive

import (
	"errors"
	"fmt"

	"github.com/recera/pria/pkg/scheduler"
)

// ErrNotArray is returned by SetNew when its argument is neither a slice
// of the cell's element type nor an updater returning one.
var ErrNotArray = errors.New("reactive: setNew expects an array or an array updater")

// Array is a reactive ordered sequence. Every mutation notifies the
// subscribers with a Change describing it.
type Array[T any] struct {
	items []T
	subs  subscribers
	sched scheduler.Scheduler
}

// NewArray creates an array cell holding a copy of items
func NewArray[T any](items []T, sched scheduler.Scheduler) *Array[T] {
	return &Array[T]{
		items: append([]T(nil), items...),
		sched: sched,
	}
}

// Get returns the items and subscribes the frame's effect. The returned
// slice must not be modified.
func (a *Array[T]) Get(f *Frame) []T {
	f.track(a)
	return a.items
}

// Peek returns the items without tracking
func (a *Array[T]) Peek() []T {
	return a.items
}

// Len returns the number of items
func (a *Array[T]) Len() int {
	return len(a.items)
}

// Push appends v
func (a *Array[T]) Push(v T) {
	a.items = append(a.items, v)
	a.emit(ChangePush, len(a.items)-1)
}

// SetAt replaces the item at i. Out-of-range indexes are ignored.
func (a *Array[T]) SetAt(i int, v T) {
	if i < 0 || i >= len(a.items) {
		return
	}
	a.items[i] = v
	a.emit(ChangeSetAt, i)
}

// Remove deletes the item at i. Out-of-range indexes are ignored.
func (a *Array[T]) Remove(i int) {
	if i < 0 || i >= len(a.items) {
		return
	}
	a.items = append(a.items[:i], a.items[i+1:]...)
	a.emit(ChangeRemove, i)
}

// Pop removes and returns the last item. ok is false when the array is
// empty, in which case nothing is emitted.
func (a *Array[T]) Pop() (v T, ok bool) {
	n := len(a.items)
	if n == 0 {
		return v, false
	}
	v = a.items[n-1]
	a.items = a.items[:n-1]
	a.emit(ChangeRemove, n-1)
	return v, true
}

// SetNew replaces the whole sequence. next is either a []T or a
// func([]T) []T; anything else returns ErrNotArray and leaves the items
// untouched.
func (a *Array[T]) SetNew(next any) error {
	var items []T
	switch v := next.(type) {
	case []T:
		items = v
	case func([]T) []T:
		items = v(append([]T(nil), a.items...))
	default:
		return fmt.Errorf("%w: got %T", ErrNotArray, next)
	}
	if items == nil {
		items = []T{}
	}
	a.items = append(a.items[:0:0], items...)
	a.emit(ChangeReplace, -1)
	return nil
}

func (a *Array[T]) emit(kind ChangeKind, index int) {
	if debugLog != nil {
		debugLog("[Array]", string(kind), index, "subscribers:", a.subs.len())
	}
	a.subs.notify(&Change{Kind: kind, Index: index}, a.sched)
}

func (a *Array[T]) subscribe(e *Effect) {
	a.subs.add(e)
}

func (a *Array[T]) unsubscribe(e *Effect) {
	a.subs.remove(e)
}
