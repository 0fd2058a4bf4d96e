package reactive

import (
	"sync/atomic"

	"github.com/recera/pria/pkg/scheduler"
)

// debugLog is set by platform-specific code
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

var nextEffectID atomic.Uint32

// source is a cell an effect can subscribe to
type source interface {
	subscribe(e *Effect)
	unsubscribe(e *Effect)
}

// Frame is the evaluation context of a single effect run. Cells read
// through a frame subscribe the frame's effect; a nil frame reads
// without subscribing.
type Frame struct {
	effect *Effect
	change *Change
}

// Effect returns the effect this frame belongs to
func (f *Frame) Effect() *Effect {
	if f == nil {
		return nil
	}
	return f.effect
}

// Change returns the descriptor that triggered this run, or nil for the
// first run and for plain state changes.
func (f *Frame) Change() *Change {
	if f == nil {
		return nil
	}
	return f.change
}

func (f *Frame) track(s source) {
	if f == nil || f.effect == nil || f.effect.disposed {
		return
	}
	s.subscribe(f.effect)
	f.effect.sources = append(f.effect.sources, s)
}

// EffectFunc is the body of an effect
type EffectFunc func(f *Frame)

// Effect is a callback re-run whenever a cell it read during its most
// recent run changes.
type Effect struct {
	id       uint32
	fn       EffectFunc
	cleanup  func()
	sched    scheduler.Scheduler
	sources  []source
	owner    *Owner
	runs     int
	disposed bool
}

// EffectOption configures an effect
type EffectOption func(*Effect)

// WithCleanup runs fn before every re-run and when the effect is disposed
func WithCleanup(fn func()) EffectOption {
	return func(e *Effect) { e.cleanup = fn }
}

// WithOwner registers the effect with an owner for grouped disposal
func WithOwner(o *Owner) EffectOption {
	return func(e *Effect) { e.owner = o }
}

// NewEffect creates an effect and runs it once synchronously. Later runs
// are delivered through sched; a nil scheduler runs them inline.
func NewEffect(sched scheduler.Scheduler, fn EffectFunc, opts ...EffectOption) *Effect {
	e := &Effect{
		id:    nextEffectID.Add(1),
		fn:    fn,
		sched: sched,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.owner != nil {
		e.owner.add(e)
		if e.disposed {
			return e
		}
	}

	e.run(nil)
	return e
}

// ID returns the effect's unique ID
func (e *Effect) ID() uint32 {
	return e.id
}

// Runs returns how many times the effect body has executed
func (e *Effect) Runs() int {
	return e.runs
}

// Disposed reports whether Dispose has been called
func (e *Effect) Disposed() bool {
	return e.disposed
}

// Dispose unsubscribes the effect from every cell and runs its cleanup.
// Pending scheduled runs become no-ops.
func (e *Effect) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.untrack()
	if e.cleanup != nil && e.runs > 0 {
		e.cleanup()
	}
}

func (e *Effect) untrack() {
	for _, s := range e.sources {
		s.unsubscribe(e)
	}
	e.sources = e.sources[:0]
}

func (e *Effect) run(change *Change) {
	if e.disposed {
		return
	}
	if e.runs > 0 && e.cleanup != nil {
		e.cleanup()
	}
	e.untrack()
	e.runs++

	if debugLog != nil {
		debugLog("[Effect] Running effect", e.id, "run", e.runs)
	}
	e.fn(&Frame{effect: e, change: change})
}

// notify delivers a run through sched, falling back to the effect's own
// scheduler and finally to an inline run.
func (e *Effect) notify(change *Change, sched scheduler.Scheduler) {
	if e.disposed {
		return
	}
	if sched == nil {
		sched = e.sched
	}
	if sched == nil {
		e.run(change)
		return
	}
	sched.Schedule(e.id, func() { e.run(change) })
}

// subscribers is an insertion-ordered effect set
type subscribers struct {
	order   []*Effect
	members map[*Effect]struct{}
}

func (s *subscribers) add(e *Effect) {
	if s.members == nil {
		s.members = make(map[*Effect]struct{})
	}
	if _, ok := s.members[e]; ok {
		return
	}
	s.members[e] = struct{}{}
	s.order = append(s.order, e)
}

func (s *subscribers) remove(e *Effect) {
	if _, ok := s.members[e]; !ok {
		return
	}
	delete(s.members, e)
	for i, x := range s.order {
		if x == e {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers) len() int {
	return len(s.order)
}

// notify delivers change to a snapshot of the current subscribers, so
// effects that re-subscribe while running are not visited twice.
func (s *subscribers) notify(change *Change, sched scheduler.Scheduler) {
	if len(s.order) == 0 {
		return
	}
	snapshot := make([]*Effect, len(s.order))
	copy(snapshot, s.order)

	if debugLog != nil {
		debugLog("[Reactive] Notifying", len(snapshot), "effects")
	}
	for _, e := range snapshot {
		var c *Change
		if change != nil {
			cp := *change
			c = &cp
		}
		e.notify(c, sched)
	}
}

// Owner groups effects so they can be disposed together, e.g. all the
// bindings of one rendered list item.
type Owner struct {
	effects  []*Effect
	children []*Owner
	disposed bool
}

// NewOwner creates an empty owner
func NewOwner() *Owner {
	return &Owner{}
}

// Child creates an owner disposed together with o
func (o *Owner) Child() *Owner {
	c := &Owner{disposed: o.disposed}
	o.children = append(o.children, c)
	return c
}

func (o *Owner) add(e *Effect) {
	if o.disposed {
		e.disposed = true
		return
	}
	o.effects = append(o.effects, e)
}

// Len returns the number of effects directly owned by o
func (o *Owner) Len() int {
	return len(o.effects)
}

// Dispose disposes every owned effect and child owner
func (o *Owner) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	for _, c := range o.children {
		c.Dispose()
	}
	for _, e := range o.effects {
		e.Dispose()
	}
	o.children = nil
	o.effects = nil
}
