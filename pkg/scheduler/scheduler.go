package scheduler

import (
	"fmt"
	"runtime/debug"
)

// Task is a unit of work delivered by a scheduler, typically one effect run
type Task func()

// ErrorHandler handles panics raised while running a task.
// Returns true to keep delivering the remaining tasks, false to drop them.
type ErrorHandler func(id uint32, err interface{}) bool

// Scheduler decides when a due task actually runs.
// Implementations must run tasks one at a time, never concurrently.
type Scheduler interface {
	Schedule(id uint32, task Task)
}

// debugLog is set by platform-specific code
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

type entry struct {
	id   uint32
	task Task
}

// queue is the FIFO shared by Sync and Queue
type queue struct {
	pending  []entry
	draining bool
	ran      int
	onError  ErrorHandler
}

func (q *queue) push(id uint32, task Task) {
	q.pending = append(q.pending, entry{id: id, task: task})
}

// drain runs pending tasks in insertion order, including tasks scheduled
// by the tasks themselves.
func (q *queue) drain() {
	if q.draining {
		return
	}
	q.draining = true
	defer func() { q.draining = false }()

	for len(q.pending) > 0 {
		e := q.pending[0]
		q.pending[0] = entry{}
		q.pending = q.pending[1:]

		if debugLog != nil {
			debugLog("[Scheduler] Running task", e.id)
		}
		q.ran++
		if !q.run(e) {
			if debugLog != nil {
				debugLog("[Scheduler] Dropping", len(q.pending), "pending tasks after failure")
			}
			q.pending = nil
			return
		}
	}
}

func (q *queue) run(e entry) (ok bool) {
	if q.onError == nil {
		e.task()
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("task %d panic: %v\n%s", e.id, r, debug.Stack())
			ok = q.onError(e.id, msg)
		}
	}()
	e.task()
	return true
}

// Sync runs every task as soon as it is scheduled. A task scheduled while
// another task is running is appended and runs after it, so effects never
// nest inside each other.
type Sync struct {
	q queue
}

// NewSync creates a synchronous scheduler
func NewSync() *Sync {
	return &Sync{}
}

// SetErrorHandler installs a panic handler. Without one, panics propagate
// to the caller that triggered the task.
func (s *Sync) SetErrorHandler(handler ErrorHandler) {
	s.q.onError = handler
}

// Schedule implements Scheduler
func (s *Sync) Schedule(id uint32, task Task) {
	s.q.push(id, task)
	s.q.drain()
}

// Queue collects tasks until Flush is called.
type Queue struct {
	q queue
}

// NewQueue creates a batching scheduler
func NewQueue() *Queue {
	return &Queue{}
}

// SetErrorHandler installs a panic handler used during Flush
func (s *Queue) SetErrorHandler(handler ErrorHandler) {
	s.q.onError = handler
}

// Schedule implements Scheduler
func (s *Queue) Schedule(id uint32, task Task) {
	if debugLog != nil {
		debugLog("[Scheduler] Queued task", id)
	}
	s.q.push(id, task)
}

// Pending returns the number of tasks waiting for Flush
func (s *Queue) Pending() int {
	return len(s.q.pending)
}

// Flush runs every queued task, including those queued while flushing,
// and returns how many ran.
func (s *Queue) Flush() int {
	before := len(s.q.pending)
	start := s.q.ran
	s.q.drain()
	ran := s.q.ran - start
	if debugLog != nil {
		debugLog("[Scheduler] Flushed", ran, "tasks,", before, "queued before flush")
	}
	return ran
}
