package server

import "sync/atomic"

// Task is a cooperatively cancellable unit of background work (spec §5:
// "tasks poll a cancellation flag at loop boundaries and return a
// Cancelled result"). Bundle loading is this reference server's one
// genuinely slow, cancellable operation — a UI collaborator can open a
// different bundle before the first finishes parsing. os.ReadFile and
// json.Unmarshal have no polling points of their own, so the loader
// goroutine checks Cancelled() at its one loop boundary: right before it
// commits the parsed bundle into the Session, not mid-parse.
type Task struct {
	ID        string
	cancelled atomic.Bool
	done      atomic.Bool
}

func newTask(id string) *Task { return &Task{ID: id} }

// Cancel requests cancellation; it never blocks and never guarantees the
// task stops before it would have finished anyway (latest-wins, the same
// policy spec §5 gives the Resolver's in-flight seek-driven prefetch).
func (t *Task) Cancel() { t.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool { return t.cancelled.Load() }

// Done reports whether the task's goroutine has finished, successfully,
// with an error, or cancelled.
func (t *Task) Done() bool { return t.done.Load() }

func (t *Task) markDone() { t.done.Store(true) }
