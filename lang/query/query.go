// Package query implements the demand-driven incremental query engine that
// backs the compiler's caches (spec section 4.3): requests are memoized by
// key, re-verified lazily against a monotone Revision clock, and a task
// that is not yet ready to answer can suspend on a set of dependency
// requests instead of blocking.
package query

import (
	"fmt"
)

// Revision orders time. Major advances when new top-level input arrives
// (a file edit, a REPL command); Iteration advances within a single
// fixpoint loop while symbols are still accumulating.
type Revision struct {
	Major     int
	Iteration int
}

// Before reports whether r happened strictly before o.
func (r Revision) Before(o Revision) bool {
	if r.Major != o.Major {
		return r.Major < o.Major
	}
	return r.Iteration < o.Iteration
}

// After reports whether r happened strictly after o.
func (r Revision) After(o Revision) bool { return o.Before(r) }

// Equal reports whether r and o are the same point in time.
func (r Revision) Equal(o Revision) bool { return r == o }

func (r Revision) String() string { return fmt.Sprintf("r%d.%d", r.Major, r.Iteration) }

// Artifact is whatever a request produces: a resolved type, a signature, a
// CFG, a diagnostic list, etc. The engine only ever compares artifacts with
// Req.Equal (see Result), so it does not need to know their shape.
type Artifact any

// Req is a memoizable request. Implementations are usually small value
// types (a struct naming what is being asked for) so that Key can be a
// cheap, stable string built from their fields.
type Req interface {
	// Key uniquely identifies this request for the engine's cache. Two Req
	// values that ask the same question must produce the same Key.
	Key() string

	// Run executes (or re-executes) the request. It may call eng.Depend to
	// consult other requests; if any of those are not yet ready, Run must
	// return a Result naming them in Suspend and it will be called again
	// once they are.
	Run(eng *Engine) Result

	// Pure reports whether this request is a deterministic function of its
	// dependency artifacts alone (no side channel such as wall-clock input).
	// Pure requests can be shortcut back to their previous artifact when
	// none of their dependencies changed, without re-running Run.
	Pure() bool
}

// Result is what a Req.Run call reports back to the engine.
type Result struct {
	// Artifact is the produced value. Only meaningful when Suspend is empty
	// and Err is nil.
	Artifact Artifact

	// Requested lists every dependency this call to Run consulted (via
	// eng.Depend), whether or not they were ready. The engine uses this set
	// to decide, on the next revision, whether a restart can be shortcut.
	Requested []Req

	// Suspend, if non-empty, means Run could not complete: these are newly
	// discovered dependencies it needs answers for before it can finish.
	// The engine will re-invoke Run once every one of them is ready.
	Suspend []Req

	// Err is a hard failure. It is not the suspend protocol — suspending is
	// signaled via Suspend, not Err — but a genuine terminal error for this
	// request (e.g. a cycle surfaced by a caller, a malformed artifact).
	Err error
}

type status int

const (
	statusRunning status = iota
	statusRestarting
	statusCompleted
)

type task struct {
	req    Req
	status status

	artifact Artifact
	err      error

	verifiedAt Revision
	changedAt  Revision

	requested     []Req
	leftWaitingOn int
	depsReady     bool
	waiters       []string
	everCompleted bool
}

// Engine is the query cache and scheduler described in spec section 4.3.
// The zero value is not usable; construct with NewEngine.
type Engine struct {
	cur     Revision
	tasks   map[string]*task
	queue   []string
	queued  map[string]bool
	changed bool // whether any task's changedAt advanced to cur during the current Run/RunFixpoint

	executing *task // the task whose Run is synchronously on the stack, if any
}

// NewEngine returns an empty Engine at Revision{0, 0}.
func NewEngine() *Engine {
	return &Engine{
		tasks:  make(map[string]*task),
		queued: make(map[string]bool),
	}
}

// Current returns the engine's current revision.
func (e *Engine) Current() Revision { return e.cur }

// NewMajorRevision advances the engine's clock to a new major revision,
// for new top-level input (a file edit, a REPL command). Previously
// completed tasks remain cached; they are lazily restarted only once
// something requests them again and react discovers they are stale.
func (e *Engine) NewMajorRevision() {
	e.cur.Major++
	e.cur.Iteration = 0
}

func (e *Engine) ensure(r Req) *task {
	key := r.Key()
	t, ok := e.tasks[key]
	if !ok {
		t = &task{req: r, status: statusRunning}
		e.tasks[key] = t
	}
	return t
}

func (e *Engine) ready(t *task) bool {
	return t.status == statusCompleted && t.verifiedAt.Equal(e.cur)
}

func (e *Engine) enqueue(key string) {
	if e.queued[key] {
		return
	}
	e.queued[key] = true
	e.queue = append(e.queue, key)
}

// wake schedules dt to run unless it is already mid-suspend waiting on its
// own dependencies, in which case it will be requeued by complete() once
// those answer and enqueueing it again here would only make it re-run
// before it has anything new to work with.
func (e *Engine) wake(dt *task) {
	if dt.status == statusRunning && dt.leftWaitingOn > 0 {
		return
	}
	e.enqueue(dt.req.Key())
}

// Depend is the Thunk API a Req.Run implementation uses to consult another
// request. It returns the dependency's artifact and true if it is already
// up to date at the engine's current revision; otherwise it schedules the
// dependency to run and returns false, in which case the caller's Run
// should add dep to its Result.Suspend (after recording it in Requested
// regardless of readiness).
func (e *Engine) Depend(dep Req) (Artifact, bool) {
	dt := e.ensure(dep)
	if dt == e.executing {
		// A request depending on itself can never become ready by
		// re-running itself; let the queue drain and surface this as a
		// cycle rather than spin forever.
		return nil, false
	}
	if e.ready(dt) {
		return dt.artifact, true
	}
	e.wake(dt)
	return nil, false
}

// Invalidate forces req to be re-executed on its next Run, bypassing the
// pure shortcut that would otherwise reuse its cached artifact unchanged.
// Use this for genuine external inputs (a file edit, a REPL command)
// where the engine has no way to observe that Req.Run would now return
// something different — unlike a derived request, whose staleness the
// engine discovers on its own by re-checking its dependencies.
func (e *Engine) Invalidate(req Req) {
	t := e.ensure(req)
	t.status = statusRunning
	t.requested = nil
	t.depsReady = false
	t.leftWaitingOn = 0
	e.enqueue(req.Key())
}

// Run drives the queue until req reaches Completed at the engine's current
// revision, or reports an error (a hard Req error, or a cycle: the queue
// drained with requests still waiting on each other).
func (e *Engine) Run(req Req) (Artifact, error) {
	e.changed = false
	e.enqueue(req.Key())
	e.ensure(req)

	for len(e.queue) > 0 {
		key := e.queue[0]
		e.queue = e.queue[1:]
		e.queued[key] = false
		e.react(e.tasks[key])
	}

	t := e.tasks[req.Key()]
	if t.status != statusCompleted {
		return nil, fmt.Errorf("query: cyclic dependency detected around %q", req.Key())
	}
	return t.artifact, t.err
}

// RunFixpoint repeatedly re-runs req, advancing the revision's Iteration
// component each pass, until a full pass completes without any task's
// artifact changing, or the 1000-iteration cap (spec section 4.3) is
// reached without converging.
func (e *Engine) RunFixpoint(req Req) (Artifact, error) {
	const maxIterations = 1000

	var art Artifact
	var err error
	for i := 0; i < maxIterations; i++ {
		e.cur.Iteration++
		art, err = e.Run(req)
		if err != nil {
			return nil, err
		}
		if !e.changed {
			return art, nil
		}
	}
	return nil, fmt.Errorf("query: RunFixpoint did not converge within %d iterations", maxIterations)
}

// react implements the numbered React step from spec section 4.3.
func (e *Engine) react(t *task) {
	switch t.status {
	case statusCompleted:
		if t.verifiedAt.Equal(e.cur) {
			return
		}
		// Step 3: promote a stale completion to Restarting and requeue.
		t.status = statusRestarting
		t.leftWaitingOn = 0
		t.depsReady = false
		e.enqueue(t.req.Key())
		return

	case statusRestarting:
		if !t.depsReady {
			ready := true
			for _, dep := range t.requested {
				dt := e.ensure(dep)
				if dt == t {
					// Self-dependency: never becomes ready on its own;
					// leave it be so the queue can drain and the cycle
					// surfaces in Run.
					ready = false
					continue
				}
				if e.ready(dt) {
					continue
				}
				ready = false
				e.wake(dt)
				dt.waiters = append(dt.waiters, t.req.Key())
				t.leftWaitingOn++
			}
			t.depsReady = ready
			if !ready {
				return
			}
		}
		if t.leftWaitingOn == 0 && t.req.Pure() {
			anyChanged := false
			for _, dep := range t.requested {
				dt := e.ensure(dep)
				if dt.changedAt.After(t.verifiedAt) {
					anyChanged = true
					break
				}
			}
			if !anyChanged {
				e.complete(t, t.artifact, nil)
				return
			}
		}
		e.execute(t)

	case statusRunning:
		e.execute(t)
	}
}

func (e *Engine) execute(t *task) {
	prevExecuting := e.executing
	e.executing = t
	res := t.req.Run(e)
	e.executing = prevExecuting
	t.requested = res.Requested

	if len(res.Suspend) > 0 {
		t.status = statusRunning
		t.leftWaitingOn = 0
		selfCycle := false
		for _, dep := range res.Suspend {
			dt := e.ensure(dep)
			if dt == t {
				// Depending on itself: it will never be woken by a
				// waiter completion, so don't count it towards
				// leftWaitingOn or the immediate-retry shortcut below.
				selfCycle = true
				continue
			}
			if e.ready(dt) {
				continue
			}
			e.wake(dt)
			dt.waiters = append(dt.waiters, t.req.Key())
			t.leftWaitingOn++
		}
		if t.leftWaitingOn == 0 && !selfCycle {
			// every suspended-on dep was actually ready; retry immediately
			e.enqueue(t.req.Key())
		}
		return
	}

	e.complete(t, res.Artifact, res.Err)
}

// artifactEqual reports whether two artifacts should be considered the
// same value for changedAt purposes. Requests whose artifacts are not
// comparable with == (slices, maps, pointers-to-different-but-equal-value
// structs) should implement a value type with a usable == and build that
// from their result, since the engine cannot know their shape.
func artifactEqual(a, b Artifact) bool {
	defer func() { recover() }() //nolint:errcheck // a panics if a's type is not comparable
	return a == b
}

func (e *Engine) complete(t *task, art Artifact, err error) {
	same := t.everCompleted && artifactEqual(art, t.artifact)

	t.artifact = art
	t.err = err
	t.verifiedAt = e.cur
	t.status = statusCompleted
	t.everCompleted = true
	if !same {
		t.changedAt = e.cur
		e.changed = true
	}

	waiters := t.waiters
	t.waiters = nil
	for _, wk := range waiters {
		wt := e.tasks[wk]
		if wt == nil {
			continue
		}
		wt.leftWaitingOn--
		if wt.leftWaitingOn <= 0 {
			e.enqueue(wk)
		}
	}
}
