// Package registry implements the Run Registry: one process-wide map
// from run_id to the state and cancellation handle of an in-flight or
// completed run, and the Start/Status/Trace/Cancel/List operations the
// external API surface above this module exposes.
package registry

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tot-engine/tot-go/tot"
	"github.com/tot-engine/tot-go/tot/engine"
)

// Outcome reports what Cancel actually did.
type Outcome string

const (
	// OutcomeCancellationRequested means the run was still active and
	// this call is the one that fired its cancellation.
	OutcomeCancellationRequested Outcome = "cancellation_requested"
	// OutcomeAlreadyTerminal means the run had already reached a
	// terminal status (completed, failed, or cancelled) before this
	// call; no new cancellation was issued.
	OutcomeAlreadyTerminal Outcome = "already_terminal"
)

func isTerminalStatus(s tot.RunStatus) bool {
	switch s {
	case tot.StatusCompleted, tot.StatusFailed, tot.StatusCancelled:
		return true
	default:
		return false
	}
}

// handle is the registry's private bookkeeping for one run: the state
// and store the engine's goroutine owns, guarded by mu, plus the
// machinery to cancel it exactly once.
type handle struct {
	mu     sync.Mutex
	state  *tot.RunState
	store  *tot.ThoughtStore
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

// Registry holds every run started against one Engine.
type Registry struct {
	engine *engine.Engine

	mu   sync.RWMutex
	runs map[string]*handle
}

// New returns an empty Registry driving runs with eng.
func New(eng *engine.Engine) *Registry {
	return &Registry{engine: eng, runs: make(map[string]*handle)}
}

// Start validates cfg, allocates a run id, and launches the run in its
// own goroutine. It returns immediately with the run id; use Status or
// Trace to observe progress.
func (r *Registry) Start(ctx context.Context, task tot.Task, cfg tot.RunConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	h := &handle{
		state: &tot.RunState{RunID: runID, Task: task, Config: cfg, Status: tot.StatusPending},
		store: tot.NewThoughtStore(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.runs[runID] = h
	r.mu.Unlock()

	go func() {
		defer close(h.done)
		defer cancel()
		_ = r.engine.Run(runCtx, h.store, &h.mu, h.state)
	}()

	return runID, nil
}

// Status returns a point-in-time snapshot of the run's state.
func (r *Registry) Status(runID string) (tot.RunState, error) {
	h, ok := r.lookup(runID)
	if !ok {
		return tot.RunState{}, &tot.EngineError{Code: "not_found", Message: "run " + runID + " not found"}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Clone(), nil
}

// Trace returns a snapshot of every node in the run's search tree so
// far, keyed by node id.
func (r *Registry) Trace(runID string) (map[string]*tot.Node, error) {
	h, ok := r.lookup(runID)
	if !ok {
		return nil, &tot.EngineError{Code: "not_found", Message: "run " + runID + " not found"}
	}
	return h.store.Snapshot(), nil
}

// Cancel requests the run stop as soon as it next checks its context.
// Calling Cancel more than once, or on an already-finished run, is a
// no-op that reports OutcomeAlreadyTerminal rather than firing a second
// cancellation.
func (r *Registry) Cancel(runID string) (Outcome, error) {
	h, ok := r.lookup(runID)
	if !ok {
		return "", &tot.EngineError{Code: "not_found", Message: "run " + runID + " not found"}
	}

	h.mu.Lock()
	terminal := isTerminalStatus(h.state.Status)
	h.mu.Unlock()
	if terminal {
		return OutcomeAlreadyTerminal, nil
	}

	fired := false
	h.once.Do(func() {
		fired = true
		h.cancel()
	})
	if fired {
		return OutcomeCancellationRequested, nil
	}
	return OutcomeAlreadyTerminal, nil
}

// List returns a snapshot of every run's state known to the registry,
// in no particular order.
func (r *Registry) List() []tot.RunState {
	r.mu.RLock()
	handles := make([]*handle, 0, len(r.runs))
	for _, h := range r.runs {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	out := make([]tot.RunState, 0, len(handles))
	for _, h := range handles {
		h.mu.Lock()
		out = append(out, h.state.Clone())
		h.mu.Unlock()
	}
	return out
}

func (r *Registry) lookup(runID string) (*handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.runs[runID]
	return h, ok
}
