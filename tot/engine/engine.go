// Package engine implements the Run Engine: the fixed state machine
// driving one Tree-of-Thoughts run through
// INITIALIZE -> (PROPOSE -> EVALUATE -> SELECT_PRUNE -> CHECK_STOP)* -> FINALIZE.
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tot-engine/tot-go/tot"
	"github.com/tot-engine/tot-go/tot/cache"
	"github.com/tot-engine/tot-go/tot/cost"
	"github.com/tot-engine/tot-go/tot/emit"
	"github.com/tot-engine/tot-go/tot/evaluate"
	"github.com/tot-engine/tot-go/tot/gateway"
	"github.com/tot-engine/tot-go/tot/metrics"
	"github.com/tot-engine/tot-go/tot/propose"
	"github.com/tot-engine/tot-go/tot/strategy"
)

// Finalizer turns the best path found during a run into a final answer.
// Defined here (rather than importing tot/finalize) so the engine
// package has no dependency on it; tot/finalize.Finalizer satisfies
// this interface.
type Finalizer interface {
	Finalize(ctx context.Context, store *tot.ThoughtStore, task tot.Task, bestNodeID string, cfg tot.RunConfig) (string, error)
}

// noopFinalizer returns the root-to-best thought path joined with
// arrows; it is the Engine's zero-value Finalizer, useful for tests
// that don't care about the final-answer prompt.
type noopFinalizer struct{}

func (noopFinalizer) Finalize(_ context.Context, store *tot.ThoughtStore, _ tot.Task, bestNodeID string, _ tot.RunConfig) (string, error) {
	path, err := store.PathText(bestNodeID)
	if err != nil {
		return "", err
	}
	return strings.Join(path, " -> "), nil
}

// Engine drives runs. One Engine is typically shared across many
// concurrent runs (it holds no per-run state itself); Run is safe to
// call concurrently as long as each call is given its own store/state.
type Engine struct {
	Gateway   *gateway.Gateway
	Proposer  *propose.Proposer
	Evaluator *evaluate.Evaluator
	Emitter   emit.Emitter
	Metrics   metrics.Sink
	Finalizer Finalizer

	cacheOverride *cache.Cache
	costOverride  *cost.Tracker
}

// New builds an Engine from opts. At minimum one of WithGateway or
// WithProposer+WithEvaluator must be supplied, or Run will fail the
// first time it needs to call out to an LLM.
func New(opts ...Option) *Engine {
	eng := &Engine{
		Emitter:   emit.NewNullEmitter(),
		Metrics:   metrics.NullSink{},
		Finalizer: noopFinalizer{},
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.Proposer == nil && eng.Gateway != nil {
		eng.Proposer = propose.New(eng.Gateway, eng.cacheOverride)
	}
	if eng.Evaluator == nil && eng.Gateway != nil {
		eng.Evaluator = evaluate.New(eng.Gateway, eng.cacheOverride)
	}
	if eng.Gateway != nil && eng.costOverride != nil {
		eng.Gateway.Cost = eng.costOverride
	}
	return eng
}

// Run executes one full state-machine pass, mutating state in place
// under mu (the only synchronization primitive shared with readers:
// Registry.Status/List lock the same mu before calling state.Clone()).
// Run returns nil on any terminal outcome (completed, cancelled, even
// failed) — the outcome lives in state.Status/state.Metrics.StopReason,
// not in the returned error; Run's error return is reserved for
// programming errors (e.g. a nil Proposer) that mean the engine itself
// is misconfigured.
func (e *Engine) Run(ctx context.Context, store *tot.ThoughtStore, mu *sync.Mutex, state *tot.RunState) error {
	if e.Proposer == nil || e.Evaluator == nil {
		return &tot.EngineError{Code: "internal", Message: "engine: Proposer and Evaluator must be configured"}
	}

	cfg := state.Config
	strat, err := strategy.For(cfg)
	if err != nil {
		e.finish(mu, state, tot.StatusFailed, "invalid_config", time.Time{})
		return nil
	}

	root := store.CreateRoot(state.Task.Instruction)

	mu.Lock()
	state.Status = tot.StatusRunning
	state.StartTime = time.Now()
	state.Frontier = []string{root.ID}
	state.BestNodeID = root.ID
	mu.Unlock()

	e.Metrics.Observe("active_runs", nil, 1)
	defer e.Metrics.Observe("active_runs", nil, 0)
	defer e.Emitter.Flush()
	e.emit(state.RunID, "initialize", root.ID, "run initialized", nil)

	for {
		if ctx.Err() != nil {
			e.finish(mu, state, tot.StatusCancelled, "cancelled", state.StartTime)
			return nil
		}

		mu.Lock()
		frontier := append([]string(nil), state.Frontier...)
		mu.Unlock()

		stepStart := time.Now()
		results, err := e.Proposer.ExpandFrontier(ctx, store, state.Task, frontier, cfg, cfg.MaxConcurrent)
		e.observeLatency(state.RunID, "propose", stepStart)
		if err != nil {
			e.finish(mu, state, tot.StatusFailed, "internal", state.StartTime)
			return nil
		}

		var childIDs []string
		for _, r := range results {
			childIDs = append(childIDs, r.ChildIDs...)
			if r.CacheHit {
				e.Metrics.Increment("cache_hit", map[string]string{"run_id": state.RunID, "namespace": "propose"}, 1)
			}
		}
		e.emit(state.RunID, "propose", "", "expanded frontier", map[string]interface{}{"children": len(childIDs)})

		if len(childIDs) == 0 {
			e.finish(mu, state, tot.StatusCompleted, "empty_frontier", state.StartTime)
			break
		}

		if ctx.Err() != nil {
			e.finish(mu, state, tot.StatusCancelled, "cancelled", state.StartTime)
			return nil
		}

		stepStart = time.Now()
		if err := e.Evaluator.EvaluateFrontier(ctx, store, state.Task, childIDs, cfg, cfg.MaxConcurrent); err != nil {
			e.finish(mu, state, tot.StatusFailed, "internal", state.StartTime)
			return nil
		}
		e.observeLatency(state.RunID, "evaluate", stepStart)
		e.emit(state.RunID, "evaluate", "", "scored children", map[string]interface{}{"count": len(childIDs)})

		mu.Lock()
		newFrontier, bestID := strat.UpdateFrontier(store, childIDs, state.BestNodeID)
		state.Frontier = newFrontier
		state.BestNodeID = bestID
		state.NodesExpanded += len(childIDs)
		nodesExpanded := state.NodesExpanded
		bestNodeID := state.BestNodeID
		mu.Unlock()
		e.Metrics.Observe("frontier_size", nil, float64(len(newFrontier)))
		e.emit(state.RunID, "select_prune", bestNodeID, "frontier updated", map[string]interface{}{"frontier_size": len(newFrontier)})

		if reason, stop := e.checkStop(ctx, store, state, cfg, nodesExpanded, bestNodeID, newFrontier); stop {
			status := tot.StatusCompleted
			if reason == "cancelled" {
				status = tot.StatusCancelled
			}
			e.finish(mu, state, status, reason, state.StartTime)
			break
		}
	}

	mu.Lock()
	bestNodeID := state.BestNodeID
	status := state.Status
	mu.Unlock()

	if status != tot.StatusCompleted {
		return nil
	}

	answer, err := e.Finalizer.Finalize(ctx, store, state.Task, bestNodeID, cfg)
	mu.Lock()
	if err != nil {
		state.Status = tot.StatusFailed
		state.Metrics.StopReason = "finalize_error"
	} else {
		state.FinalAnswer = answer
		if best, ok := store.Get(bestNodeID); ok {
			state.Metrics.FinalScore = best.Score
		}
	}
	mu.Unlock()
	e.emit(state.RunID, "finalize", bestNodeID, "run finalized", nil)

	return nil
}

// checkStop applies the priority-ordered stop predicate: cancelled,
// then max_nodes, then max_time, then score_threshold (only once at
// least one node past the root has been evaluated), then
// empty_frontier, then depth_exhausted. Otherwise the run continues to
// PROPOSE.
func (e *Engine) checkStop(ctx context.Context, store *tot.ThoughtStore, state *tot.RunState, cfg tot.RunConfig, nodesExpanded int, bestNodeID string, frontier []string) (string, bool) {
	if ctx.Err() != nil {
		return "cancelled", true
	}
	if cfg.StopConditions.MaxNodes > 0 && nodesExpanded >= cfg.StopConditions.MaxNodes {
		return "max_nodes", true
	}
	if cfg.StopConditions.MaxTimeSeconds > 0 {
		elapsed := time.Since(state.StartTime).Seconds()
		if elapsed >= cfg.StopConditions.MaxTimeSeconds {
			return "max_time", true
		}
	}
	if best, ok := store.Get(bestNodeID); ok && best.Depth >= 1 && best.Evaluated {
		if cfg.StopConditions.ScoreThreshold > 0 && best.Score >= cfg.StopConditions.ScoreThreshold {
			return "score_threshold", true
		}
	}
	if len(frontier) == 0 {
		return "empty_frontier", true
	}
	if cfg.MaxDepth > 0 {
		allAtMaxDepth := true
		for _, id := range frontier {
			n, ok := store.Get(id)
			if !ok || n.Depth < cfg.MaxDepth {
				allAtMaxDepth = false
				break
			}
		}
		if allAtMaxDepth {
			return "depth_exhausted", true
		}
	}
	return "", false
}

func (e *Engine) finish(mu *sync.Mutex, state *tot.RunState, status tot.RunStatus, reason string, startTime time.Time) {
	mu.Lock()
	defer mu.Unlock()
	state.Status = status
	state.Metrics.StopReason = reason
	state.Metrics.NodesExpanded = state.NodesExpanded
	if !startTime.IsZero() {
		state.Metrics.TimeTaken = time.Since(startTime)
	}
	if e.Gateway != nil && e.Gateway.Cost != nil {
		state.Metrics.CostUSD = e.Gateway.Cost.TotalCost()
		state.Metrics.ChatCalls = e.Gateway.Cost.CallCount()
	}
	e.Metrics.Increment("stop_reason", map[string]string{"strategy": string(state.Config.Strategy), "stop_reason": reason}, 1)
}

func (e *Engine) emit(runID, stateName, nodeID, msg string, meta map[string]interface{}) {
	e.Emitter.Emit(emit.Event{RunID: runID, State: stateName, NodeID: nodeID, Msg: msg, Meta: meta, Time: time.Now()})
}

func (e *Engine) observeLatency(runID, stateName string, start time.Time) {
	e.Metrics.Observe("state_latency_ms", map[string]string{"run_id": runID, "state": stateName}, float64(time.Since(start).Milliseconds()))
}
