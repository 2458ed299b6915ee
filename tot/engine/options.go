package engine

import (
	"github.com/tot-engine/tot-go/tot/cache"
	"github.com/tot-engine/tot-go/tot/cost"
	"github.com/tot-engine/tot-go/tot/emit"
	"github.com/tot-engine/tot-go/tot/evaluate"
	"github.com/tot-engine/tot-go/tot/gateway"
	"github.com/tot-engine/tot-go/tot/metrics"
	"github.com/tot-engine/tot-go/tot/propose"
)

// Option configures an Engine at construction time, following the
// reference engine's functional-options idiom.
type Option func(*Engine)

// WithEmitter overrides the default emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(eng *Engine) { eng.Emitter = e }
}

// WithMetrics overrides the default metrics.NullSink.
func WithMetrics(m metrics.Sink) Option {
	return func(eng *Engine) { eng.Metrics = m }
}

// WithFinalizer overrides the default no-op Finalizer. The engine
// package does not import tot/finalize (it would create an import
// cycle if finalize ever needed engine types), so callers wire the
// concrete *finalize.Finalizer in at construction.
func WithFinalizer(f Finalizer) Option {
	return func(eng *Engine) { eng.Finalizer = f }
}

// WithCache attaches the semantic cache the Proposer/Evaluator consult.
// Engine itself never touches the cache directly; this option exists so
// New can be given just a Gateway and still build default Proposer/
// Evaluator instances that share one cache.
func WithCache(c *cache.Cache) Option {
	return func(eng *Engine) { eng.cacheOverride = c }
}

// WithCost attaches the run's cost tracker to the Gateway the Engine was
// built with, so RunMetrics.CostUSD reflects this run's calls alone
// rather than a process-wide total.
func WithCost(c *cost.Tracker) Option {
	return func(eng *Engine) { eng.costOverride = c }
}

// WithProposer overrides the default propose.Proposer built from the
// Engine's Gateway and cache.
func WithProposer(p *propose.Proposer) Option {
	return func(eng *Engine) { eng.Proposer = p }
}

// WithEvaluator overrides the default evaluate.Evaluator built from the
// Engine's Gateway and cache.
func WithEvaluator(e *evaluate.Evaluator) Option {
	return func(eng *Engine) { eng.Evaluator = e }
}

// WithGateway sets the Gateway used to build default Proposer/Evaluator
// instances when they are not overridden explicitly.
func WithGateway(gw *gateway.Gateway) Option {
	return func(eng *Engine) { eng.Gateway = gw }
}
