// Package tot implements the core data model of a Tree-of-Thoughts run:
// nodes, tasks, run configuration and run state. The orchestration
// components that operate on this model live in sibling packages
// (gateway, cache, propose, evaluate, strategy, engine, registry,
// finalize) so that the data model itself stays free of any LLM or
// concurrency dependency.
package tot

import (
	"time"
)

// Node is one reasoning step in the search tree. It is immutable after
// creation except for IsTerminal, which the proposer may set, and the
// evaluation fields (Score, RawScores, Evaluated, LowConfidence), which
// the evaluator writes once the node has been scored.
type Node struct {
	ID         string
	ParentID   string
	Thought    string
	Depth      int
	Score      float64
	RawScores  map[string]float64
	Evaluated  bool
	IsTerminal bool
	// LowConfidence is set by the evaluator when the LLM value prompt
	// could not be parsed and a default score was substituted.
	LowConfidence bool
	CreatedAt     time.Time
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// Task is the instruction a run is trying to solve.
type Task struct {
	Instruction string
	Constraints string
}

// EvaluationWeights weighs the three scoring dimensions the evaluator
// produces. Values need not sum to 1; the composite score normalizes by
// their sum.
type EvaluationWeights struct {
	Progress   float64
	Promise    float64
	Confidence float64
}

// DefaultEvaluationWeights gives equal weight to all three dimensions.
func DefaultEvaluationWeights() EvaluationWeights {
	return EvaluationWeights{Progress: 1, Promise: 1, Confidence: 1}
}

// StopConditions bounds how long a run is allowed to search.
type StopConditions struct {
	MaxNodes       int
	MaxTimeSeconds float64
	// ScoreThreshold is 9.5 in NewRunConfig; a zero value disables the
	// score_threshold stop check.
	ScoreThreshold float64
}

// CacheConfig configures the semantic cache a run consults.
type CacheConfig struct {
	SimilarityThreshold float64
	MaxEntries          int
}

// PromptSet holds the three injectable prompt templates plus the
// solution/failure markers the Proposer and Evaluator look for in
// otherwise free-form LLM text. Templates are plain text/template
// sources; see propose, evaluate and finalize packages for the
// variables each template receives.
type PromptSet struct {
	Propose  string
	Value    string
	Finalize string

	// SolutionMarker, when present as a substring of a proposed thought,
	// marks that thought IsTerminal. Default "SOLUTION:".
	SolutionMarker string
	// FailureMarker, when present as a substring of a candidate thought,
	// short-circuits evaluation to the lowest possible score. Default
	// "FAILED:".
	FailureMarker string
}

// Strategy tags the two built-in search strategies named by the run
// configuration; additional tags may be registered (see the strategy
// package's Register function).
type Strategy string

const (
	StrategyBeamSearch      Strategy = "beam_search"
	StrategyBestFirstSearch Strategy = "best_first_search"
)

// RunConfig enumerates the options governing one run.
type RunConfig struct {
	Strategy          Strategy
	MaxDepth          int
	BranchingFactor   int
	BeamWidth         int
	ProposeTemp       float64
	ValueTemp         float64
	FinalizeTemp      float64
	EvaluationWeights EvaluationWeights
	StopConditions    StopConditions
	EmbeddingDim      int
	Cache             CacheConfig
	Prompts           PromptSet
	// ChatModelTag and EmbedModelTag select which configured model the
	// Gateway should route a call to (e.g. "claude-sonnet-4-5", "gpt-4o").
	ChatModelTag  string
	EmbedModelTag string
	// MaxConcurrent bounds PROPOSE/EVALUATE fan-out; 0 means the engine
	// picks min(frontier size, 8).
	MaxConcurrent int
}

// NewRunConfig returns a RunConfig with every spec-mandated default
// filled in, ready for field-by-field override.
func NewRunConfig() RunConfig {
	return RunConfig{
		Strategy:          StrategyBeamSearch,
		MaxDepth:          3,
		BranchingFactor:   3,
		BeamWidth:         3,
		ProposeTemp:       0.7,
		ValueTemp:         0.2,
		FinalizeTemp:      0.0,
		EvaluationWeights: DefaultEvaluationWeights(),
		StopConditions: StopConditions{
			MaxNodes:       50,
			MaxTimeSeconds: 120,
			ScoreThreshold: 9.5,
		},
		EmbeddingDim: 1536,
		Cache: CacheConfig{
			SimilarityThreshold: 0.95,
			MaxEntries:          500,
		},
		Prompts: PromptSet{
			SolutionMarker: "SOLUTION:",
			FailureMarker:  "FAILED:",
		},
	}
}

// Validate rejects configurations the engine cannot run, mapping to the
// start_run `invalid_config` error kind.
func (c RunConfig) Validate() error {
	switch {
	case c.Strategy == "":
		return &EngineError{Code: "invalid_config", Message: "strategy must be set"}
	case c.MaxDepth < 0:
		return &EngineError{Code: "invalid_config", Message: "max_depth must be >= 0"}
	case c.BranchingFactor < 0:
		return &EngineError{Code: "invalid_config", Message: "branching_factor must be >= 0"}
	case c.BeamWidth < 0:
		return &EngineError{Code: "invalid_config", Message: "beam_width must be >= 0"}
	case c.EmbeddingDim <= 0:
		return &EngineError{Code: "invalid_config", Message: "embedding_dim must be > 0"}
	case c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1:
		return &EngineError{Code: "invalid_config", Message: "cache.similarity_threshold must be in (0,1]"}
	}
	return nil
}

// RunStatus is the lifecycle stage of a run.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusRunning   RunStatus = "running"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// RunMetrics is the summary attached to a RunState at and after
// termination (and, partially, while running).
type RunMetrics struct {
	NodesExpanded int
	FinalScore    float64
	TimeTaken     time.Duration
	StopReason    string
	ChatCalls     int
	EmbedCalls    int
	CacheHits     int
	CostUSD       float64
}

// RunState is the engine-visible state of one run. It is owned
// exclusively by the run's goroutine while running; the registry hands
// out copies (via Registry.Status and Registry.List) rather than the live pointer so
// readers never race with the engine's writes.
type RunState struct {
	RunID         string
	Task          Task
	Config        RunConfig
	Nodes         map[string]*Node
	Frontier      []string
	BestNodeID    string
	NodesExpanded int
	StartTime     time.Time
	FinalAnswer   string
	Metrics       RunMetrics
	Status        RunStatus
}

// Clone returns a deep-enough copy of s suitable for handing to a reader
// outside the engine's goroutine: the Nodes map and Frontier slice are
// copied so a concurrent CHECK_STOP/PROPOSE cannot mutate what the
// caller sees.
func (s *RunState) Clone() RunState {
	cp := *s
	cp.Nodes = make(map[string]*Node, len(s.Nodes))
	for id, n := range s.Nodes {
		nc := *n
		if n.RawScores != nil {
			nc.RawScores = make(map[string]float64, len(n.RawScores))
			for k, v := range n.RawScores {
				nc.RawScores[k] = v
			}
		}
		cp.Nodes[id] = &nc
	}
	cp.Frontier = append([]string(nil), s.Frontier...)
	return cp
}
