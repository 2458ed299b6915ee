// Package cost tracks the financial cost of LLM calls a run makes,
// using a static per-model pricing table — the same approach the
// reference engine this module is modeled on uses for its own
// multi-provider cost accounting.
package cost

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing is USD cost per million tokens, input and output priced
// separately.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

var defaultModelPricing = map[string]ModelPricing{
	// OpenAI
	"gpt-4o":        {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":   {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":   {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-3.5-turbo": {InputPer1M: 0.50, OutputPer1M: 1.50},

	// Anthropic
	"claude-sonnet-4-5-20250929": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-5-sonnet":          {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-opus":              {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-sonnet":            {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku":             {InputPer1M: 0.25, OutputPer1M: 1.25},

	// Google
	"gemini-2.5-flash": {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.5-pro":   {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash": {InputPer1M: 0.075, OutputPer1M: 0.30},

	// OpenAI embeddings, priced input-only (no output tokens)
	"text-embedding-3-small": {InputPer1M: 0.02, OutputPer1M: 0},
	"text-embedding-3-large": {InputPer1M: 0.13, OutputPer1M: 0},
}

// LLMCall records one priced invocation.
type LLMCall struct {
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	Timestamp    time.Time
	NodeID       string
}

// Tracker accumulates the cost of every LLM call a single run makes.
// Safe for concurrent use: the engine's bounded-parallel PROPOSE/EVALUATE
// fan-out records calls from multiple goroutines.
type Tracker struct {
	RunID    string
	Currency string
	Pricing  map[string]ModelPricing

	mu           sync.RWMutex
	calls        []LLMCall
	totalCost    float64
	modelCosts   map[string]float64
	inputTokens  int64
	outputTokens int64
}

// NewTracker returns a Tracker seeded with the default pricing table.
func NewTracker(runID string) *Tracker {
	return &Tracker{
		RunID:      runID,
		Currency:   "USD",
		Pricing:    defaultModelPricing,
		modelCosts: make(map[string]float64),
	}
}

// RecordLLMCall prices and records one call. An unrecognized model is
// still recorded, at zero cost, rather than rejected — cost accounting
// is best-effort observability, not a billing system.
func (t *Tracker) RecordLLMCall(modelName string, inputTokens, outputTokens int, nodeID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pricing, ok := t.Pricing[modelName]
	if !ok {
		pricing = ModelPricing{}
	}

	callCost := (float64(inputTokens)/1_000_000.0)*pricing.InputPer1M +
		(float64(outputTokens)/1_000_000.0)*pricing.OutputPer1M

	t.calls = append(t.calls, LLMCall{
		Model:        modelName,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      callCost,
		Timestamp:    time.Now(),
		NodeID:       nodeID,
	})
	t.totalCost += callCost
	t.modelCosts[modelName] += callCost
	t.inputTokens += int64(inputTokens)
	t.outputTokens += int64(outputTokens)
}

// TotalCost returns the cumulative cost recorded so far.
func (t *Tracker) TotalCost() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalCost
}

// CostByModel returns a copy of the per-model cost breakdown.
func (t *Tracker) CostByModel() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float64, len(t.modelCosts))
	for k, v := range t.modelCosts {
		out[k] = v
	}
	return out
}

// TokenUsage returns total input and output tokens recorded.
func (t *Tracker) TokenUsage() (input, output int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inputTokens, t.outputTokens
}

// CallCount returns how many LLM calls have been recorded.
func (t *Tracker) CallCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.calls)
}

func (t *Tracker) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fmt.Sprintf("cost.Tracker{RunID: %s, Calls: %d, TotalCost: $%.4f %s}",
		t.RunID, len(t.calls), t.totalCost, t.Currency)
}
