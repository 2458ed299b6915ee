// Package evaluate implements the Hybrid Evaluator: cheap deterministic
// heuristics first, an LLM value prompt otherwise, producing a weighted
// composite score in [0,10].
package evaluate

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/tot-engine/tot-go/tot"
	"github.com/tot-engine/tot-go/tot/cache"
	"github.com/tot-engine/tot-go/tot/gateway"
	"github.com/tot-engine/tot-go/tot/model"
	"github.com/tot-engine/tot-go/tot/parse"
	"golang.org/x/sync/errgroup"
)

const defaultTemplate = `You are scoring one candidate reasoning step toward solving a task.

Task: %s
Path so far (root to candidate, last entry is the candidate):
%s

Score the candidate on three dimensions, each a number in [0,10]:
- progress: how much concrete progress toward a solution this represents
- promise: how likely this path is to lead to a correct final solution
- confidence: how confident you are in this assessment

Respond as a JSON object: {"progress": <n>, "promise": <n>, "confidence": <n>, "justification": "<text>"}`

// fallbackScores is substituted whenever the LLM value response cannot
// be parsed at all.
var fallbackScores = parse.RawScores{Progress: 5, Promise: 5, Confidence: 3}

// Evaluator scores candidate nodes.
type Evaluator struct {
	Gateway *gateway.Gateway
	Cache   *cache.Cache
}

func New(gw *gateway.Gateway, c *cache.Cache) *Evaluator {
	return &Evaluator{Gateway: gw, Cache: c}
}

// EvaluateFrontier scores every node in ids, writing results back to
// store, with bounded parallelism.
func (e *Evaluator) EvaluateFrontier(ctx context.Context, store *tot.ThoughtStore, task tot.Task, ids []string, cfg tot.RunConfig, maxConcurrent int) error {
	if len(ids) == 0 {
		return nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = len(ids)
		if maxConcurrent > 8 {
			maxConcurrent = 8
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return e.evaluateOne(gctx, store, task, id, cfg)
		})
	}

	return g.Wait()
}

func (e *Evaluator) evaluateOne(ctx context.Context, store *tot.ThoughtStore, task tot.Task, id string, cfg tot.RunConfig) error {
	node, ok := store.Get(id)
	if !ok {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	trimmed := strings.TrimSpace(node.Thought)

	failureMarker := cfg.Prompts.FailureMarker
	if failureMarker == "" {
		failureMarker = "FAILED:"
	}

	var raw parse.RawScores
	lowConfidence := false

	switch {
	case strings.Contains(trimmed, failureMarker):
		raw = parse.RawScores{Progress: 0, Promise: 0, Confidence: 10}
	case len(trimmed) < 8:
		raw = parse.RawScores{Progress: 1, Promise: 1, Confidence: 9}
	case len(trimmed) > 1000:
		raw = parse.RawScores{Progress: 3, Promise: 3, Confidence: 7}
	default:
		var err error
		raw, lowConfidence, err = e.llmValue(ctx, store, task, node, cfg)
		if err != nil {
			return err
		}
	}

	composite := compositeScore(raw, cfg.EvaluationWeights)
	rawMap := map[string]float64{
		"progress":   raw.Progress,
		"promise":    raw.Promise,
		"confidence": raw.Confidence,
	}
	return store.WriteScore(id, composite, rawMap, lowConfidence)
}

func (e *Evaluator) llmValue(ctx context.Context, store *tot.ThoughtStore, task tot.Task, node *tot.Node, cfg tot.RunConfig) (parse.RawScores, bool, error) {
	path, err := store.PathText(node.ID)
	if err != nil {
		return fallbackScores, true, nil
	}
	pathJoined := strings.Join(path, " -> ")
	cacheKey := fmt.Sprintf("evaluate | %s | %s", task.Instruction, pathJoined)

	if e.Cache != nil {
		if payload, _, ok := e.Cache.Lookup(ctx, "evaluate", cacheKey); ok {
			if scores, ok := payload.(parse.RawScores); ok {
				return scores, false, nil
			}
		}
	}

	if ctx.Err() != nil {
		return fallbackScores, true, nil
	}

	prompt := renderPrompt(task, pathJoined, cfg)
	text, err := e.Gateway.ChatCall(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}}, cfg.ValueTemp, cfg.ChatModelTag)
	if err != nil {
		// exhausted_llm falls back to low-confidence defaults, per spec.
		return fallbackScores, true, nil
	}

	scores, ok := parse.Scores(text)
	if !ok {
		return fallbackScores, true, nil
	}

	if e.Cache != nil {
		e.Cache.Insert(ctx, "evaluate", cacheKey, scores)
	}
	return scores, false, nil
}

// valueTemplateData is the data a custom cfg.Prompts.Value template is
// executed against.
type valueTemplateData struct {
	Task        string
	Constraints string
	Path        string
}

func renderPrompt(task tot.Task, pathJoined string, cfg tot.RunConfig) string {
	if cfg.Prompts.Value != "" {
		data := valueTemplateData{Task: task.Instruction, Constraints: task.Constraints, Path: pathJoined}
		if rendered, err := executeTemplate("value", cfg.Prompts.Value, data); err == nil {
			return rendered
		}
		return cfg.Prompts.Value
	}
	return fmt.Sprintf(defaultTemplate, task.Instruction, pathJoined)
}

// executeTemplate renders a caller-supplied text/template prompt. A
// template with no actions (a plain static string) renders unchanged,
// so this also accepts legacy non-templated custom prompts.
func executeTemplate(name, tmplText string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplText)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func compositeScore(raw parse.RawScores, weights tot.EvaluationWeights) float64 {
	sumWeights := weights.Progress + weights.Promise + weights.Confidence
	if sumWeights == 0 {
		weights = tot.DefaultEvaluationWeights()
		sumWeights = 3
	}
	score := (weights.Progress*raw.Progress + weights.Promise*raw.Promise + weights.Confidence*raw.Confidence) / sumWeights
	return clamp(0, 10, score)
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
