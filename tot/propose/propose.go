// Package propose implements the Proposer: given a frontier node, ask
// the LLM Gateway for up to K candidate child thoughts, consulting the
// semantic cache first and parsing the response robustly.
package propose

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

const defaultTemplate = `You are exploring candidate next reasoning steps for the following task.

Task: %s
Constraints: %s

Reasoning so far (root to current step):
%s

Propose up to %d diverse, concrete next thoughts that make distinct progress.
Respond as a JSON array of strings, one string per candidate thought.
If a candidate thought is itself a complete final solution, prefix it with %q.`

// Proposer expands frontier nodes into children.
type Proposer struct {
	Gateway *gateway.Gateway
	Cache   *cache.Cache
}

// New returns a Proposer using gw for LLM calls and c (may be nil to
// disable caching) for deduplication.
func New(gw *gateway.Gateway, c *cache.Cache) *Proposer {
	return &Proposer{Gateway: gw, Cache: c}
}

// Result is the outcome of expanding one frontier node.
type Result struct {
	ParentID   string
	ChildIDs   []string
	CacheHit   bool
	ParseError bool
}

// ExpandFrontier expands every node in frontier, store receiving the new
// children. Expansion runs with bounded parallelism (errgroup,
// maxConcurrent workers); the position of each child within its
// parent's proposed list is fixed before any goroutine starts, so the
// resulting child order is deterministic regardless of which goroutine's
// Gateway call returns first.
func (p *Proposer) ExpandFrontier(ctx context.Context, store *tot.ThoughtStore, task tot.Task, frontier []string, cfg tot.RunConfig, maxConcurrent int) ([]Result, error) {
	if cfg.BranchingFactor == 0 || len(frontier) == 0 {
		return nil, nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = len(frontier)
		if maxConcurrent > 8 {
			maxConcurrent = 8
		}
	}

	results := make([]Result, len(frontier))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, nodeID := range frontier {
		i, nodeID := i, nodeID
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res, err := p.expandOne(gctx, store, task, nodeID, cfg)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("propose: %w", err)
	}
	return results, nil
}

func (p *Proposer) expandOne(ctx context.Context, store *tot.ThoughtStore, task tot.Task, nodeID string, cfg tot.RunConfig) (Result, error) {
	if ctx.Err() != nil {
		return Result{ParentID: nodeID}, nil
	}

	path, err := store.PathText(nodeID)
	if err != nil {
		return Result{}, err
	}
	pathJoined := strings.Join(path, " -> ")

	cacheKey := fmt.Sprintf("propose | %s | %s", task.Instruction, pathJoined)

	var thoughts []string
	var cacheHit bool
	if p.Cache != nil {
		if payload, _, ok := p.Cache.Lookup(ctx, "propose", cacheKey); ok {
			if list, ok := payload.([]string); ok {
				thoughts = list
				cacheHit = true
			}
		}
	}

	parseErr := false
	if !cacheHit {
		if ctx.Err() != nil {
			return Result{ParentID: nodeID}, nil
		}

		prompt := renderPrompt(task, pathJoined, cfg)
		raw, err := p.Gateway.ChatCall(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}}, cfg.ProposeTemp, cfg.ChatModelTag)
		if err != nil {
			// Exhausted-retry in PROPOSE aborts this node's expansion
			// only; it does not fail the run.
			return Result{ParentID: nodeID}, nil
		}

		thoughts = parse.Thoughts(raw, cfg.BranchingFactor)
		if len(thoughts) == 0 {
			parseErr = true
		}

		if p.Cache != nil && len(thoughts) > 0 {
			p.Cache.Insert(ctx, "propose", cacheKey, thoughts)
		}
	}

	marker := cfg.Prompts.SolutionMarker
	if marker == "" {
		marker = "SOLUTION:"
	}

	childIDs := make([]string, 0, len(thoughts))
	for _, thought := range thoughts {
		child, err := store.AddChild(nodeID, thought)
		if err != nil {
			continue
		}
		if strings.Contains(thought, marker) {
			_ = store.MarkTerminal(child.ID)
		}
		childIDs = append(childIDs, child.ID)
	}

	return Result{ParentID: nodeID, ChildIDs: childIDs, CacheHit: cacheHit, ParseError: parseErr}, nil
}

// proposeTemplateData is the data a custom cfg.Prompts.Propose template
// is executed against.
type proposeTemplateData struct {
	Task        string
	Constraints string
	Path        string
	K           int
	Marker      string
}

func renderPrompt(task tot.Task, pathJoined string, cfg tot.RunConfig) string {
	marker := cfg.Prompts.SolutionMarker
	if marker == "" {
		marker = "SOLUTION:"
	}
	if cfg.Prompts.Propose != "" {
		data := proposeTemplateData{Task: task.Instruction, Constraints: task.Constraints, Path: pathJoined, K: cfg.BranchingFactor, Marker: marker}
		if rendered, err := executeTemplate("propose", cfg.Prompts.Propose, data); err == nil {
			return rendered
		}
		return cfg.Prompts.Propose
	}
	return fmt.Sprintf(defaultTemplate, task.Instruction, task.Constraints, pathJoined, cfg.BranchingFactor, marker)
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
