// Package finalize implements the Finalizer: turns the best path found
// during a run into a final answer via one last Gateway call at
// FinalizeTemp. It is a thin wrapper and does not consult the semantic
// cache — a finalize prompt is only ever rendered once per run.
package finalize

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/tot-engine/tot-go/tot"
	"github.com/tot-engine/tot-go/tot/gateway"
	"github.com/tot-engine/tot-go/tot/model"
)

const defaultTemplate = `You have explored the following reasoning path toward solving a task.

Task: %s
Path (root to best candidate):
%s

Write the final answer to the task, incorporating the reasoning above. Respond with only the final answer, no commentary.`

// Finalizer builds and sends the finalize prompt.
type Finalizer struct {
	Gateway *gateway.Gateway
}

func New(gw *gateway.Gateway) *Finalizer {
	return &Finalizer{Gateway: gw}
}

// Finalize satisfies engine.Finalizer.
func (f *Finalizer) Finalize(ctx context.Context, store *tot.ThoughtStore, task tot.Task, bestNodeID string, cfg tot.RunConfig) (string, error) {
	path, err := store.PathText(bestNodeID)
	if err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	pathJoined := strings.Join(path, " -> ")

	prompt := fmt.Sprintf(defaultTemplate, task.Instruction, pathJoined)
	if cfg.Prompts.Finalize != "" {
		data := finalizeTemplateData{Task: task.Instruction, Constraints: task.Constraints, Path: pathJoined}
		if rendered, err := executeTemplate("finalize", cfg.Prompts.Finalize, data); err == nil {
			prompt = rendered
		} else {
			prompt = cfg.Prompts.Finalize
		}
	}

	answer, err := f.Gateway.ChatCall(ctx, []model.Message{{Role: model.RoleUser, Content: prompt}}, cfg.FinalizeTemp, cfg.ChatModelTag)
	if err != nil {
		return "", fmt.Errorf("finalize: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// finalizeTemplateData is the data a custom cfg.Prompts.Finalize
// template is executed against.
type finalizeTemplateData struct {
	Task        string
	Constraints string
	Path        string
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
