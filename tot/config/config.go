// Package config implements the optional config loader: a RunConfig
// populated from recognized JSON keys, unknown keys ignored, following
// the plain encoding/json style used throughout this module's stack
// rather than pulling in a dedicated config library.
package config

import (
	"encoding/json"
	"io"

	"github.com/tot-engine/tot-go/tot"
)

// raw mirrors the subset of tot.RunConfig this loader recognizes.
// Fields absent from the input JSON leave the corresponding RunConfig
// field at its NewRunConfig default.
type raw struct {
	Strategy        *string  `json:"strategy"`
	MaxDepth        *int     `json:"max_depth"`
	BranchingFactor *int     `json:"branching_factor"`
	BeamWidth       *int     `json:"beam_width"`
	ProposeTemp     *float64 `json:"propose_temp"`
	ValueTemp       *float64 `json:"value_temp"`
	FinalizeTemp    *float64 `json:"finalize_temp"`

	EvaluationWeights *struct {
		Progress   *float64 `json:"progress"`
		Promise    *float64 `json:"promise"`
		Confidence *float64 `json:"confidence"`
	} `json:"evaluation_weights"`

	StopConditions *struct {
		MaxNodes       *int     `json:"max_nodes"`
		MaxTimeSeconds *float64 `json:"max_time_seconds"`
		ScoreThreshold *float64 `json:"score_threshold"`
	} `json:"stop_conditions"`

	EmbeddingDim *int `json:"embedding_dim"`

	Cache *struct {
		SimilarityThreshold *float64 `json:"similarity_threshold"`
		MaxEntries          *int     `json:"max_entries"`
	} `json:"cache"`

	Prompts *struct {
		Propose        *string `json:"propose"`
		Value          *string `json:"value"`
		Finalize       *string `json:"finalize"`
		SolutionMarker *string `json:"solution_marker"`
		FailureMarker  *string `json:"failure_marker"`
	} `json:"prompts"`

	ChatModelTag  *string `json:"chat_model_tag"`
	EmbedModelTag *string `json:"embed_model_tag"`
	MaxConcurrent *int    `json:"max_concurrent"`
}

// Load parses JSON from r into a RunConfig seeded with
// tot.NewRunConfig's defaults, then validates the result.
func Load(r io.Reader) (tot.RunConfig, error) {
	cfg := tot.NewRunConfig()

	var parsed raw
	dec := json.NewDecoder(r)
	if err := dec.Decode(&parsed); err != nil {
		if err == io.EOF {
			return cfg, cfg.Validate()
		}
		return tot.RunConfig{}, &tot.EngineError{Code: "invalid_config", Message: "malformed config JSON", Cause: err}
	}

	apply(&cfg, &parsed)

	if err := cfg.Validate(); err != nil {
		return tot.RunConfig{}, err
	}
	return cfg, nil
}

func apply(cfg *tot.RunConfig, p *raw) {
	if p.Strategy != nil {
		cfg.Strategy = tot.Strategy(*p.Strategy)
	}
	if p.MaxDepth != nil {
		cfg.MaxDepth = *p.MaxDepth
	}
	if p.BranchingFactor != nil {
		cfg.BranchingFactor = *p.BranchingFactor
	}
	if p.BeamWidth != nil {
		cfg.BeamWidth = *p.BeamWidth
	}
	if p.ProposeTemp != nil {
		cfg.ProposeTemp = *p.ProposeTemp
	}
	if p.ValueTemp != nil {
		cfg.ValueTemp = *p.ValueTemp
	}
	if p.FinalizeTemp != nil {
		cfg.FinalizeTemp = *p.FinalizeTemp
	}
	if w := p.EvaluationWeights; w != nil {
		if w.Progress != nil {
			cfg.EvaluationWeights.Progress = *w.Progress
		}
		if w.Promise != nil {
			cfg.EvaluationWeights.Promise = *w.Promise
		}
		if w.Confidence != nil {
			cfg.EvaluationWeights.Confidence = *w.Confidence
		}
	}
	if s := p.StopConditions; s != nil {
		if s.MaxNodes != nil {
			cfg.StopConditions.MaxNodes = *s.MaxNodes
		}
		if s.MaxTimeSeconds != nil {
			cfg.StopConditions.MaxTimeSeconds = *s.MaxTimeSeconds
		}
		if s.ScoreThreshold != nil {
			cfg.StopConditions.ScoreThreshold = *s.ScoreThreshold
		}
	}
	if p.EmbeddingDim != nil {
		cfg.EmbeddingDim = *p.EmbeddingDim
	}
	if c := p.Cache; c != nil {
		if c.SimilarityThreshold != nil {
			cfg.Cache.SimilarityThreshold = *c.SimilarityThreshold
		}
		if c.MaxEntries != nil {
			cfg.Cache.MaxEntries = *c.MaxEntries
		}
	}
	if pr := p.Prompts; pr != nil {
		if pr.Propose != nil {
			cfg.Prompts.Propose = *pr.Propose
		}
		if pr.Value != nil {
			cfg.Prompts.Value = *pr.Value
		}
		if pr.Finalize != nil {
			cfg.Prompts.Finalize = *pr.Finalize
		}
		if pr.SolutionMarker != nil {
			cfg.Prompts.SolutionMarker = *pr.SolutionMarker
		}
		if pr.FailureMarker != nil {
			cfg.Prompts.FailureMarker = *pr.FailureMarker
		}
	}
	if p.ChatModelTag != nil {
		cfg.ChatModelTag = *p.ChatModelTag
	}
	if p.EmbedModelTag != nil {
		cfg.EmbedModelTag = *p.EmbedModelTag
	}
	if p.MaxConcurrent != nil {
		cfg.MaxConcurrent = *p.MaxConcurrent
	}
}
