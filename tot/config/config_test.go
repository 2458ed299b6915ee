package config

import (
	"strings"
	"testing"

	"github.com/tot-engine/tot-go/tot"
)

func TestLoadAppliesRecognizedKeysOverDefaults(t *testing.T) {
	input := `{
		"strategy": "best_first_search",
		"max_depth": 5,
		"branching_factor": 4,
		"stop_conditions": {"max_nodes": 200},
		"cache": {"similarity_threshold": 0.9},
		"unknown_field": "ignored"
	}`

	cfg, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Strategy != tot.StrategyBestFirstSearch {
		t.Errorf("expected strategy override, got %v", cfg.Strategy)
	}
	if cfg.MaxDepth != 5 {
		t.Errorf("expected max_depth 5, got %d", cfg.MaxDepth)
	}
	if cfg.BranchingFactor != 4 {
		t.Errorf("expected branching_factor 4, got %d", cfg.BranchingFactor)
	}
	if cfg.StopConditions.MaxNodes != 200 {
		t.Errorf("expected max_nodes 200, got %d", cfg.StopConditions.MaxNodes)
	}
	if cfg.Cache.SimilarityThreshold != 0.9 {
		t.Errorf("expected similarity_threshold 0.9, got %v", cfg.Cache.SimilarityThreshold)
	}

	// Untouched fields keep NewRunConfig defaults.
	defaults := tot.NewRunConfig()
	if cfg.BeamWidth != defaults.BeamWidth {
		t.Errorf("expected beam_width to keep default %d, got %d", defaults.BeamWidth, cfg.BeamWidth)
	}
}

func TestLoadEmptyInputReturnsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Load(empty): %v", err)
	}
	defaults := tot.NewRunConfig()
	if cfg.Strategy != defaults.Strategy || cfg.MaxDepth != defaults.MaxDepth {
		t.Errorf("expected defaults for empty input, got %+v", cfg)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadRejectsInvalidResultingConfig(t *testing.T) {
	input := `{"max_depth": -1}`
	if _, err := Load(strings.NewReader(input)); err == nil {
		t.Fatal("expected validation error for negative max_depth")
	}
}
