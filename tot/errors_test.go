package tot

import (
	"errors"
	"testing"
)

func TestEngineErrorSatisfiesErrorsIs(t *testing.T) {
	err := &EngineError{Code: "not_found", Message: "run x not found"}
	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound by code")
	}
	if errors.Is(err, ErrInvalidConfig) {
		t.Error("expected errors.Is to not match an unrelated sentinel")
	}
}

func TestEngineErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("root cause")
	err := &EngineError{Code: "internal", Message: "wrapped", Cause: cause}
	if errors.Unwrap(err) != cause {
		t.Error("expected Unwrap to return Cause")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestEngineErrorStringIncludesCodeAndMessage(t *testing.T) {
	err := &EngineError{Code: "invalid_config", Message: "bad value"}
	want := "invalid_config: bad value"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestRunConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*RunConfig)
	}{
		{"empty strategy", func(c *RunConfig) { c.Strategy = "" }},
		{"negative max depth", func(c *RunConfig) { c.MaxDepth = -1 }},
		{"negative branching factor", func(c *RunConfig) { c.BranchingFactor = -1 }},
		{"negative beam width", func(c *RunConfig) { c.BeamWidth = -1 }},
		{"zero embedding dim", func(c *RunConfig) { c.EmbeddingDim = 0 }},
		{"out of range similarity threshold", func(c *RunConfig) { c.Cache.SimilarityThreshold = 1.5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewRunConfig()
			tc.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected Validate to reject this configuration")
			}
		})
	}
}

func TestRunConfigValidateAcceptsDefaults(t *testing.T) {
	if err := NewRunConfig().Validate(); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}
