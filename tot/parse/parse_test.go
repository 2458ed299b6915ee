package parse

import "testing"

func TestThoughtsParsesJSONArray(t *testing.T) {
	got := Thoughts(`["first thought", "second thought", ""]`, 10)
	want := []string{"first thought", "second thought"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestThoughtsParsesJSONObjectWithThoughtsField(t *testing.T) {
	got := Thoughts(`{"thoughts": ["a", "b", "c"]}`, 2)
	if len(got) != 2 {
		t.Fatalf("expected truncation to 2, got %v", got)
	}
}

func TestThoughtsFallsBackToNewlineSplitStrippingOrdinals(t *testing.T) {
	raw := "1. do the first thing\n2) do the second thing\n- do a third thing\n\n"
	got := Thoughts(raw, 10)
	want := []string{"do the first thing", "do the second thing", "do a third thing"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestThoughtsEmptyInputReturnsEmptyNonNilSlice(t *testing.T) {
	got := Thoughts("   ", 5)
	if got == nil {
		t.Fatal("expected non-nil empty slice")
	}
	if len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

func TestThoughtsTruncatesToK(t *testing.T) {
	got := Thoughts(`["a","b","c","d"]`, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
}

func TestScoresParsesJSONObject(t *testing.T) {
	scores, ok := Scores(`{"progress": 7, "promise": 8.5, "confidence": 6, "justification": "why"}`)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if scores.Progress != 7 || scores.Promise != 8.5 || scores.Confidence != 6 {
		t.Errorf("unexpected scores: %+v", scores)
	}
}

func TestScoresParsesJSONObjectWithSurroundingProse(t *testing.T) {
	raw := "Here is my evaluation:\n```json\n{\"progress\": 3, \"promise\": 4, \"confidence\": 5}\n```\nHope that helps."
	scores, ok := Scores(raw)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if scores.Progress != 3 || scores.Promise != 4 || scores.Confidence != 5 {
		t.Errorf("unexpected scores: %+v", scores)
	}
}

func TestScoresFallsBackToLabelScan(t *testing.T) {
	raw := "progress: 2 out of 10, promise is about 3, and confidence: 9"
	scores, ok := Scores(raw)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if scores.Progress != 2 || scores.Promise != 3 || scores.Confidence != 9 {
		t.Errorf("unexpected scores: %+v", scores)
	}
}

func TestScoresReturnsFalseWhenUnrecoverable(t *testing.T) {
	if _, ok := Scores("I have no idea how to score this."); ok {
		t.Fatal("expected ok=false for unparseable text")
	}
}
