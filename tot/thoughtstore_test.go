package tot

import (
	"errors"
	"testing"
)

func TestCreateRootAndAddChild(t *testing.T) {
	s := NewThoughtStore()
	root := s.CreateRoot("root thought")
	if !root.IsRoot() {
		t.Error("expected root to report IsRoot")
	}
	if root.Depth != 0 {
		t.Errorf("expected root depth 0, got %d", root.Depth)
	}

	child, err := s.AddChild(root.ID, "child thought")
	if err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if child.IsRoot() {
		t.Error("expected child to not report IsRoot")
	}
	if child.Depth != 1 {
		t.Errorf("expected child depth 1, got %d", child.Depth)
	}
	if child.ParentID != root.ID {
		t.Errorf("expected parent id %s, got %s", root.ID, child.ParentID)
	}
}

func TestAddChildUnknownParentReturnsNotFound(t *testing.T) {
	s := NewThoughtStore()
	_, err := s.AddChild("no-such-id", "thought")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteScoreAndMarkTerminal(t *testing.T) {
	s := NewThoughtStore()
	root := s.CreateRoot("root")

	if err := s.WriteScore(root.ID, 7.5, map[string]float64{"progress": 8}, true); err != nil {
		t.Fatalf("WriteScore: %v", err)
	}
	n, _ := s.Get(root.ID)
	if n.Score != 7.5 || !n.Evaluated || !n.LowConfidence {
		t.Errorf("unexpected node state after WriteScore: %+v", n)
	}

	if err := s.MarkTerminal(root.ID); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}
	n, _ = s.Get(root.ID)
	if !n.IsTerminal {
		t.Error("expected node to be terminal")
	}
}

func TestWriteScoreUnknownNodeReturnsNotFound(t *testing.T) {
	s := NewThoughtStore()
	if err := s.WriteScore("missing", 1, nil, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPathTextWalksRootToNode(t *testing.T) {
	s := NewThoughtStore()
	root := s.CreateRoot("start")
	mid, _ := s.AddChild(root.ID, "middle")
	leaf, _ := s.AddChild(mid.ID, "end")

	path, err := s.PathText(leaf.ID)
	if err != nil {
		t.Fatalf("PathText: %v", err)
	}
	want := []string{"start", "middle", "end"}
	if len(path) != len(want) {
		t.Fatalf("expected %v, got %v", want, path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], path[i])
		}
	}
}

func TestSnapshotAndLen(t *testing.T) {
	s := NewThoughtStore()
	root := s.CreateRoot("start")
	s.AddChild(root.ID, "a")
	s.AddChild(root.ID, "b")

	if s.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", s.Len())
	}
	snap := s.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected snapshot of 3 nodes, got %d", len(snap))
	}
	// Snapshot nodes are copies, not live pointers.
	snap[root.ID].Thought = "mutated"
	live, _ := s.Get(root.ID)
	if live.Thought == "mutated" {
		t.Error("expected Snapshot to return copies, not live pointers")
	}
}

func TestRunStateCloneDeepCopiesNodesAndFrontier(t *testing.T) {
	state := &RunState{
		RunID:    "r1",
		Nodes:    map[string]*Node{"a": {ID: "a", RawScores: map[string]float64{"progress": 1}}},
		Frontier: []string{"a"},
	}
	clone := state.Clone()
	clone.Nodes["a"].RawScores["progress"] = 99
	clone.Frontier[0] = "mutated"

	if state.Nodes["a"].RawScores["progress"] == 99 {
		t.Error("expected Clone to deep-copy RawScores")
	}
	if state.Frontier[0] == "mutated" {
		t.Error("expected Clone to copy the Frontier slice")
	}
}
