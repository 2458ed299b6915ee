package strategy

import (
	"testing"

	"github.com/tot-engine/tot-go/tot"
)

func newScoredTree(t *testing.T) (*tot.ThoughtStore, []string) {
	t.Helper()
	store := tot.NewThoughtStore()
	root := store.CreateRoot("start")

	ids := make([]string, 0, 4)
	scores := []float64{7.5, 3.0, 9.0, 9.0}
	for i, s := range scores {
		child, err := store.AddChild(root.ID, "thought")
		if err != nil {
			t.Fatalf("AddChild: %v", err)
		}
		if err := store.WriteScore(child.ID, s, map[string]float64{"confidence": float64(i)}, false); err != nil {
			t.Fatalf("WriteScore: %v", err)
		}
		ids = append(ids, child.ID)
	}
	return store, ids
}

func TestBeamSearchKeepsTopWidth(t *testing.T) {
	store, ids := newScoredTree(t)
	b := NewBeamSearch(2)

	frontier, bestID := b.UpdateFrontier(store, ids, "")
	if len(frontier) != 2 {
		t.Fatalf("expected frontier width 2, got %d", len(frontier))
	}

	for _, id := range frontier {
		n, _ := store.Get(id)
		if n.Score != 9.0 {
			t.Errorf("expected only score-9 nodes in top-2, got score %v for %s", n.Score, id)
		}
	}

	best, _ := store.Get(bestID)
	if best.Score != 9.0 {
		t.Errorf("expected best score 9.0, got %v", best.Score)
	}
}

func TestBeamSearchTieBreaksOnConfidenceThenID(t *testing.T) {
	store, ids := newScoredTree(t)
	b := NewBeamSearch(1)

	frontier, _ := b.UpdateFrontier(store, ids, "")
	if len(frontier) != 1 {
		t.Fatalf("expected width 1, got %d", len(frontier))
	}
	// ids[2] and ids[3] both score 9.0; ids[3] has higher confidence (3 vs 2).
	if frontier[0] != ids[3] {
		t.Errorf("expected tie-break to prefer higher confidence node %s, got %s", ids[3], frontier[0])
	}
}

func TestBeamSearchClampsWidthToZeroOrNegative(t *testing.T) {
	b := NewBeamSearch(0)
	if b.BeamWidth != 1 {
		t.Errorf("expected non-positive width to clamp to 1, got %d", b.BeamWidth)
	}
}

func TestBestFirstSearchReAdmitsPreviouslyPrunedNodes(t *testing.T) {
	store, ids := newScoredTree(t)
	bf := NewBestFirstSearch()

	// Round 1: only the low scorer is "evaluated" this round.
	frontier1, _ := bf.UpdateFrontier(store, []string{ids[1]}, "")
	if len(frontier1) != 1 || frontier1[0] != ids[1] {
		t.Fatalf("expected round 1 frontier to be the only candidate, got %v", frontier1)
	}

	// Round 2: the rest arrive with higher scores; best-first should pick
	// the global max even though ids[1] was already "selected" once.
	frontier2, bestID := bf.UpdateFrontier(store, ids[2:], ids[1])
	if len(frontier2) != 1 {
		t.Fatalf("expected best-first frontier size 1, got %d", len(frontier2))
	}
	if frontier2[0] != ids[3] {
		t.Errorf("expected global best %s, got %s", ids[3], frontier2[0])
	}
	if best, _ := store.Get(bestID); best.Score != 9.0 {
		t.Errorf("expected best-so-far score 9.0, got %v", best.Score)
	}

	// Round 3: nothing new is evaluated; ids[2], passed over in round 2,
	// is re-admitted as the remaining global max.
	frontier3, _ := bf.UpdateFrontier(store, nil, bestID)
	if len(frontier3) != 1 || frontier3[0] != ids[2] {
		t.Errorf("expected previously pruned %s to be re-admitted, got %v", ids[2], frontier3)
	}
}

func TestBestFirstSearchEmptyCandidatesReturnsNilFrontier(t *testing.T) {
	store := tot.NewThoughtStore()
	root := store.CreateRoot("start")
	_ = store.MarkTerminal(root.ID)

	bf := NewBestFirstSearch()
	frontier, _ := bf.UpdateFrontier(store, []string{root.ID}, "")
	if frontier != nil {
		t.Errorf("expected nil frontier when all candidates are terminal, got %v", frontier)
	}
}

func TestMonteCarloPrefersUnvisitedThenScore(t *testing.T) {
	store, ids := newScoredTree(t)
	mc := NewMonteCarlo(1)

	frontier, _ := mc.UpdateFrontier(store, ids, "")
	if len(frontier) != 1 {
		t.Fatalf("expected width 1, got %d", len(frontier))
	}
	// All nodes start unvisited (infinite UCB1) and the sort is stable, so
	// round 1 picks the first evaluated id. On round 2 that node has been
	// visited and scores finitely, so a still-unvisited node is preferred.
	second, _ := mc.UpdateFrontier(store, ids, "")
	if second[0] == frontier[0] {
		t.Errorf("expected an unvisited node on round 2, got %s again; visits=%v", frontier[0], mc.visits)
	}
}

func TestStrategyRegistryResolvesBuiltins(t *testing.T) {
	cfg := tot.NewRunConfig()
	cfg.Strategy = tot.StrategyBeamSearch
	cfg.BeamWidth = 3
	s, err := For(cfg)
	if err != nil {
		t.Fatalf("For(beam_search): %v", err)
	}
	if _, ok := s.(*BeamSearch); !ok {
		t.Errorf("expected *BeamSearch, got %T", s)
	}

	cfg.Strategy = tot.StrategyBestFirstSearch
	s, err = For(cfg)
	if err != nil {
		t.Fatalf("For(best_first_search): %v", err)
	}
	if _, ok := s.(*BestFirstSearch); !ok {
		t.Errorf("expected *BestFirstSearch, got %T", s)
	}
}

func TestStrategyRegistryRejectsUnknownTag(t *testing.T) {
	cfg := tot.NewRunConfig()
	cfg.Strategy = tot.Strategy("no_such_strategy")
	if _, err := For(cfg); err == nil {
		t.Fatal("expected error for unregistered strategy tag")
	}
}

func TestStrategyRegistryAcceptsCustomMonteCarloRegistration(t *testing.T) {
	Register(tot.Strategy("monte_carlo"), NewMonteCarloFactory(2))
	defer Register(tot.Strategy("monte_carlo"), nil)

	cfg := tot.NewRunConfig()
	cfg.Strategy = tot.Strategy("monte_carlo")
	s, err := For(cfg)
	if err != nil {
		t.Fatalf("For(monte_carlo): %v", err)
	}
	if _, ok := s.(*MonteCarlo); !ok {
		t.Errorf("expected *MonteCarlo, got %T", s)
	}
}
