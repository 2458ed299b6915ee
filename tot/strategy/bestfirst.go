package strategy

import "github.com/tot-engine/tot-go/tot"

// BestFirstSearch always expands the single highest-scoring unexpanded,
// non-terminal node across the whole tree evaluated so far, re-admitting
// nodes pruned in earlier rounds if they remain the global max — the
// spec's open question on re-admission is resolved as "yes, global
// frontier" (see SPEC_FULL.md §9).
//
// One instance is created per run (via the registry factory) and is not
// safe to share across runs: it accumulates candidate ids as
// UpdateFrontier is called once per engine loop iteration.
type BestFirstSearch struct {
	candidates map[string]struct{}
}

func NewBestFirstSearch() *BestFirstSearch {
	return &BestFirstSearch{candidates: make(map[string]struct{})}
}

func (b *BestFirstSearch) UpdateFrontier(store *tot.ThoughtStore, evaluatedIDs []string, previousBestID string) ([]string, string) {
	for _, id := range evaluatedIDs {
		node, ok := store.Get(id)
		if !ok || node.IsTerminal {
			continue
		}
		b.candidates[id] = struct{}{}
	}

	candidateIDs := make([]string, 0, len(b.candidates))
	for id := range b.candidates {
		candidateIDs = append(candidateIDs, id)
	}

	bestID := argMax(store, evaluatedIDs, previousBestID)

	if len(candidateIDs) == 0 {
		return nil, bestID
	}

	sorted := sortByScoreDesc(store, candidateIDs)
	top := sorted[0]
	delete(b.candidates, top)

	return []string{top}, bestID
}
