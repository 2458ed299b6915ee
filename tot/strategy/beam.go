package strategy

import "github.com/tot-engine/tot-go/tot"

// BeamSearch keeps the top BeamWidth scoring nodes from this round's
// evaluated set as the next frontier.
type BeamSearch struct {
	BeamWidth int
}

func NewBeamSearch(beamWidth int) *BeamSearch {
	if beamWidth <= 0 {
		beamWidth = 1
	}
	return &BeamSearch{BeamWidth: beamWidth}
}

func (b *BeamSearch) UpdateFrontier(store *tot.ThoughtStore, evaluatedIDs []string, previousBestID string) ([]string, string) {
	sorted := sortByScoreDesc(store, evaluatedIDs)

	width := b.BeamWidth
	if width > len(sorted) {
		width = len(sorted)
	}
	frontier := append([]string(nil), sorted[:width]...)

	bestID := argMax(store, evaluatedIDs, previousBestID)
	return frontier, bestID
}
