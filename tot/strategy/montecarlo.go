package strategy

import (
	"math"

	"github.com/tot-engine/tot-go/tot"
)

// MonteCarlo picks the next frontier node by UCB1 score rather than raw
// evaluation score, trading off exploitation of high scorers against
// exploration of lightly-visited nodes. It is not one of the two
// strategy tags spec.md names; callers opt in with
// strategy.Register(tot.Strategy("monte_carlo"), strategy.NewMonteCarloFactory(width)).
type MonteCarlo struct {
	Width  int
	visits map[string]int
}

func NewMonteCarlo(width int) *MonteCarlo {
	if width <= 0 {
		width = 1
	}
	return &MonteCarlo{Width: width, visits: make(map[string]int)}
}

// NewMonteCarloFactory returns a Factory suitable for strategy.Register,
// ignoring cfg and using a fixed frontier width.
func NewMonteCarloFactory(width int) Factory {
	return func(tot.RunConfig) Strategy { return NewMonteCarlo(width) }
}

func (m *MonteCarlo) UpdateFrontier(store *tot.ThoughtStore, evaluatedIDs []string, previousBestID string) ([]string, string) {
	totalVisits := 0
	for _, v := range m.visits {
		totalVisits += v
	}

	type ranked struct {
		id    string
		score float64
	}
	items := make([]ranked, 0, len(evaluatedIDs))
	for _, id := range evaluatedIDs {
		node, ok := store.Get(id)
		if !ok || node.IsTerminal {
			continue
		}
		items = append(items, ranked{id: id, score: m.ucb1(id, node.Score, totalVisits)})
	}

	sort := func() {
		for i := 1; i < len(items); i++ {
			for j := i; j > 0 && items[j].score > items[j-1].score; j-- {
				items[j], items[j-1] = items[j-1], items[j]
			}
		}
	}
	sort()

	width := m.Width
	if width > len(items) {
		width = len(items)
	}
	frontier := make([]string, width)
	for i := 0; i < width; i++ {
		frontier[i] = items[i].id
		m.visits[items[i].id]++
	}

	bestID := argMax(store, evaluatedIDs, previousBestID)
	return frontier, bestID
}

// ucb1 follows the exploitation-plus-exploration shape of the
// reference MCTS agent: unvisited nodes sort first (infinite score), then
// higher raw score plus a bonus for nodes visited less than the total.
func (m *MonteCarlo) ucb1(id string, score float64, totalVisits int) float64 {
	visits := m.visits[id]
	if visits == 0 {
		return math.Inf(1)
	}
	exploration := math.Sqrt(2 * math.Log(float64(totalVisits+1)) / float64(visits))
	return score + exploration
}
