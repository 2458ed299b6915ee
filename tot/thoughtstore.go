package tot

import (
	"sync"

	"github.com/google/uuid"
)

// ThoughtStore is the in-memory tree of Nodes for a single run. It is
// owned by exactly one RunState and is never shared across runs, so
// id generation only needs to be unique within one store's lifetime —
// uuid.NewString is used anyway so ids stay globally unique, which
// simplifies correlating log lines across runs.
type ThoughtStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
}

// NewThoughtStore returns an empty store.
func NewThoughtStore() *ThoughtStore {
	return &ThoughtStore{nodes: make(map[string]*Node)}
}

// CreateRoot creates the tree's root node (depth 0, no parent).
func (s *ThoughtStore) CreateRoot(thought string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := &Node{
		ID:      uuid.NewString(),
		Thought: thought,
		Depth:   0,
	}
	s.nodes[n.ID] = n
	return n
}

// AddChild appends a new node under parentID. It returns ErrNotFound if
// the parent does not exist, preserving the store's ancestor invariant.
func (s *ThoughtStore) AddChild(parentID, thought string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, ok := s.nodes[parentID]
	if !ok {
		return nil, &EngineError{Code: "not_found", Message: "parent node " + parentID + " not found"}
	}

	n := &Node{
		ID:       uuid.NewString(),
		ParentID: parentID,
		Thought:  thought,
		Depth:    parent.Depth + 1,
	}
	s.nodes[n.ID] = n
	return n, nil
}

// Get returns the node with the given id, if present.
func (s *ThoughtStore) Get(id string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// WriteScore records an evaluation result for id. It is the only
// mutation path for a node's Score/RawScores/LowConfidence fields.
func (s *ThoughtStore) WriteScore(id string, score float64, raw map[string]float64, lowConfidence bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[id]
	if !ok {
		return &EngineError{Code: "not_found", Message: "node " + id + " not found"}
	}
	n.Score = score
	n.RawScores = raw
	n.Evaluated = true
	n.LowConfidence = lowConfidence
	return nil
}

// MarkTerminal flags a node as a completed solution candidate.
func (s *ThoughtStore) MarkTerminal(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return &EngineError{Code: "not_found", Message: "node " + id + " not found"}
	}
	n.IsTerminal = true
	return nil
}

// PathText walks id's ancestor chain back to the root and returns the
// sequence of thoughts root→id.
func (s *ThoughtStore) PathText(id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reversed []string
	cur := id
	for cur != "" {
		n, ok := s.nodes[cur]
		if !ok {
			return nil, &EngineError{Code: "not_found", Message: "node " + cur + " not found while reconstructing path"}
		}
		reversed = append(reversed, n.Thought)
		cur = n.ParentID
	}

	out := make([]string, len(reversed))
	for i, t := range reversed {
		out[len(reversed)-1-i] = t
	}
	return out, nil
}

// Snapshot returns a copy of every node in the store, keyed by id.
func (s *ThoughtStore) Snapshot() map[string]*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Node, len(s.nodes))
	for id, n := range s.nodes {
		nc := *n
		out[id] = &nc
	}
	return out
}

// Len returns the number of nodes in the store, including the root.
func (s *ThoughtStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
