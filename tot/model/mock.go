package model

import (
	"context"
	"math"
	"sync"
)

// MockChatModel is a scripted ChatModel test double. Responses are
// returned in order, one per call; once exhausted, the last response is
// reused. If Err is set, the first ErrAfter calls return it and later
// calls return Responses[callNumber] as above (a zero ErrAfter means
// every call fails).
type MockChatModel struct {
	Responses []ChatOut
	Err       error
	ErrAfter  int

	mu        sync.Mutex
	Calls     []MockChatCall
	callIndex int
}

// MockChatCall records one invocation for assertions in tests.
type MockChatCall struct {
	Messages    []Message
	Temperature float64
	ModelTag    string
}

func (m *MockChatModel) Chat(ctx context.Context, messages []Message, temperature float64, modelTag string) (ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return ChatOut{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockChatCall{Messages: messages, Temperature: temperature, ModelTag: modelTag})
	attempt := m.callIndex
	m.callIndex++

	if m.Err != nil && (m.ErrAfter == 0 || attempt < m.ErrAfter) {
		return ChatOut{}, m.Err
	}

	if len(m.Responses) == 0 {
		return ChatOut{}, nil
	}
	if attempt < len(m.Responses) {
		return m.Responses[attempt], nil
	}
	return m.Responses[len(m.Responses)-1], nil
}

// CallCount returns the number of Chat invocations recorded so far.
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Reset clears recorded call history without touching the scripted
// responses.
func (m *MockChatModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// MockEmbedModel is a deterministic EmbedModel test double: it hashes
// each input text into a fixed-dimension vector so that identical texts
// always embed identically (needed for the semantic cache's exact-hit
// test scenarios) without depending on a real embedding API.
type MockEmbedModel struct {
	Dim int

	mu    sync.Mutex
	Calls int
}

func (m *MockEmbedModel) Embed(ctx context.Context, texts []string, modelTag string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	dim := m.Dim
	if dim <= 0 {
		dim = 16
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t, dim)
	}
	return out, nil
}

// hashEmbed produces a deterministic unit-norm vector from text using a
// simple rolling hash per dimension; it has no relation to real
// embedding semantics and exists only so tests can exercise exact and
// near-duplicate cache hits deterministically.
func hashEmbed(text string, dim int) []float64 {
	v := make([]float64, dim)
	h := uint32(2166136261)
	for i, r := range text {
		h ^= uint32(r)
		h *= 16777619
		v[i%dim] += float64(h%997) / 997.0
	}

	var norm float64
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := 1.0 / math.Sqrt(norm)
	for i := range v {
		v[i] *= scale
	}
	return v
}
