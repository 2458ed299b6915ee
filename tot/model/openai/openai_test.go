package openai

import (
	"context"
	"testing"
	"time"

	"github.com/tot-engine/tot-go/tot/model"
)

type scriptedClient struct {
	chatCalls int
	chatErrs  []error
	chatOut   model.ChatOut

	embedModel string
	embedOut   [][]float64
	embedErr   error
}

func (s *scriptedClient) createChatCompletion(ctx context.Context, messages []model.Message, temperature float64, modelName string) (model.ChatOut, error) {
	idx := s.chatCalls
	s.chatCalls++
	if idx < len(s.chatErrs) && s.chatErrs[idx] != nil {
		return model.ChatOut{}, s.chatErrs[idx]
	}
	return s.chatOut, nil
}

func (s *scriptedClient) createEmbeddings(ctx context.Context, texts []string, modelName string) ([][]float64, error) {
	s.embedModel = modelName
	return s.embedOut, s.embedErr
}

func TestChatSucceedsOnFirstAttempt(t *testing.T) {
	client := &scriptedClient{chatOut: model.ChatOut{Text: "ok"}}
	cm := &ChatModel{modelName: "gpt-4o", client: client, maxRetries: 3, retryDelay: time.Millisecond}

	out, err := cm.Chat(context.Background(), nil, 0.5, "")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Text != "ok" {
		t.Errorf("expected passthrough text, got %q", out.Text)
	}
	if client.chatCalls != 1 {
		t.Errorf("expected exactly one attempt, got %d", client.chatCalls)
	}
}

func TestChatRetriesTransientErrorsThenSucceeds(t *testing.T) {
	client := &scriptedClient{
		chatErrs: []error{&rateLimitError{message: "429 too many requests"}},
		chatOut:  model.ChatOut{Text: "recovered"},
	}
	cm := &ChatModel{client: client, maxRetries: 3, retryDelay: time.Millisecond}

	out, err := cm.Chat(context.Background(), nil, 0, "")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out.Text != "recovered" {
		t.Errorf("expected recovery after retry, got %q", out.Text)
	}
	if client.chatCalls != 2 {
		t.Errorf("expected 2 attempts, got %d", client.chatCalls)
	}
}

func TestChatDoesNotRetryNonTransientErrors(t *testing.T) {
	client := &scriptedClient{chatErrs: []error{errStatic("invalid request: bad model")}}
	cm := &ChatModel{client: client, maxRetries: 3, retryDelay: time.Millisecond}

	_, err := cm.Chat(context.Background(), nil, 0, "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if client.chatCalls != 1 {
		t.Errorf("expected no retries for a non-transient error, got %d calls", client.chatCalls)
	}
}

func TestChatExhaustsRetriesAndReturnsWrappedError(t *testing.T) {
	client := &scriptedClient{chatErrs: []error{
		errStatic("timeout"), errStatic("timeout"), errStatic("timeout"), errStatic("timeout"),
	}}
	cm := &ChatModel{client: client, maxRetries: 3, retryDelay: time.Millisecond}

	_, err := cm.Chat(context.Background(), nil, 0, "")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if client.chatCalls != 4 {
		t.Errorf("expected 1 initial attempt + 3 retries = 4 calls, got %d", client.chatCalls)
	}
}

func TestEmbedUsesConfiguredModelByDefault(t *testing.T) {
	client := &scriptedClient{embedOut: [][]float64{{1, 2, 3}}}
	cm := &ChatModel{embedModel: "text-embedding-3-small", client: client}

	out, err := cm.Embed(context.Background(), []string{"hello"}, "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one vector, got %d", len(out))
	}
	if client.embedModel != "text-embedding-3-small" {
		t.Errorf("expected default embed model name, got %q", client.embedModel)
	}
}

func TestEmbedModelTagOverridesDefault(t *testing.T) {
	client := &scriptedClient{}
	cm := &ChatModel{embedModel: "text-embedding-3-small", client: client}

	_, _ = cm.Embed(context.Background(), []string{"x"}, "text-embedding-3-large")
	if client.embedModel != "text-embedding-3-large" {
		t.Errorf("expected tag override, got %q", client.embedModel)
	}
}

func TestNewChatModelDefaults(t *testing.T) {
	cm := NewChatModel("key", "")
	if cm.modelName != "gpt-4o" {
		t.Errorf("expected default chat model, got %q", cm.modelName)
	}
	if cm.embedModel != "text-embedding-3-small" {
		t.Errorf("expected default embed model, got %q", cm.embedModel)
	}
}

func TestWithEmbedModelOverridesEmbedModel(t *testing.T) {
	cm := NewChatModel("key", "").WithEmbedModel("text-embedding-3-large")
	if cm.embedModel != "text-embedding-3-large" {
		t.Errorf("expected overridden embed model, got %q", cm.embedModel)
	}
}

type errStatic string

func (e errStatic) Error() string { return string(e) }
