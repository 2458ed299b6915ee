// Package model defines the provider-agnostic interfaces the rest of the
// module uses to talk to an LLM: ChatModel for text generation and
// EmbedModel for vector embeddings. Concrete adapters for Anthropic,
// OpenAI and Google live in the anthropic, openai and google
// subpackages; nothing outside this package and its subpackages should
// ever import a vendor SDK directly.
package model

import "context"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    Role
	Content string
}

// ChatOut is the result of a Chat call.
type ChatOut struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// ChatModel is the uniform interface every chat provider adapter
// implements. Implementations are responsible for:
//   - honoring ctx cancellation and deadlines for the in-flight call
//   - translating provider-specific transient errors into a form the
//     caller can retry (the gateway package wraps a ChatModel with its
//     own retry/backoff policy; individual adapters may additionally
//     retry server-side rate limits they can detect cheaply)
//
// Temperature is a real in [0,2]; modelTag selects a specific model
// name understood by the adapter (e.g. "gpt-4o", "claude-sonnet-4-5",
// "gemini-2.5-flash"); an empty tag uses the adapter's configured
// default.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, temperature float64, modelTag string) (ChatOut, error)
}

// EmbedModel is the uniform interface for text embedding. Not every
// chat provider in this module's stack also offers embeddings — only
// the OpenAI adapter implements it today (see tot/model/openai) — so
// callers that need embeddings (the semantic cache) take an EmbedModel
// value directly rather than assuming every ChatModel has one.
type EmbedModel interface {
	Embed(ctx context.Context, texts []string, modelTag string) ([][]float64, error)
}
