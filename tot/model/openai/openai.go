// Package openai adapts the official OpenAI SDK to the model.ChatModel and
// model.EmbedModel interfaces. It is the only provider adapter in this
// module's stack that implements embeddings, since neither the Anthropic
// nor Google official SDKs the module also wraps expose an embeddings
// endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tot-engine/tot-go/tot/model"
)

// ChatModel implements model.ChatModel and model.EmbedModel for OpenAI.
type ChatModel struct {
	apiKey      string
	modelName   string
	embedModel  string
	client      openaiClient
	maxRetries  int
	retryDelay  time.Duration
}

// openaiClient isolates SDK calls for mocking in tests.
type openaiClient interface {
	createChatCompletion(ctx context.Context, messages []model.Message, temperature float64, modelName string) (model.ChatOut, error)
	createEmbeddings(ctx context.Context, texts []string, modelName string) ([][]float64, error)
}

// NewChatModel returns a ChatModel defaulting to gpt-4o for chat and
// text-embedding-3-small for embeddings when names are empty.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &ChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		embedModel: "text-embedding-3-small",
		client:     &defaultClient{apiKey: apiKey},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// WithEmbedModel overrides the embedding model name.
func (m *ChatModel) WithEmbedModel(name string) *ChatModel {
	m.embedModel = name
	return m
}

// Chat implements model.ChatModel. Retries transient errors up to
// maxRetries times with linear backoff for rate limits.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, temperature float64, modelTag string) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}

	modelName := m.modelName
	if modelTag != "" {
		modelName = modelTag
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.client.createChatCompletion(ctx, messages, temperature, modelName)
		if err == nil {
			return out, nil
		}

		lastErr = err
		if !isTransientError(err) {
			return model.ChatOut{}, err
		}
		if attempt >= m.maxRetries {
			break
		}

		delay := m.retryDelay
		if isRateLimitError(err) {
			delay = m.retryDelay * time.Duration(attempt+1)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.ChatOut{}, ctx.Err()
		}
	}

	return model.ChatOut{}, fmt.Errorf("OpenAI API failed after %d retries: %w", m.maxRetries, lastErr)
}

// Embed implements model.EmbedModel.
func (m *ChatModel) Embed(ctx context.Context, texts []string, modelTag string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	modelName := m.embedModel
	if modelTag != "" {
		modelName = modelTag
	}
	return m.client.createEmbeddings(ctx, texts, modelName)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var rateLimitErr *rateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	msgLower := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "503", "502", "500"} {
		if strings.Contains(msgLower, pattern) {
			return true
		}
	}
	return false
}

func isRateLimitError(err error) bool {
	var rateLimitErr *rateLimitError
	return errors.As(err, &rateLimitErr)
}

type rateLimitError struct{ message string }

func (e *rateLimitError) Error() string { return e.message }

// defaultClient wraps the official OpenAI SDK client.
type defaultClient struct {
	apiKey string
}

func (c *defaultClient) createChatCompletion(ctx context.Context, messages []model.Message, temperature float64, modelName string) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("OpenAI API key is required")
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(modelName),
		Messages:    convertMessages(messages),
		Temperature: openaisdk.Float(temperature),
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	return convertResponse(resp), nil
}

func (c *defaultClient) createEmbeddings(ctx context.Context, texts []string, modelName string) ([][]float64, error) {
	if c.apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))

	inputs := make(openaisdk.EmbeddingNewParamsInputArrayOfStrings, len(texts))
	copy(inputs, texts)

	resp, err := client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(modelName),
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI embeddings API error: %w", err)
	}

	out := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func convertMessages(messages []model.Message) []openaisdk.ChatCompletionMessageParamUnion {
	result := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result[i] = openaisdk.SystemMessage(msg.Content)
		case model.RoleAssistant:
			result[i] = openaisdk.AssistantMessage(msg.Content)
		default:
			result[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return result
}

func convertResponse(resp *openaisdk.ChatCompletion) model.ChatOut {
	out := model.ChatOut{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}
	if len(resp.Choices) == 0 {
		return out
	}
	out.Text = resp.Choices[0].Message.Content
	return out
}
