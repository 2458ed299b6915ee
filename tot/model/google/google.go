// Package google adapts the official Google Gemini SDK to model.ChatModel.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/tot-engine/tot-go/tot/model"
	"google.golang.org/api/option"
)

// ChatModel implements model.ChatModel for Google's Gemini API.
type ChatModel struct {
	apiKey    string
	modelName string
	client    googleClient
}

// googleClient isolates the SDK call for mocking in tests.
type googleClient interface {
	generateContent(ctx context.Context, messages []model.Message, temperature float64, modelName string) (model.ChatOut, error)
}

// NewChatModel returns a ChatModel defaulting to Gemini 2.5 Flash when
// modelName is empty.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &ChatModel{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey},
	}
}

// Chat implements model.ChatModel, translating safety-filter blocks into
// a descriptive SafetyFilterError.
func (m *ChatModel) Chat(ctx context.Context, messages []model.Message, temperature float64, modelTag string) (model.ChatOut, error) {
	if err := ctx.Err(); err != nil {
		return model.ChatOut{}, err
	}
	modelName := m.modelName
	if modelTag != "" {
		modelName = modelTag
	}
	return m.client.generateContent(ctx, messages, temperature, modelName)
}

// SafetyFilterError reports that Gemini blocked a response for a safety
// category rather than returning content.
type SafetyFilterError struct {
	Category string
}

func (e *SafetyFilterError) Error() string {
	return fmt.Sprintf("google: content blocked by safety filter: %s", e.Category)
}

type defaultClient struct {
	apiKey string
}

func (c *defaultClient) generateContent(ctx context.Context, messages []model.Message, temperature float64, modelName string) (model.ChatOut, error) {
	if c.apiKey == "" {
		return model.ChatOut{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google client error: %w", err)
	}
	defer client.Close()

	gm := client.GenerativeModel(modelName)
	temp := float32(temperature)
	gm.Temperature = &temp

	var systemPrompt string
	var history []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			systemPrompt += msg.Content + "\n"
		case model.RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if systemPrompt != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	cs := gm.StartChat()
	if len(history) > 1 {
		cs.History = history[:len(history)-1]
	}
	var last genai.Part = genai.Text("")
	if len(history) > 0 {
		last = history[len(history)-1].Parts[0]
	}

	resp, err := cs.SendMessage(ctx, last)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google API error: %w", err)
	}

	return convertResponse(resp)
}

func convertResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	out := model.ChatOut{}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 {
		return out, &SafetyFilterError{Category: "no_candidates"}
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return out, &SafetyFilterError{Category: "safety"}
	}
	if cand.Content == nil {
		return out, nil
	}
	for _, part := range cand.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			if out.Text != "" {
				out.Text += "\n"
			}
			out.Text += string(text)
		}
	}
	return out, nil
}
