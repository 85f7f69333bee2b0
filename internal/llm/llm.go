package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/profquiz/internal/llm/prompts"
	"github.com/pavelanni/profquiz/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// Completer sends a single prompt to a model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Complete asks the model for a JSON object answering prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", raw)
	return raw, nil
}

// Author generates bilingual quiz questions with a Completer.
type Author struct {
	c       Completer
	variant prompts.PromptVariant
}

// NewAuthor creates an Author. Prompt templates must be loaded with
// prompts.Load beforehand.
func NewAuthor(c Completer, variant prompts.PromptVariant) *Author {
	return &Author{c: c, variant: variant}
}

// GenerateQuestion asks the model for one new question for p.
func (a *Author) GenerateQuestion(ctx context.Context, p model.Profession, avoid []string) (model.QuestionImport, error) {
	prompt, err := prompts.BuildGeneratePrompt(a.variant, p, avoid)
	if err != nil {
		return model.QuestionImport{}, fmt.Errorf("build prompt: %w", err)
	}
	raw, err := a.c.Complete(ctx, prompt)
	if err != nil {
		return model.QuestionImport{}, err
	}
	return parseQuestion(raw)
}

// parseQuestion decodes a generated question, tolerating markdown fences or
// prose around the JSON object.
func parseQuestion(raw string) (model.QuestionImport, error) {
	var qi model.QuestionImport
	text := extractJSON(raw)
	if text == "" {
		return qi, fmt.Errorf("no JSON object in LLM response (raw: %s)", raw)
	}
	if err := json.Unmarshal([]byte(text), &qi); err != nil {
		return qi, fmt.Errorf("parse LLM response: %w (raw: %s)", err, raw)
	}

	if c, ok := model.ParseChoice(string(qi.CorrectAnswer)); ok {
		qi.CorrectAnswer = c
	}
	qi.Difficulty = model.Difficulty(strings.ToLower(strings.TrimSpace(string(qi.Difficulty))))
	if qi.Difficulty == "" {
		qi.Difficulty = model.DifficultyMedium
	}

	if err := qi.Question(0).Validate(); err != nil {
		return qi, fmt.Errorf("invalid generated question: %w", err)
	}
	return qi, nil
}

// extractJSON returns the outermost {...} span of s, or "" if there is none.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}
