package service

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	config "github.com/maheshrc27/autopost-api/configs"
)

type CompletionRequest struct {
	System           string
	User             string
	Temperature      float64
	PresencePenalty  float64
	FrequencyPenalty float64
	MaxTokens        int
}

// TextGenerator is the generative text collaborator.
type TextGenerator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type openAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator returns nil when no API key is configured so that
// callers degrade to their offline behaviour.
func NewOpenAIGenerator(cfg config.OpenAI) TextGenerator {
	if cfg.APIKey == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &openAIGenerator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}
}

func (g *openAIGenerator) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.System),
	}
	if req.User != "" {
		msgs = append(msgs, openai.UserMessage(req.User))
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(req.PresencePenalty)
	}
	if req.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(req.FrequencyPenalty)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", newError(KindUpstreamUnavailable, "openai", "completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", newError(KindUpstreamUnavailable, "openai", "empty choices", nil)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", newError(KindUpstreamUnavailable, "openai", "empty reply", errors.New("no content"))
	}
	return text, nil
}
