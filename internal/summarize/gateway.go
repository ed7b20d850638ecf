package summarize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/DeafMist/mundus/backend/internal/models"
)

// ErrNotConfigured is wrapped in a GatewayError when no API key was provided.
var ErrNotConfigured = errors.New("summarization not configured")

// Request is one chat completion call.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Gateway turns a prompt into generated text.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// OpenAIConfig configures the OpenAI gateway. It is built once at startup.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// OpenAIGateway calls the chat completions API.
type OpenAIGateway struct {
	client      *openai.Client
	model       string
	temperature float32
	log         *slog.Logger
}

type disabledGateway struct{}

func (disabledGateway) Complete(context.Context, Request) (string, error) {
	return "", &models.GatewayError{Err: ErrNotConfigured}
}

// NewGateway returns an OpenAI-backed gateway, or one failing every call when cfg has no API key.
func NewGateway(cfg OpenAIConfig, logger *slog.Logger) Gateway {
	if cfg.APIKey == "" {
		return disabledGateway{}
	}
	return NewOpenAIGateway(cfg, logger)
}

// NewOpenAIGateway builds the OpenAI client from cfg.
func NewOpenAIGateway(cfg OpenAIConfig, logger *slog.Logger) *OpenAIGateway {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	// go-openai drops a zero temperature from the request, which selects the server default.
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &OpenAIGateway{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: temperature,
		log:         logger,
	}
}

// Complete sends the system and user messages and returns the first choice.
func (g *OpenAIGateway) Complete(ctx context.Context, req Request) (string, error) {
	callID := uuid.NewString()
	log := g.log.With(slog.String("call_id", callID), slog.String("model", g.model))
	log.Info("sending summarization request", slog.Int("prompt_len", len(req.Prompt)))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: g.temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		log.Error("summarization request failed", slog.Any("err", err))
		return "", &models.GatewayError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &models.GatewayError{Err: errors.New("empty completion response")}
	}

	log.Info("summary generated", slog.Int("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}
