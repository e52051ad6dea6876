package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const systemPrompt = "You are a disciplined equities and crypto trader. Reply with a single JSON object and nothing else."

// ErrEmptyReply is returned when the model answers with no content.
var ErrEmptyReply = errors.New("llm: empty reply")

// ChatModel is the subset of an eino chat model the oracle needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Config describes an OpenAI compatible endpoint.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Oracle is a DecisionOracle backed by a chat model.
type Oracle struct {
	model ChatModel
}

func New(m ChatModel) *Oracle {
	return &Oracle{model: m}
}

// NewOpenAI builds an Oracle on an OpenAI compatible chat endpoint.
func NewOpenAI(ctx context.Context, cfg Config) (*Oracle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}
	maxTokens := cfg.MaxTokens
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: chat model: %w", err)
	}
	return New(cm), nil
}

// Propose sends prompt and returns the raw reply text.
func (o *Oracle) Propose(ctx context.Context, prompt string) (string, error) {
	msg, err := o.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("llm: generate: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyReply
	}
	return msg.Content, nil
}
