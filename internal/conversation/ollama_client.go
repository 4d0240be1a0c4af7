package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// OllamaLLMClient talks to a local Ollama server through langchaingo.
// Reasoning models served this way wrap their chain of thought in
// <think> tags, which the assistant strips.
type OllamaLLMClient struct {
	model llms.Model
}

// NewOllamaLLMClient connects to serverURL and uses modelName for completions.
func NewOllamaLLMClient(serverURL, modelName string) (*OllamaLLMClient, error) {
	opts := []ollama.Option{ollama.WithModel(modelName)}
	if strings.TrimSpace(serverURL) != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create ollama client: %w", err)
	}
	return &OllamaLLMClient{model: llm}, nil
}

// NewOllamaLLMClientWithModel wraps any langchaingo model. Used by tests.
func NewOllamaLLMClientWithModel(model llms.Model) *OllamaLLMClient {
	if model == nil {
		panic("conversation: langchaingo model cannot be nil")
	}
	return &OllamaLLMClient{model: model}
}

func (c *OllamaLLMClient) Name() string { return "ollama" }

func (c *OllamaLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	content := make([]llms.MessageContent, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, block))
		}
	}
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			content = append(content, llms.TextParts(schema.ChatMessageTypeSystem, msg.Content))
		case ChatRoleUser:
			content = append(content, llms.TextParts(schema.ChatMessageTypeHuman, msg.Content))
		case ChatRoleAssistant:
			content = append(content, llms.TextParts(schema.ChatMessageTypeAI, msg.Content))
		default:
			return LLMResponse{}, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}

	var opts []llms.CallOption
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(int(req.MaxTokens)))
	}
	if req.Temperature >= 0 {
		opts = append(opts, llms.WithTemperature(float64(req.Temperature)))
	}
	if req.TopP > 0 {
		opts = append(opts, llms.WithTopP(float64(req.TopP)))
	}

	resp, err := c.model.GenerateContent(ctx, content, opts...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: ollama completion failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("conversation: ollama returned no choices")
	}
	choice := resp.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Content),
		StopReason: choice.StopReason,
	}, nil
}
