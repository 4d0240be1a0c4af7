package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/devdanielvaldez/autoclinic-bot/internal/config"
	"github.com/devdanielvaldez/autoclinic-bot/internal/conversation"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

// BuildGenerator wires the primary text generator named by LLM_PROVIDER and,
// when LLM_FALLBACK_PROVIDER is set, a fallback tried on primary errors.
func BuildGenerator(ctx context.Context, cfg *appconfig.Config, bedrock *bedrockruntime.Client, logger *logging.Logger) (conversation.LLMClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primary, err := buildProvider(ctx, cfg.LLMProvider, cfg, bedrock)
	if err != nil {
		return nil, err
	}
	fallbackName := strings.TrimSpace(cfg.LLMFallbackProvider)
	if fallbackName == "" || fallbackName == cfg.LLMProvider {
		logger.Info("generator ready", "provider", cfg.LLMProvider)
		return primary, nil
	}

	fallback, err := buildProvider(ctx, fallbackName, cfg, bedrock)
	if err != nil {
		logger.Warn("fallback generator unavailable; continuing without it", "provider", fallbackName, "error", err)
		return primary, nil
	}
	logger.Info("generator ready", "provider", cfg.LLMProvider, "fallback", fallbackName)
	return conversation.NewFallbackLLMClient(primary, fallback, logger), nil
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, bedrock *bedrockruntime.Client) (conversation.LLMClient, error) {
	switch name {
	case "gemini":
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "ollama", "":
		client, err := conversation.NewOllamaLLMClient(cfg.OllamaBaseURL, cfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		client, err := conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "bedrock":
		if bedrock == nil {
			return nil, fmt.Errorf("bootstrap: bedrock provider requires an aws client")
		}
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, fmt.Errorf("bootstrap: bedrock provider requires BEDROCK_MODEL_ID")
		}
		return conversation.NewBedrockLLMClient(bedrock, cfg.BedrockModelID), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
