package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/codeassist-ai/codeassist/pkg/types"
)

// newOpenAIChatModel builds an Eino ChatModel for OpenAI or any
// OpenAI-compatible endpoint (local inference servers included).
func newOpenAIChatModel(ctx context.Context, modelID string, cfg types.ProviderConfig) (model.ToolCallingChatModel, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNoAPIKey)
	}

	if modelID == "" {
		modelID = cfg.Model
	}
	if modelID == "" {
		modelID = "gpt-4o"
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	mcfg := &openai.ChatModelConfig{
		APIKey:              apiKey,
		Model:               modelID,
		MaxCompletionTokens: &maxTokens,
	}
	if cfg.BaseURL != "" {
		mcfg.BaseURL = cfg.BaseURL
	}

	chatModel, err := openai.NewChatModel(ctx, mcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI model: %w", err)
	}
	return chatModel, nil
}
