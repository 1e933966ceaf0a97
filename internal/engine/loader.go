package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/components/model"

	"github.com/codeassist-ai/codeassist/internal/logging"
	"github.com/codeassist-ai/codeassist/pkg/types"
)

// Loader constructs the generation resource. Loading is slow and may fail;
// the model manager calls it at most once per initialization attempt.
type Loader interface {
	Load(ctx context.Context) (*Handle, error)
}

// ConfigLoader builds an engine handle from application configuration,
// selecting the provider from the "provider/model" reference.
type ConfigLoader struct {
	cfg *types.Config
}

// NewLoader creates a ConfigLoader.
func NewLoader(cfg *types.Config) *ConfigLoader {
	return &ConfigLoader{cfg: cfg}
}

// Load builds the provider ChatModel and wraps it as an engine handle.
// Transient constructor failures within this one load attempt are retried
// with exponential backoff; the final error surfaces to the manager.
func (l *ConfigLoader) Load(ctx context.Context) (*Handle, error) {
	providerID, modelID := SplitModelRef(l.cfg.Model)

	logging.Info().
		Str("provider", providerID).
		Str("model", modelID).
		Msg("loading generation engine")

	build := func() (model.ToolCallingChatModel, error) {
		pc := l.cfg.Provider[providerID]
		var (
			cm  model.ToolCallingChatModel
			err error
		)
		switch providerID {
		case "anthropic", "claude":
			cm, err = newAnthropicChatModel(ctx, modelID, pc)
		case "openai", "ollama", "qwen":
			cm, err = newOpenAIChatModel(ctx, modelID, pc)
		default:
			return nil, backoff.Permanent(fmt.Errorf("unknown provider %q", providerID))
		}
		if errors.Is(err, ErrNoAPIKey) {
			return nil, backoff.Permanent(err)
		}
		return cm, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	chatModel, err := backoff.RetryWithData(build, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("engine load failed: %w", err)
	}

	return &Handle{
		ProviderID: providerID,
		ModelID:    modelID,
		Engine:     NewChatEngine(chatModel, l.cfg.Temperature),
	}, nil
}

// SplitModelRef splits a "provider/model" reference. A bare model name
// defaults to the openai provider.
func SplitModelRef(ref string) (providerID, modelID string) {
	if ref == "" {
		return "openai", ""
	}
	parts := strings.SplitN(ref, "/", 2)
	if len(parts) == 1 {
		return "openai", parts[0]
	}
	return parts[0], parts[1]
}
