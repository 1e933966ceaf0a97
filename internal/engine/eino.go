package engine

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// chatEngine adapts an Eino ChatModel to the Engine interface.
type chatEngine struct {
	chatModel   model.ToolCallingChatModel
	temperature float32
}

// NewChatEngine wraps an Eino ChatModel as an Engine.
func NewChatEngine(chatModel model.ToolCallingChatModel, temperature float64) Engine {
	return &chatEngine{chatModel: chatModel, temperature: float32(temperature)}
}

// Generate starts a streaming completion for the prompt.
func (e *chatEngine) Generate(ctx context.Context, prompt string) (Stream, error) {
	opts := []model.Option{}
	if e.temperature > 0 {
		opts = append(opts, model.WithTemperature(e.temperature))
	}

	reader, err := e.chatModel.Stream(ctx, []*schema.Message{schema.UserMessage(prompt)}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &einoStream{reader: reader}, nil
}

// einoStream adapts an Eino stream reader to text fragments.
type einoStream struct {
	reader *schema.StreamReader[*schema.Message]
}

// Recv returns the next non-empty text fragment. Chunks carrying no text
// (role headers, usage frames) are skipped.
func (s *einoStream) Recv() (string, error) {
	for {
		msg, err := s.reader.Recv()
		if err != nil {
			return "", err
		}
		if msg.Content != "" {
			return msg.Content, nil
		}
	}
}

// Close closes the underlying stream reader.
func (s *einoStream) Close() {
	s.reader.Close()
}
