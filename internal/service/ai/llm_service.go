package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/code-companion/backend/internal/logging"
	"github.com/zhouzirui/code-companion/backend/internal/model/catalog"
)

// ErrUnknownModel is returned for model ids outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

// ModelFactory builds a chat model for one model id.
type ModelFactory func(ctx context.Context, modelID string) (model.BaseChatModel, error)

// Options controls how the service calls the chat model.
type Options struct {
	Stream bool
}

// Service is the inference client: it sends a prompt window to the chat
// model selected for the session and returns the generated message.
type Service struct {
	factory ModelFactory
	models  catalog.Store
	opts    Options
	logger  zerolog.Logger

	mu     sync.Mutex
	cached map[string]model.BaseChatModel
}

// NewService creates a new inference service. Chat models are created
// lazily, once per model id.
func NewService(factory ModelFactory, models catalog.Store, opts Options) *Service {
	return &Service{
		factory: factory,
		models:  models,
		opts:    opts,
		logger:  logging.Component("ai"),
		cached:  make(map[string]model.BaseChatModel),
	}
}

// StreamingEnabled reports whether responses are read incrementally.
func (s *Service) StreamingEnabled() bool {
	return s.opts.Stream
}

// ChatModel returns the chat model for modelID, creating it on first use.
func (s *Service) ChatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	if _, ok := s.models.FindByID(modelID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cm, ok := s.cached[modelID]; ok {
		return cm, nil
	}

	cm, err := s.factory(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model %s: %w", modelID, err)
	}
	s.cached[modelID] = cm
	s.logger.Info().Str("model", modelID).Msg("chat model ready")
	return cm, nil
}

// Invoke sends messages to the model and returns the complete reply.
func (s *Service) Invoke(ctx context.Context, modelID string, messages []*schema.Message) (*schema.Message, error) {
	cm, err := s.ChatModel(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if !s.opts.Stream {
		response, err := cm.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("failed to generate response: %w", err)
		}
		return response, nil
	}

	stream, err := cm.Stream(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to open response stream: %w", err)
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 64)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, fmt.Errorf("failed to read response stream: %w", recvErr)
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			s.logger.Trace().Str("model", modelID).Str("delta", chunk.Content).Msg("stream chunk")
		}
	}

	if len(chunks) == 0 {
		return schema.AssistantMessage("", nil), nil
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble streamed response: %w", err)
	}
	return response, nil
}

// ExtractText is the string-output step: the reply content, verbatim.
func ExtractText(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	return msg.Content
}

// Generate runs Invoke followed by ExtractText.
func (s *Service) Generate(ctx context.Context, modelID string, messages []*schema.Message) (string, error) {
	response, err := s.Invoke(ctx, modelID, messages)
	if err != nil {
		return "", err
	}

	text := ExtractText(response)
	s.logger.Debug().Str("model", modelID).Int("prompt_messages", len(messages)).Int("length", len(text)).Msg("generated response")
	return text, nil
}
