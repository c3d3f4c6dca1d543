package completion

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/config"
	"github.com/dkarki/twinfolio/internal/model/conv"
)

const historyLimit = 10

// Service wraps the chat model behind two compiled chains: the primary one
// for answer synthesis and a fast one for translation and tool decisions.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	logger    *zap.Logger
	chain     compose.Runnable[map[string]any, *schema.Message]
	fastChain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the chains up front so per-request work is one Invoke.
func NewService(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	chain, err := compileChain(ctx, chatModel)
	if err != nil {
		return nil, err
	}

	fastModel, err := cfg.NewFastChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create fast chat model: %w", err)
	}

	fastChain, err := compileChain(ctx, fastModel)
	if err != nil {
		return nil, err
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		logger:    logger.Named("completion"),
		chain:     chain,
		fastChain: fastChain,
	}, nil
}

func compileChain(ctx context.Context, chatModel model.ChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return runnable, nil
}

// Complete runs a single completion over the primary chain.
func (s *Service) Complete(ctx context.Context, system, query string, history []conv.Turn) (string, error) {
	response, err := s.chain.Invoke(ctx, chainInput(system, query, history))
	if err != nil {
		return "", fmt.Errorf("failed to run chat chain: %w", err)
	}

	s.logger.Debug("completion generated", zap.Int("length", len(response.Content)))
	return response.Content, nil
}

// CompleteFast runs the small model; used where latency matters more than
// answer quality (translation, routing decisions).
func (s *Service) CompleteFast(ctx context.Context, system, query string) (string, error) {
	response, err := s.fastChain.Invoke(ctx, chainInput(system, query, nil))
	if err != nil {
		return "", fmt.Errorf("failed to run fast chain: %w", err)
	}
	return response.Content, nil
}

// Stream streams the primary chain's output for the SSE and websocket
// surfaces.
func (s *Service) Stream(ctx context.Context, system, query string, history []conv.Turn) (*schema.StreamReader[*schema.Message], error) {
	stream, err := s.chain.Stream(ctx, chainInput(system, query, history))
	if err != nil {
		return nil, fmt.Errorf("failed to stream chat chain output: %w", err)
	}
	return stream, nil
}

func chainInput(system, query string, history []conv.Turn) map[string]any {
	return map[string]any{
		"system":  system,
		"history": buildHistoryMessages(history),
		"query":   query,
	}
}

func buildHistoryMessages(turns []conv.Turn) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if len(turns) > historyLimit {
		startIdx = len(turns) - historyLimit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case conv.RoleUser:
			history = append(history, schema.UserMessage(turn.Text))
		case conv.RoleAssistant:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}

	return history
}
