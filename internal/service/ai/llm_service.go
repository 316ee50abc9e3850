package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/bothive/internal/config"
	"github.com/zhouzirui/bothive/internal/model/chat"
	"github.com/zhouzirui/bothive/internal/model/profile"
)

// Service generates webhook replies with an eino chain over the ark chat model.
type Service struct {
	chatModel model.ChatModel
	profile   profile.Profile
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the chat model and compiles the prompt chain.
func NewService(ctx context.Context, p profile.Profile, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

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

	return &Service{
		chatModel: chatModel,
		profile:   p,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Reply generates the bot answer for message given the prior turns.
func (s *Service) Reply(ctx context.Context, sessionID string, history []chat.Turn, message string) (string, error) {
	input := map[string]any{
		"system":  BuildSystemPrompt(s.profile),
		"history": buildHistoryMessages(history, s.cfg.HistoryLimit),
		"query":   message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	log.Debug().Str("session_id", sessionID).Int("length", len(response.Content)).Msg("generated reply")
	return response.Content, nil
}

// buildHistoryMessages converts the trailing turns into chat messages.
func buildHistoryMessages(turns []chat.Turn, limit int) []*schema.Message {
	if len(turns) == 0 {
		return nil
	}

	startIdx := 0
	if limit > 0 && len(turns) > limit {
		startIdx = len(turns) - limit
	}

	history := make([]*schema.Message, 0, len(turns)-startIdx)
	for _, turn := range turns[startIdx:] {
		switch turn.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(turn.Text))
		case chat.RoleBot:
			history = append(history, schema.AssistantMessage(turn.Text, nil))
		}
	}

	return history
}
