// Package phrasing is the optional LLM polish layer. The stage machine
// always produces a complete deterministic reply; this service only rewords
// it, and any failure or timeout falls back to the draft untouched.
package phrasing

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/finpilot/loanflow/backend/internal/config"
	"github.com/finpilot/loanflow/backend/internal/model/conversation"
)

const systemPrompt = "You are the assistant of a loan application service. " +
	"Rewrite the draft reply to sound warm and conversational. Keep every " +
	"number, bound, field name and instruction exactly as given, ask for " +
	"nothing beyond what the draft asks for, and answer in at most three sentences."

// historyLimit bounds how much transcript is sent along for tone.
const historyLimit = 6

// Service wraps the chat-model chain used to reword replies.
type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewService compiles the phrasing chain from the configured chat model.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile phrasing chain: %w", err)
	}
	return &Service{chain: runnable}, nil
}

// Polish rewords the draft reply given recent conversation context. Callers
// own the timeout and must fall back to the draft on error.
func (s *Service) Polish(ctx context.Context, history []conversation.Message, draft string) (string, error) {
	input := map[string]any{
		"system":  systemPrompt,
		"history": historyMessages(history),
		"query":   "Draft reply to reword: " + draft,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("run phrasing chain: %w", err)
	}
	if response.Content == "" {
		return "", fmt.Errorf("phrasing chain returned empty content")
	}
	return response.Content, nil
}

func historyMessages(history []conversation.Message) []*schema.Message {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	messages := make([]*schema.Message, 0, len(history))
	for _, msg := range history {
		if msg.Sender == conversation.SenderUser {
			messages = append(messages, schema.UserMessage(msg.Content))
		} else {
			messages = append(messages, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return messages
}
