package service

import (
	"context"
	"fmt"

	"app/internal/model"
	"app/internal/notifier"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// ChatService answers plain text messages. A reply consumes one unit of the
// text quota; the quota is charged only after the model produced an answer.
type ChatService interface {
	Reply(ctx context.Context, userID int64, text string)
	// ReplyUsage tells the user where their quota stands. Free of charge.
	ReplyUsage(ctx context.Context, userID int64, snap model.UsageSnapshot)
}

type chatService struct {
	client   *openai.Client
	model    string
	quota    QuotaService
	notifier notifier.Notifier
	logger   zerolog.Logger
}

// NewChatService creates a ChatService backed by the OpenAI chat completion API.
func NewChatService(apiKey string, quota QuotaService, n notifier.Notifier, logger zerolog.Logger) ChatService {
	return &chatService{
		client:   openai.NewClient(apiKey),
		model:    openai.GPT4o,
		quota:    quota,
		notifier: n,
		logger:   logger.With().Str("service", "ChatService").Logger(),
	}
}

const chatSystemPrompt = "You are a friendly assistant inside a messaging app. " +
	"Answer concisely. Users can also ask you to generate images and videos."

func (s *chatService) Reply(ctx context.Context, userID int64, text string) {
	log := s.logger.With().Int64("user_id", userID).Logger()

	if !s.quota.CanConsume(ctx, userID, model.ResourceText, 1) {
		s.sendText(ctx, userID, s.exhaustedMessage(ctx, userID))
		return
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens: 500,
	})
	if err != nil {
		log.Error().Err(err).Msg("Chat completion failed")
		s.sendText(ctx, userID, "Sorry, I could not come up with a reply. Please try again.")
		return
	}
	if len(resp.Choices) == 0 {
		log.Error().Msg("Chat completion returned no choices")
		s.sendText(ctx, userID, "Sorry, I could not come up with a reply. Please try again.")
		return
	}

	if _, err := s.quota.Consume(ctx, userID, model.ResourceText, 1); err != nil {
		log.Error().Err(err).Msg("Reply delivered but usage not recorded")
	}
	s.sendText(ctx, userID, resp.Choices[0].Message.Content)
}

func (s *chatService) ReplyUsage(ctx context.Context, userID int64, snap model.UsageSnapshot) {
	s.sendText(ctx, userID, fmt.Sprintf(
		"Current period: %s to %s. Remaining: %d text, %d image, %d video.",
		snap.PeriodStart.Format("2006-01-02"),
		snap.PeriodEnd.Format("2006-01-02"),
		snap.TextRemaining,
		snap.ImageRemaining,
		snap.VideoRemaining,
	))
}

func (s *chatService) exhaustedMessage(ctx context.Context, userID int64) string {
	snap, err := s.quota.Snapshot(ctx, userID)
	if err != nil {
		return "You have no text replies left in your current period."
	}
	return fmt.Sprintf(
		"You have no text replies left in your current period (until %s). Remaining: %d text, %d image, %d video.",
		snap.PeriodEnd.Format("2006-01-02"),
		snap.TextRemaining,
		snap.ImageRemaining,
		snap.VideoRemaining,
	)
}

func (s *chatService) sendText(ctx context.Context, userID int64, text string) {
	if err := s.notifier.SendText(ctx, userID, text); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to send reply")
	}
}
