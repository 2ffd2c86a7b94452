package service

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/notifier"
	"app/internal/provider"
	"app/internal/pubsub"
	"app/internal/task"

	"github.com/rs/zerolog"
)

// PollSettings is the per-category polling budget. The total wait is
// Interval * MaxAttempts, nothing more.
type PollSettings struct {
	Interval    time.Duration
	MaxAttempts int
}

// GenerationService drives one media generation request end to end:
// admission, quota check, remote submission, polling, usage accounting and
// delivery. One call handles one request; calls for different users run
// concurrently and share only the gate and the quota service.
type GenerationService interface {
	Generate(ctx context.Context, userID int64, category task.Category, prompt string)
}

type generationService struct {
	gate      *task.Gate
	quota     QuotaService
	poller    *task.Poller
	notifier  notifier.Notifier
	media     MediaStore
	events    pubsub.Publisher
	topic     string
	providers map[task.Category]provider.GenerationAPI
	settings  map[task.Category]PollSettings
	logger    zerolog.Logger
}

// NewGenerationService wires the generation pipeline. media and events may
// be nil; rehosting and event publishing are then skipped.
func NewGenerationService(
	gate *task.Gate,
	quota QuotaService,
	poller *task.Poller,
	n notifier.Notifier,
	media MediaStore,
	events pubsub.Publisher,
	topic string,
	providers map[task.Category]provider.GenerationAPI,
	settings map[task.Category]PollSettings,
	logger zerolog.Logger,
) GenerationService {
	return &generationService{
		gate:      gate,
		quota:     quota,
		poller:    poller,
		notifier:  n,
		media:     media,
		events:    events,
		topic:     topic,
		providers: providers,
		settings:  settings,
		logger:    logger.With().Str("service", "GenerationService").Logger(),
	}
}

func resourceFor(category task.Category) model.Resource {
	if category == task.CategoryVideo {
		return model.ResourceVideo
	}
	return model.ResourceImage
}

// Generate blocks until the request reaches a terminal outcome and the user
// has been told about it. Callers run it in its own goroutine per request.
func (s *generationService) Generate(ctx context.Context, userID int64, category task.Category, prompt string) {
	log := s.logger.With().Int64("user_id", userID).Str("category", string(category)).Logger()

	if !s.gate.TryAcquire(userID, category) {
		s.sendText(ctx, userID, fmt.Sprintf("You already have a %s generation in progress. Please wait for it to finish.", category))
		return
	}
	// Released on every exit path; a leaked slot blocks the user until
	// restart.
	defer s.gate.Release(userID, category)

	resource := resourceFor(category)
	if !s.quota.CanConsume(ctx, userID, resource, 1) {
		s.sendText(ctx, userID, s.quotaExhaustedMessage(ctx, userID, resource))
		return
	}

	api, ok := s.providers[category]
	if !ok {
		log.Error().Msg("No provider configured for category")
		s.sendText(ctx, userID, "This generation type is not available right now.")
		return
	}
	settings := s.settings[category]

	job := task.Job{
		UserID:      userID,
		Category:    category,
		Interval:    settings.Interval,
		MaxAttempts: settings.MaxAttempts,
		Submit: func(ctx context.Context) (string, error) {
			return api.Submit(ctx, provider.Request{Prompt: prompt, UserID: userID})
		},
		Check: api.CheckStatus,
		OnStatus: func(progress string) {
			s.sendText(ctx, userID, fmt.Sprintf("Still working on your %s: %s", category, progress))
		},
	}

	result := s.poller.Run(ctx, job)
	s.publishEvent(userID, category, result)

	switch result.State {
	case task.StateSucceeded:
		if _, err := s.quota.Consume(ctx, userID, resource, 1); err != nil {
			log.Error().Err(err).Msg("Result delivered but usage not recorded")
		}
		s.deliverResult(ctx, userID, category, result)
	case task.StateTimedOut:
		s.sendText(ctx, userID, fmt.Sprintf("Your %s generation is taking longer than expected and was abandoned. You have not been charged, please try again.", category))
	default:
		reason := result.Reason
		if reason == "" {
			reason = "the provider reported an error"
		}
		s.sendText(ctx, userID, fmt.Sprintf("Your %s generation failed: %s. You have not been charged.", category, reason))
	}
}

// deliverResult hands the output to the user, rehosting it on our own
// storage first when a media store is configured. Delivery happens once;
// a failed delivery is logged, never retried.
func (s *generationService) deliverResult(ctx context.Context, userID int64, category task.Category, result task.Result) {
	output := result.Output
	if s.media != nil {
		rehosted, err := s.media.Rehost(ctx, string(category), result.RemoteTaskID, result.Output)
		if err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("Rehosting failed, delivering provider URL")
		} else {
			output = rehosted
		}
	}

	err := s.notifier.SendResult(ctx, userID, notifier.Result{
		Category: string(category),
		URL:      output,
		Caption:  fmt.Sprintf("Here is your %s!", category),
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to deliver terminal result")
	}
}

// quotaExhaustedMessage declines with the remaining counts for all three
// resources so the user knows exactly where they stand.
func (s *generationService) quotaExhaustedMessage(ctx context.Context, userID int64, resource model.Resource) string {
	snap, err := s.quota.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Sprintf("You have no %s generations left in your current period.", resource)
	}
	return fmt.Sprintf(
		"You have no %s generations left in your current period (until %s). Remaining: %d text, %d image, %d video.",
		resource,
		snap.PeriodEnd.Format("2006-01-02"),
		snap.TextRemaining,
		snap.ImageRemaining,
		snap.VideoRemaining,
	)
}

func (s *generationService) publishEvent(userID int64, category task.Category, result task.Result) {
	if s.events == nil {
		return
	}
	payload, err := pubsub.TaskEvent{
		UserID:       userID,
		Category:     string(category),
		RemoteTaskID: result.RemoteTaskID,
		State:        string(result.State),
		Attempts:     result.Attempts,
		OccurredAt:   time.Now().UTC(),
	}.Encode()
	if err != nil {
		return
	}
	// Detached context: the event outlives the request either way.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.events.Publish(ctx, s.topic, payload); err != nil {
		s.logger.Warn().Err(err).Str("topic", s.topic).Msg("Failed to publish task event")
	}
}

func (s *generationService) sendText(ctx context.Context, userID int64, text string) {
	if err := s.notifier.SendText(ctx, userID, text); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to send message")
	}
}
