package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/billing"
	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrUserNotFound is returned when quota is requested for an unknown user.
	ErrUserNotFound = errors.New("user not found")
)

// QuotaService enforces per-period usage limits. Period boundaries are a
// pure function of (now, anchor, premium status); only the counters live in
// the row store, one row per period actually used. Absence of a row means
// zero usage, never an error.
type QuotaService interface {
	// Remaining returns how much of the resource the user may still
	// consume in the current period.
	Remaining(ctx context.Context, userID int64, resource model.Resource) (int, error)
	// Snapshot returns the remaining allowance for all three resources,
	// for informative quota replies.
	Snapshot(ctx context.Context, userID int64) (model.UsageSnapshot, error)
	// CanConsume reports whether amount units fit in the remaining
	// allowance. Any resolution error reads as false (fail closed).
	CanConsume(ctx context.Context, userID int64, resource model.Resource, amount int) bool
	// Consume adds amount to the period counter and returns the new
	// remaining allowance. The increment is a single atomic
	// read-modify-write in the store; the check-then-consume pair as a
	// whole is deliberately not one reservation.
	Consume(ctx context.Context, userID int64, resource model.Resource, amount int) (int, error)
	// ResetCurrentPeriod zeroes all counters on the user's current
	// period. Administrative override; period boundaries are unaffected.
	ResetCurrentPeriod(ctx context.Context, userID int64) error
}

type quotaService struct {
	users  repository.UserRepository
	usage  repository.UsageRepository
	limits model.PlanLimits
	now    func() time.Time
	logger zerolog.Logger
}

// NewQuotaService creates a QuotaService with the injected plan limits.
func NewQuotaService(users repository.UserRepository, usage repository.UsageRepository, limits model.PlanLimits, logger zerolog.Logger) QuotaService {
	return &quotaService{
		users:  users,
		usage:  usage,
		limits: limits,
		now:    time.Now,
		logger: logger.With().Str("service", "QuotaService").Logger(),
	}
}

// resolve loads the user and the usage row for their current period.
func (s *quotaService) resolve(ctx context.Context, userID int64) (*model.User, billing.Period, *model.UsageRecord, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, billing.Period{}, nil, fmt.Errorf("resolving user %d: %w", userID, err)
	}
	if user == nil {
		return nil, billing.Period{}, nil, ErrUserNotFound
	}

	period := billing.CurrentPeriod(s.now(), user.PeriodAnchor(), user.IsPremium)
	rec, err := s.usage.GetOrCreate(ctx, userID, period.Start)
	if err != nil {
		return nil, billing.Period{}, nil, err
	}
	return user, period, rec, nil
}

func (s *quotaService) Remaining(ctx context.Context, userID int64, resource model.Resource) (int, error) {
	user, _, rec, err := s.resolve(ctx, userID)
	if err != nil {
		return 0, err
	}
	limit := s.limits.For(user.IsPremium).For(resource)
	return clampRemaining(limit, rec.Used(resource)), nil
}

func (s *quotaService) Snapshot(ctx context.Context, userID int64) (model.UsageSnapshot, error) {
	user, period, rec, err := s.resolve(ctx, userID)
	if err != nil {
		return model.UsageSnapshot{}, err
	}
	limits := s.limits.For(user.IsPremium)
	return model.UsageSnapshot{
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		TextRemaining:  clampRemaining(limits.Text, rec.TextUsed),
		ImageRemaining: clampRemaining(limits.Image, rec.ImageUsed),
		VideoRemaining: clampRemaining(limits.Video, rec.VideoUsed),
	}, nil
}

func (s *quotaService) CanConsume(ctx context.Context, userID int64, resource model.Resource, amount int) bool {
	remaining, err := s.Remaining(ctx, userID, resource)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("resource", string(resource)).Msg("Quota check failed, denying")
		return false
	}
	return remaining >= amount
}

func (s *quotaService) Consume(ctx context.Context, userID int64, resource model.Resource, amount int) (int, error) {
	user, period, _, err := s.resolve(ctx, userID)
	if err != nil {
		return 0, err
	}

	rec, err := s.usage.Increment(ctx, userID, period.Start, resource, amount)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("resource", string(resource)).Msg("Failed to record usage")
		return 0, err
	}

	limit := s.limits.For(user.IsPremium).For(resource)
	return clampRemaining(limit, rec.Used(resource)), nil
}

func (s *quotaService) ResetCurrentPeriod(ctx context.Context, userID int64) error {
	_, period, _, err := s.resolve(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.usage.Reset(ctx, userID, period.Start); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to reset usage")
		return err
	}
	return nil
}

func clampRemaining(limit, used int) int {
	remaining := limit - used
	if remaining < 0 {
		return 0
	}
	return remaining
}
