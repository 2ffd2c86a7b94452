package repository

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository is the row store behind quota accounting: one row per
// (user_id, period_start), created lazily with zeroed counters and never
// deleted. The unique constraint on the pair makes lazy creation race-safe.
type UsageRepository interface {
	// GetOrCreate fetches the usage row for the period, inserting a
	// zeroed one if none exists yet.
	GetOrCreate(ctx context.Context, userID int64, periodStart time.Time) (*model.UsageRecord, error)
	// Increment atomically adds amount to the resource counter for the
	// period and returns the updated row. The row is created on the fly
	// if the period was never touched before.
	Increment(ctx context.Context, userID int64, periodStart time.Time, resource model.Resource, amount int) (*model.UsageRecord, error)
	// Reset zeroes all three counters on the period's row.
	Reset(ctx context.Context, userID int64, periodStart time.Time) error
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

const usageColumns = "user_id, period_start, text_used, image_used, video_used, created_at, updated_at"

// counterColumn maps a resource to its counter column. Resources are a
// closed set; anything else is a programming error surfaced to the caller.
func counterColumn(resource model.Resource) (string, error) {
	switch resource {
	case model.ResourceText:
		return "text_used", nil
	case model.ResourceImage:
		return "image_used", nil
	case model.ResourceVideo:
		return "video_used", nil
	}
	return "", fmt.Errorf("unknown resource %q", resource)
}

func (r *usageRepo) GetOrCreate(ctx context.Context, userID int64, periodStart time.Time) (*model.UsageRecord, error) {
	const insertQ = `
        INSERT INTO usage_records (user_id, period_start)
        VALUES ($1, $2)
        ON CONFLICT (user_id, period_start) DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, insertQ, userID, periodStart); err != nil {
		return nil, fmt.Errorf("creating usage row for user %d: %w", userID, err)
	}

	selectQ := fmt.Sprintf(`SELECT %s FROM usage_records WHERE user_id = $1 AND period_start = $2`, usageColumns)
	var rec model.UsageRecord
	err := r.pool.QueryRow(ctx, selectQ, userID, periodStart).Scan(
		&rec.UserID,
		&rec.PeriodStart,
		&rec.TextUsed,
		&rec.ImageUsed,
		&rec.VideoUsed,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching usage row for user %d: %w", userID, err)
	}
	return &rec, nil
}

func (r *usageRepo) Increment(ctx context.Context, userID int64, periodStart time.Time, resource model.Resource, amount int) (*model.UsageRecord, error) {
	col, err := counterColumn(resource)
	if err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, fmt.Errorf("negative usage increment %d", amount)
	}

	// Single read-modify-write so concurrent consumers cannot lose an
	// increment, with on-the-fly row creation for untouched periods.
	q := fmt.Sprintf(`
        INSERT INTO usage_records (user_id, period_start, %[1]s)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, period_start)
        DO UPDATE SET %[1]s = usage_records.%[1]s + EXCLUDED.%[1]s, updated_at = NOW()
        RETURNING %[2]s
    `, col, usageColumns)

	var rec model.UsageRecord
	err = r.pool.QueryRow(ctx, q, userID, periodStart, amount).Scan(
		&rec.UserID,
		&rec.PeriodStart,
		&rec.TextUsed,
		&rec.ImageUsed,
		&rec.VideoUsed,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("incrementing %s usage for user %d: %w", resource, userID, err)
	}
	return &rec, nil
}

func (r *usageRepo) Reset(ctx context.Context, userID int64, periodStart time.Time) error {
	const q = `
        UPDATE usage_records
        SET text_used = 0, image_used = 0, video_used = 0, updated_at = NOW()
        WHERE user_id = $1 AND period_start = $2
    `
	if _, err := r.pool.Exec(ctx, q, userID, periodStart); err != nil {
		return fmt.Errorf("resetting usage for user %d: %w", userID, err)
	}
	return nil
}
