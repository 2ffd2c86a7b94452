package model

import "time"

// Resource is a metered generation resource kind.
type Resource string

const (
	ResourceText  Resource = "text"
	ResourceImage Resource = "image"
	ResourceVideo Resource = "video"
)

// UsageRecord holds the per-period counters for a single user. One row exists
// per (user_id, period_start); rows are created lazily and never deleted.
type UsageRecord struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	PeriodStart time.Time `db:"period_start" json:"period_start"`
	TextUsed    int       `db:"text_used" json:"text_used"`
	ImageUsed   int       `db:"image_used" json:"image_used"`
	VideoUsed   int       `db:"video_used" json:"video_used"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Used returns the counter for the given resource.
func (r *UsageRecord) Used(res Resource) int {
	switch res {
	case ResourceText:
		return r.TextUsed
	case ResourceImage:
		return r.ImageUsed
	case ResourceVideo:
		return r.VideoUsed
	}
	return 0
}

// ResourceLimits holds the per-period allowance for each resource.
type ResourceLimits struct {
	Text  int `json:"text"`
	Image int `json:"image"`
	Video int `json:"video"`
}

// For returns the limit for the given resource.
func (l ResourceLimits) For(res Resource) int {
	switch res {
	case ResourceText:
		return l.Text
	case ResourceImage:
		return l.Image
	case ResourceVideo:
		return l.Video
	}
	return 0
}

// PlanLimits pairs the free and premium allowances. Limits are configuration,
// not data; they are injected at startup.
type PlanLimits struct {
	Free    ResourceLimits `json:"free"`
	Premium ResourceLimits `json:"premium"`
}

// For returns the limits for the given premium status.
func (p PlanLimits) For(premium bool) ResourceLimits {
	if premium {
		return p.Premium
	}
	return p.Free
}

// UsageSnapshot reports the remaining allowance for all three resources
// within the user's current billing period.
type UsageSnapshot struct {
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	TextRemaining  int       `json:"text_remaining"`
	ImageRemaining int       `json:"image_remaining"`
	VideoRemaining int       `json:"video_remaining"`
}

// Remaining returns the snapshot's remaining count for the given resource.
func (s UsageSnapshot) Remaining(res Resource) int {
	switch res {
	case ResourceText:
		return s.TextRemaining
	case ResourceImage:
		return s.ImageRemaining
	case ResourceVideo:
		return s.VideoRemaining
	}
	return 0
}
