package dto

import "time"

// UsageResponseDTO is returned by the admin usage endpoint.
type UsageResponseDTO struct {
	UserID         int64     `json:"user_id"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	TextRemaining  int       `json:"text_remaining"`
	ImageRemaining int       `json:"image_remaining"`
	VideoRemaining int       `json:"video_remaining"`
}

// UsageResetResponseDTO confirms an administrative quota reset.
type UsageResetResponseDTO struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}
