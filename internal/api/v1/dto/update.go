package dto

// UpdateDTO is one incoming webhook delivery from the chat platform.
type UpdateDTO struct {
	UpdateID int64  `json:"update_id" validate:"required"`
	UserID   int64  `json:"user_id" validate:"required"`
	Username string `json:"username"`
	Text     string `json:"text" validate:"required"`
}
