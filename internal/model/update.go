package model

// Update is one inbound event from the chat transport. The transport
// guarantees a unique, monotonically assigned integer id per update and
// at-least-once delivery; duplicates must be dropped by the receiver.
type Update struct {
	UpdateID int64  `json:"update_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}
