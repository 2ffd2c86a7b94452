package model

import "time"

// User represents a user in the system
type User struct {
	UserID             int64      `db:"user_id" json:"user_id"`
	Username           string     `db:"username" json:"username"`
	IsPremium          bool       `db:"is_premium" json:"is_premium"`
	SignupDate         time.Time  `db:"signup_date" json:"signup_date"`
	PremiumActivatedAt *time.Time `db:"premium_activated_at" json:"premium_activated_at,omitempty"`
	IsAdmin            bool       `db:"is_admin" json:"is_admin"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// PeriodAnchor returns the date billing periods are computed relative to:
// premium_activated_at for premium users, signup_date otherwise. A premium
// user with no recorded activation falls back to the signup date.
func (u *User) PeriodAnchor() time.Time {
	if u.IsPremium && u.PremiumActivatedAt != nil {
		return *u.PremiumActivatedAt
	}
	return u.SignupDate
}
