package domain

import "time"

// User is the backend's account record as returned by GET /api/auth/me.
// The web tier only ever holds a cached copy of it.
type User struct {
	ID                 ID         `json:"id" validate:"required"`
	ClerkID            string     `json:"clerk_id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	IsPremium          bool       `json:"is_premium"`
	CurrentStreak      int        `json:"current_streak" validate:"gte=0"`
	FreeInterviewsUsed int        `json:"free_interviews_used" validate:"gte=0"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
}

// FreeInterviewAllowance is the number of mock interviews a free account gets.
const FreeInterviewAllowance = 1

// FreeInterviewsRemaining never goes below zero.
func (u User) FreeInterviewsRemaining() int {
	left := FreeInterviewAllowance - u.FreeInterviewsUsed
	if left < 0 {
		return 0
	}
	return left
}
