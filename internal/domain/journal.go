package domain

import "time"

// Decision is a recorded decision awaiting an outcome.
type Decision struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	HiloID    string    `json:"hilo_id,omitempty"`
	Content   string    `json:"content"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome is a recorded result, optionally resolving a decision.
type Outcome struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	DecisionID string    `json:"decision_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// Milestone is a recorded milestone.
type Milestone struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// WeeklyReview is a backend-generated weekly summary.
type WeeklyReview struct {
	ID        string `json:"id"`
	Content   string `json:"review_content"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
}
