package domain

import "time"

// Thread is a conversation thread ("hilo"), owned by the backend.
type Thread struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Message roles within a thread.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message within a thread.
type Message struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}
