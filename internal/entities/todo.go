package entities

import "time"

// Todo represents a task owned by exactly one user
type Todo struct {
	ID          string    `json:"id"`     // UUID
	UserID      string    `json:"userId"` // Owner, never changes after creation
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
