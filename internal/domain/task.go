// Package domain contains core domain types for taskdeck.
package domain

import (
	"time"
)

// Task is the client-side copy of a backend task. The backend owns the
// record; the client only ever holds the result of the most recent fetch.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasDescription returns true if the task carries a non-empty description.
func (t *Task) HasDescription() bool {
	return t.Description != nil && *t.Description != ""
}
