package models

import "time"

// TaskStatus represents the state of an agent-submitted application task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskProcessing TaskStatus = "processing"
	TaskSubmitted  TaskStatus = "submitted"
	TaskFailed     TaskStatus = "failed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Terminal reports whether the task will not change state again.
func (s TaskStatus) Terminal() bool {
	return s == TaskSubmitted || s == TaskFailed || s == TaskCancelled
}

// AgentTask tracks an application submission handled by the server-side
// agent. Read-only from the client; it is polled, never mutated here.
type AgentTask struct {
	ID            int64      `json:"id"`
	ApplicationID int64      `json:"application_id"`
	Status        TaskStatus `json:"status"`
	LastError     *string    `json:"last_error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
