// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for remote task operations.
// Every method either returns its result or an *Error whose Op names the
// operation that failed.
type Service interface {
	// ListTasks returns at most ListLimit tasks sorted ascending by id.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask sends a create request and returns whatever the remote
	// responds with. The result is not guaranteed to be stored.
	CreateTask(ctx context.Context, in NewTask) (Task, error)

	// UpdateTask sends a partial update for the task with the given id.
	UpdateTask(ctx context.Context, id int, patch TaskPatch) (Task, error)

	// DeleteTask deletes the task with the given id.
	DeleteTask(ctx context.Context, id int) error
}

// ListLimit is the maximum number of tasks ListTasks returns.
const ListLimit = 20
