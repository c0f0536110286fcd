// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/ohavryliuk/fieldbot/internal/models"
)

// TaskRepository is the storage abstraction both capture paths commit
// into. Implementations must keep each user's tasks isolated and treat
// complete/delete of unknown identifiers as no-ops.
type TaskRepository interface {
	// Save persists a new task, assigns the next identifier and
	// returns it. The passed task's ID field is updated in place.
	Save(ctx context.Context, t *models.Task) (int64, error)

	// List returns a user's tasks in persisted order. An empty status
	// returns all of them; sorting is the caller's responsibility.
	List(ctx context.Context, userID int64, status string) ([]models.Task, error)

	// SetCompleted marks a task completed and stamps the completion
	// time. Already-completed and unknown identifiers are no-ops.
	SetCompleted(ctx context.Context, id int64, completedAt time.Time) error

	// Delete removes a task. Unknown identifiers are no-ops.
	Delete(ctx context.Context, id int64) error

	// ListUsers returns the distinct owners of all stored tasks.
	// Used only by the reminder sweep.
	ListUsers(ctx context.Context) ([]int64, error)

	// CompletedTotalSince sums the prices of a user's tasks completed
	// at or after the given moment.
	CompletedTotalSince(ctx context.Context, userID int64, since time.Time) (float64, error)
}
