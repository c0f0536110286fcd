// internal/repository/memory_task_repository.go
package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ohavryliuk/fieldbot/internal/models"
)

// MemoryTaskRepository keeps tasks in process memory. It backs the
// storage-less bot variant and substitutes for the SQL repository in
// tests.
type MemoryTaskRepository struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]models.Task // keyed by task id, insertion order kept via ids
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{
		nextID: 1,
		tasks:  make(map[int64]models.Task),
	}
}

func (r *MemoryTaskRepository) Save(_ context.Context, t *models.Task) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = r.nextID
	r.nextID++
	t.Status = models.StatusUncompleted
	t.CompletedAt = nil

	r.tasks[t.ID] = *t
	return t.ID, nil
}

func (r *MemoryTaskRepository) List(_ context.Context, userID int64, status string) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	// Identifier order is insertion order.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Task
	for _, id := range ids {
		t := r.tasks[id]
		if t.UserID != userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryTaskRepository) SetCompleted(_ context.Context, id int64, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.Status == models.StatusCompleted {
		return nil
	}
	t.Status = models.StatusCompleted
	completed := completedAt.UTC()
	t.CompletedAt = &completed
	r.tasks[id] = t
	return nil
}

func (r *MemoryTaskRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tasks, id)
	return nil
}

func (r *MemoryTaskRepository) ListUsers(_ context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int64]bool)
	var users []int64
	for _, t := range r.tasks {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			users = append(users, t.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (r *MemoryTaskRepository) CompletedTotalSince(_ context.Context, userID int64, since time.Time) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total float64
	for _, t := range r.tasks {
		if t.UserID != userID || t.CompletedAt == nil {
			continue
		}
		if !t.CompletedAt.Before(since) {
			total += t.Price
		}
	}
	return total, nil
}
