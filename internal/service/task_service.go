// internal/service/task_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ohavryliuk/fieldbot/internal/extract"
	"github.com/ohavryliuk/fieldbot/internal/models"
	"github.com/ohavryliuk/fieldbot/internal/repository"
)

// MonthlyTotalWindow is the lookback of the earnings summary.
const MonthlyTotalWindow = 30 * 24 * time.Hour

// TaskService implements the user-facing task operations on top of an
// injected repository.
type TaskService struct {
	repo repository.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo repository.TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
		now:  time.Now,
	}
}

// CaptureFreeText builds a task from a single free-text message and
// persists it. Optional fields the extractor could not find get the
// documented fallback values.
func (s *TaskService) CaptureFreeText(ctx context.Context, userID int64, text string) (*models.Task, error) {
	c := extract.Extract(text, s.now())

	task := &models.Task{
		UserID:      userID,
		Type:        c.Type,
		ScheduledAt: c.When,
		City:        models.DefaultCity,
		Phone:       models.DefaultPhone,
		Price:       models.PriceUnspecified,
		Name:        models.DefaultName,
		Status:      models.StatusUncompleted,
	}
	if c.City != "" {
		task.City = c.City
	}
	if c.Phone != "" {
		task.Phone = c.Phone
	}
	if c.Name != "" {
		task.Name = c.Name
	}
	if c.Price != nil {
		task.Price = *c.Price
	}

	id, err := s.repo.Save(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("save captured task: %w", err)
	}

	log.WithFields(log.Fields{"user": userID, "task": id, "type": task.Type}).
		Info("task captured from free text")
	return task, nil
}

// ActiveTasks returns the user's uncompleted tasks sorted by scheduled
// time ascending, the order every task list is displayed in.
func (s *TaskService) ActiveTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx, userID, models.StatusUncompleted)
	if err != nil {
		return nil, fmt.Errorf("list active tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].ScheduledAt.Before(tasks[j].ScheduledAt)
	})
	return tasks, nil
}

// CompletedTasks returns the user's completed tasks, most recently
// completed first.
func (s *TaskService) CompletedTasks(ctx context.Context, userID int64) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx, userID, models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		ti, tj := tasks[i].CompletedAt, tasks[j].CompletedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})
	return tasks, nil
}

// Complete marks a task done. Unknown or already-completed identifiers
// are silent no-ops.
func (s *TaskService) Complete(ctx context.Context, id int64) error {
	if err := s.repo.SetCompleted(ctx, id, s.now()); err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return nil
}

// Delete removes a task. Unknown identifiers are silent no-ops.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

// MonthlyTotal sums the prices of tasks the user completed within the
// last 30 days.
func (s *TaskService) MonthlyTotal(ctx context.Context, userID int64) (float64, error) {
	total, err := s.repo.CompletedTotalSince(ctx, userID, s.now().Add(-MonthlyTotalWindow))
	if err != nil {
		return 0, fmt.Errorf("monthly total: %w", err)
	}
	return total, nil
}
