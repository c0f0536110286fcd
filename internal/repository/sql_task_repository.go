// internal/repository/sql_task_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ohavryliuk/fieldbot/internal/models"
)

// SQLTaskRepository persists tasks in a single relational table.
// Datetimes are stored as RFC 3339 text so the layout is identical
// across the sqlite and postgres backends.
type SQLTaskRepository struct {
	db *sqlx.DB
}

func NewSQLTaskRepository(db *sqlx.DB) *SQLTaskRepository {
	return &SQLTaskRepository{db: db}
}

// taskRow mirrors the table layout with text datetimes.
type taskRow struct {
	ID          int64          `db:"id"`
	UserID      int64          `db:"user_id"`
	Type        string         `db:"type"`
	ScheduledAt string         `db:"scheduled_at"`
	City        string         `db:"city"`
	Phone       string         `db:"phone"`
	Price       float64        `db:"price"`
	Name        string         `db:"name"`
	Status      string         `db:"status"`
	CompletedAt sql.NullString `db:"completed_at"`
}

func (r *taskRow) toTask() (models.Task, error) {
	scheduled, err := time.Parse(time.RFC3339, r.ScheduledAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("parse scheduled_at of task %d: %w", r.ID, err)
	}

	t := models.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        r.Type,
		ScheduledAt: scheduled,
		City:        r.City,
		Phone:       r.Phone,
		Price:       r.Price,
		Name:        r.Name,
		Status:      r.Status,
	}

	if r.CompletedAt.Valid {
		completed, err := time.Parse(time.RFC3339, r.CompletedAt.String)
		if err != nil {
			return models.Task{}, fmt.Errorf("parse completed_at of task %d: %w", r.ID, err)
		}
		t.CompletedAt = &completed
	}

	return t, nil
}

func (r *SQLTaskRepository) Save(ctx context.Context, t *models.Task) (int64, error) {
	const insert = `
		INSERT INTO tasks (user_id, type, scheduled_at, city, phone, price, name, status, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`

	scheduled := t.ScheduledAt.Format(time.RFC3339)

	if r.db.DriverName() == "postgres" {
		var id int64
		query := r.db.Rebind(insert + " RETURNING id")
		err := r.db.QueryRowxContext(ctx, query,
			t.UserID, t.Type, scheduled, t.City, t.Phone, t.Price, t.Name, models.StatusUncompleted,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert task: %w", err)
		}
		t.ID = id
		t.Status = models.StatusUncompleted
		return id, nil
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(insert),
		t.UserID, t.Type, scheduled, t.City, t.Phone, t.Price, t.Name, models.StatusUncompleted,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	t.Status = models.StatusUncompleted
	return id, nil
}

func (r *SQLTaskRepository) List(ctx context.Context, userID int64, status string) ([]models.Task, error) {
	query := `SELECT * FROM tasks WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *SQLTaskRepository) SetCompleted(ctx context.Context, id int64, completedAt time.Time) error {
	// The status guard keeps the operation idempotent: a second
	// completion must not move the completion timestamp. Stored in UTC
	// so the text column compares correctly in range queries.
	const update = `
		UPDATE tasks SET status = ?, completed_at = ?
		WHERE id = ? AND status = ?`

	_, err := r.db.ExecContext(ctx, r.db.Rebind(update),
		models.StatusCompleted, completedAt.UTC().Format(time.RFC3339), id, models.StatusUncompleted,
	)
	if err != nil {
		return fmt.Errorf("complete task %d: %w", id, err)
	}
	return nil
}

func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func (r *SQLTaskRepository) ListUsers(ctx context.Context) ([]int64, error) {
	var users []int64
	if err := r.db.SelectContext(ctx, &users, `SELECT DISTINCT user_id FROM tasks`); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

func (r *SQLTaskRepository) CompletedTotalSince(ctx context.Context, userID int64, since time.Time) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(price), 0) FROM tasks
		WHERE user_id = ? AND status = ? AND completed_at >= ?`

	var total float64
	err := r.db.GetContext(ctx, &total, r.db.Rebind(query),
		userID, models.StatusCompleted, since.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("sum completed tasks: %w", err)
	}
	return total, nil
}
