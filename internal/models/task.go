// internal/models/task.go
package models

import (
	"fmt"
	"time"
)

// Task status constants
const (
	StatusUncompleted = "uncompleted"
	StatusCompleted   = "completed"
)

// Task type constants. Free text that matches none of the known
// vocabularies is filed under TypeOther.
const (
	TypeRemoval       = "Винос"
	TypeSurvey        = "Топозйомка"
	TypePrivatization = "Приватизація"
	TypeOther         = "Інше"
)

// Fallback values substituted when a capture path leaves an optional
// field empty. Tests assert against these exact values.
const (
	DefaultCity      = "Не вказано"
	DefaultPhone     = "Без телефону"
	DefaultName      = "Без імені"
	PriceUnspecified = float64(0)
)

// Guided entry falls back to 09:00 when the time step cannot be parsed.
const (
	DefaultHour   = 9
	DefaultMinute = 0
)

// Price bounds accepted by the guided price step, inclusive.
const (
	MinPrice = 1
	MaxPrice = 1_000_000
)

// Task is a scheduled unit of field work owned by one user. The
// identifier and scheduled time are immutable once assigned; the only
// mutation a task ever sees is the transition to StatusCompleted.
type Task struct {
	ID          int64      `db:"id"`
	UserID      int64      `db:"user_id"`
	Type        string     `db:"type"`
	ScheduledAt time.Time  `db:"scheduled_at"`
	City        string     `db:"city"`
	Phone       string     `db:"phone"`
	Price       float64    `db:"price"`
	Name        string     `db:"name"`
	Status      string     `db:"status"`
	CompletedAt *time.Time `db:"completed_at"`
}

// Completed reports whether the task has been marked done.
func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

// PriceLabel renders the price for user-facing messages.
func (t *Task) PriceLabel() string {
	if t.Price == PriceUnspecified {
		return "не вказано"
	}
	return fmt.Sprintf("%.0f грн", t.Price)
}
