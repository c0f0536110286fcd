// internal/service/reminder.go
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ohavryliuk/fieldbot/internal/models"
	"github.com/ohavryliuk/fieldbot/internal/repository"
)

// Notifier delivers one reminder message to one user.
type Notifier interface {
	SendText(ctx context.Context, userID int64, text string) error
}

// ReminderSweeper performs the daily sweep: each user with uncompleted
// tasks scheduled for the current date gets exactly one notification
// listing them. A delivery failure for one user never blocks the rest.
type ReminderSweeper struct {
	repo     repository.TaskRepository
	notifier Notifier
	now      func() time.Time
}

func NewReminderSweeper(repo repository.TaskRepository, notifier Notifier) *ReminderSweeper {
	return &ReminderSweeper{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

// Run fires Sweep once per day at the configured time of day until the
// context is cancelled.
func (s *ReminderSweeper) Run(ctx context.Context, hour, minute int) {
	log.WithFields(log.Fields{"hour": hour, "minute": minute}).Info("reminder scheduler started")
	for {
		timer := time.NewTimer(time.Until(s.nextFire(hour, minute)))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("reminder scheduler stopped")
			return
		case <-timer.C:
			s.Sweep(ctx)
		}
	}
}

func (s *ReminderSweeper) nextFire(hour, minute int) time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Sweep scans every user once and notifies those with tasks due today.
func (s *ReminderSweeper) Sweep(ctx context.Context) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		log.WithError(err).Error("reminder sweep: list users")
		return
	}

	today := s.now()
	notified := 0
	for _, userID := range users {
		if err := s.remindUser(ctx, userID, today); err != nil {
			log.WithError(err).WithField("user", userID).Error("reminder sweep: notify user")
			continue
		}
		notified++
	}
	log.WithFields(log.Fields{"users": len(users), "notified": notified}).Info("reminder sweep done")
}

func (s *ReminderSweeper) remindUser(ctx context.Context, userID int64, today time.Time) error {
	tasks, err := s.repo.List(ctx, userID, models.StatusUncompleted)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	due := tasks[:0]
	for _, t := range tasks {
		if sameDate(t.ScheduledAt, today) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})

	var b strings.Builder
	b.WriteString("⏰ Нагадування! Завдання на сьогодні:\n")
	for _, t := range due {
		fmt.Fprintf(&b, "• [ID:%d] %s — %s, тел: %s, ціна: %s\n",
			t.ID, t.Type, t.ScheduledAt.Format("15:04"), t.Phone, t.PriceLabel())
	}

	if err := s.notifier.SendText(ctx, userID, b.String()); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
