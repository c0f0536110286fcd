// Package dialog implements the guided multi-step task entry: a fixed
// order of states collecting one field each, with per-step validation
// and a global escape that discards the draft. Draft state lives in an
// explicit per-user session created on entry and disposed on commit or
// cancellation, never implicitly.
package dialog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ohavryliuk/fieldbot/internal/models"
	"github.com/ohavryliuk/fieldbot/internal/repository"
)

type State int

const (
	StateChoosingType State = iota
	StateChoosingDate
	StateChoosingTime
	StateInputCity
	StateInputPhone
	StateInputPrice
)

func (s State) String() string {
	switch s {
	case StateChoosingType:
		return "choosing_type"
	case StateChoosingDate:
		return "choosing_date"
	case StateChoosingTime:
		return "choosing_time"
	case StateInputCity:
		return "input_city"
	case StateInputPhone:
		return "input_phone"
	case StateInputPrice:
		return "input_price"
	}
	return "unknown"
}

// UnspecifiedToken maps to the unspecified-price sentinel at the price
// step.
const UnspecifiedToken = "не вказано"

// Step prompts and validation errors, one per state.
const (
	PromptType        = "Введіть тип завдання:"
	PromptDate        = "Введіть дату: 4 цифри (наприклад 2512), «завтра» або «післязавтра»:"
	PromptTime        = "Введіть час: 4 цифри (наприклад 1430) або 2 цифри (наприклад 14):"
	PromptCity        = "Введіть місто:"
	PromptPhone       = "Введіть телефон (наприклад +380991234567):"
	PromptPrice       = "Введіть ціну в грн (ціле число від 1 до 1000000) або «не вказано»:"
	ErrInvalidPhone   = "❌ Невірний формат телефону: потрібно 9–13 цифр, можна з «+» на початку. Спробуйте ще раз:"
	ErrInvalidPrice   = "❌ Невірна ціна: потрібне ціле число від 1 до 1000000 або «не вказано». Спробуйте ще раз:"
	committedTemplate = "✅ Завдання %d додано!"
)

var (
	reStrictPhone = regexp.MustCompile(`^\+?\d{9,13}$`)
	reFourDigits  = regexp.MustCompile(`\d{4}`)
	reTwoDigits   = regexp.MustCompile(`\d{2}`)
	reInteger     = regexp.MustCompile(`^\d+$`)
)

// Draft holds the fields collected so far. The cursor indicating the
// next required field is the session state.
type Draft struct {
	Type  string
	Date  time.Time // date portion, midnight
	When  time.Time // set at the time step
	City  string
	Phone string
	Price float64
}

type Session struct {
	ID        uuid.UUID
	UserID    int64
	State     State
	Draft     Draft
	StartedAt time.Time
}

// StepResult is what a dialogue step answers with.
type StepResult struct {
	// Prompt is the next message shown to the user: the next step's
	// question, a validation error for a rejected step, or the commit
	// confirmation.
	Prompt string
	// Rejected is set when the step re-prompted without advancing.
	Rejected bool
	// Task is the committed task, non-nil only on the final step.
	Task *models.Task
}

// Manager owns all active guided-entry sessions, keyed by user id.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session

	repo repository.TaskRepository
	now  func() time.Time
}

func NewManager(repo repository.TaskRepository) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		repo:     repo,
		now:      time.Now,
	}
}

// Active reports whether the user is inside a guided entry.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Start opens a fresh session for the user, replacing any abandoned
// one, and returns the first prompt.
func (m *Manager) Start(userID int64) StepResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		State:     StateChoosingType,
		StartedAt: m.now(),
	}
	m.sessions[userID] = s

	log.WithFields(log.Fields{"session": s.ID, "user": userID}).Info("guided entry started")
	return StepResult{Prompt: PromptType}
}

// Cancel discards the user's draft, if any. Nothing is ever partially
// committed.
func (m *Manager) Cancel(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return false
	}
	delete(m.sessions, userID)
	log.WithFields(log.Fields{"session": s.ID, "user": userID, "state": s.State.String()}).
		Info("guided entry cancelled")
	return true
}

// Input feeds one answer into the user's session. The caller routes
// the escape command before calling this; text here is always a step
// answer. Returns an error only on storage failure at the commit step,
// in which case the session is preserved for a retry.
func (m *Manager) Input(ctx context.Context, userID int64, text string) (StepResult, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return StepResult{}, fmt.Errorf("no active session for user %d", userID)
	}

	switch s.State {
	case StateChoosingType:
		// Any free text is accepted as the type label.
		s.Draft.Type = strings.TrimSpace(text)
		s.State = StateChoosingDate
		return StepResult{Prompt: PromptDate}, nil

	case StateChoosingDate:
		s.Draft.Date = m.parseDate(text)
		s.State = StateChoosingTime
		return StepResult{Prompt: PromptTime}, nil

	case StateChoosingTime:
		hour, minute := parseTime(text)
		d := s.Draft.Date
		s.Draft.When = time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, d.Location())
		s.State = StateInputCity
		return StepResult{Prompt: PromptCity}, nil

	case StateInputCity:
		s.Draft.City = strings.TrimSpace(text)
		s.State = StateInputPhone
		return StepResult{Prompt: PromptPhone}, nil

	case StateInputPhone:
		phone := strings.TrimSpace(text)
		if !reStrictPhone.MatchString(phone) {
			return StepResult{Prompt: ErrInvalidPhone, Rejected: true}, nil
		}
		s.Draft.Phone = phone
		s.State = StateInputPrice
		return StepResult{Prompt: PromptPrice}, nil

	case StateInputPrice:
		price, ok := parsePrice(text)
		if !ok {
			return StepResult{Prompt: ErrInvalidPrice, Rejected: true}, nil
		}
		s.Draft.Price = price
		return m.commit(ctx, s)
	}

	return StepResult{}, fmt.Errorf("session %s in unknown state %d", s.ID, s.State)
}

// commit turns the draft into a persisted task and disposes of the
// session. On storage failure the session stays at the price step.
func (m *Manager) commit(ctx context.Context, s *Session) (StepResult, error) {
	task := &models.Task{
		UserID:      s.UserID,
		Type:        s.Draft.Type,
		ScheduledAt: s.Draft.When,
		City:        s.Draft.City,
		Phone:       s.Draft.Phone,
		Price:       s.Draft.Price,
		Name:        models.DefaultName,
		Status:      models.StatusUncompleted,
	}

	id, err := m.repo.Save(ctx, task)
	if err != nil {
		return StepResult{}, fmt.Errorf("commit draft of session %s: %w", s.ID, err)
	}

	m.mu.Lock()
	delete(m.sessions, s.UserID)
	m.mu.Unlock()

	log.WithFields(log.Fields{"session": s.ID, "user": s.UserID, "task": id}).
		Info("guided entry committed")
	return StepResult{Prompt: fmt.Sprintf(committedTemplate, id), Task: task}, nil
}

// parseDate resolves the date-step answer: a relative keyword or the
// first 4-digit day+month token anywhere in the text. The year is
// always the current calendar year; unresolvable input falls back to
// today.
func (m *Manager) parseDate(text string) time.Time {
	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	lower := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(lower, "післязавтра") {
		return today.AddDate(0, 0, 2)
	}
	if strings.Contains(lower, "завтра") {
		return today.AddDate(0, 0, 1)
	}

	if tok := reFourDigits.FindString(text); tok != "" {
		day, _ := strconv.Atoi(tok[:2])
		month, _ := strconv.Atoi(tok[2:])
		if validDay(now.Year(), month, day) {
			return time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, now.Location())
		}
	}
	return today
}

// parseTime resolves the time-step answer: a 4-digit hour+minute token
// or a 2-digit hour-only token. Unresolvable input defaults to 09:00.
func parseTime(text string) (int, int) {
	if tok := reFourDigits.FindString(text); tok != "" {
		hour, _ := strconv.Atoi(tok[:2])
		minute, _ := strconv.Atoi(tok[2:])
		if hour <= 23 && minute <= 59 {
			return hour, minute
		}
	}
	if tok := reTwoDigits.FindString(text); tok != "" {
		if hour, _ := strconv.Atoi(tok); hour <= 23 {
			return hour, 0
		}
	}
	return models.DefaultHour, models.DefaultMinute
}

// parsePrice accepts the unspecified token or an integer in
// [MinPrice, MaxPrice].
func parsePrice(text string) (float64, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == UnspecifiedToken {
		return models.PriceUnspecified, true
	}
	if !reInteger.MatchString(t) {
		return 0, false
	}
	v, err := strconv.Atoi(t)
	if err != nil || v < models.MinPrice || v > models.MaxPrice {
		return 0, false
	}
	return float64(v), true
}

func validDay(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return int(d.Month()) == month && d.Day() == day
}
