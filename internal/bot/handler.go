// internal/bot/handler.go
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ohavryliuk/fieldbot/internal/dialog"
	"github.com/ohavryliuk/fieldbot/internal/service"
)

// Main-menu button labels. MenuEscape is the global escape: it works
// from every dialogue state and discards the draft.
const (
	MenuAdd          = "Додати завдання"
	MenuActive       = "Перегляд завдань"
	MenuCompleted    = "Виконані завдання"
	MenuMonthlyTotal = "Сума за останній місяць"
	MenuEscape       = "На початок"
)

// MainMenu is the reply keyboard shown at the main-menu state.
var MainMenu = [][]string{
	{MenuAdd},
	{MenuActive},
	{MenuCompleted},
	{MenuMonthlyTotal},
	{MenuEscape},
}

// Callback-data prefixes of the inline task actions.
const (
	callbackDelete   = "delete_"
	callbackComplete = "complete_"
)

const (
	msgMainMenu     = "🏠 Головне меню:"
	msgNoActive     = "📭 Немає активних завдань!"
	msgNoCompleted  = "📭 Немає виконаних завдань!"
	msgGenericError = "❌ Сталася помилка. Спробуйте ще раз."
)

// Handler routes inbound chat events to the capture paths and task
// operations. One event is handled to completion before the next one
// for the same user arrives, so no per-user locking happens here.
type Handler struct {
	gateway Gateway
	tasks   *service.TaskService
	dialogs *dialog.Manager
}

func NewHandler(gateway Gateway, tasks *service.TaskService, dialogs *dialog.Manager) *Handler {
	return &Handler{
		gateway: gateway,
		tasks:   tasks,
		dialogs: dialogs,
	}
}

// HandleText processes one "user text input" event.
func (h *Handler) HandleText(ctx context.Context, userID int64, text string) {
	text = strings.TrimSpace(text)

	switch text {
	case "/start", MenuEscape:
		h.dialogs.Cancel(userID)
		h.send(ctx, userID, func() error {
			return h.gateway.SendMenu(ctx, userID, msgMainMenu, MainMenu)
		})
	case MenuAdd:
		res := h.dialogs.Start(userID)
		h.sendText(ctx, userID, res.Prompt)
	case MenuActive:
		h.showActive(ctx, userID)
	case MenuCompleted:
		h.showCompleted(ctx, userID)
	case MenuMonthlyTotal:
		h.showMonthlyTotal(ctx, userID)
	default:
		if h.dialogs.Active(userID) {
			h.dialogueStep(ctx, userID, text)
			return
		}
		h.captureFreeText(ctx, userID, text)
	}
}

// HandleCallback processes one "menu button press" event and removes
// the message carrying the pressed button afterwards.
func (h *Handler) HandleCallback(ctx context.Context, userID int64, messageID int, data string) {
	var (
		action string
		idText string
	)
	switch {
	case strings.HasPrefix(data, callbackDelete):
		action, idText = "delete", strings.TrimPrefix(data, callbackDelete)
	case strings.HasPrefix(data, callbackComplete):
		action, idText = "complete", strings.TrimPrefix(data, callbackComplete)
	default:
		log.WithFields(log.Fields{"user": userID, "data": data}).Warn("unknown callback")
		return
	}

	taskID, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		log.WithFields(log.Fields{"user": userID, "data": data}).Warn("malformed callback id")
		return
	}

	// Both operations are idempotent no-ops for unknown identifiers.
	if action == "delete" {
		err = h.tasks.Delete(ctx, taskID)
	} else {
		err = h.tasks.Complete(ctx, taskID)
	}
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"user": userID, "task": taskID}).Error(action)
		h.sendText(ctx, userID, msgGenericError)
		return
	}

	if err := h.gateway.DeleteMessage(ctx, userID, messageID); err != nil {
		log.WithError(err).WithField("user", userID).Warn("delete buttons message")
	}
}

func (h *Handler) dialogueStep(ctx context.Context, userID int64, text string) {
	res, err := h.dialogs.Input(ctx, userID, text)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("dialogue step")
		h.sendText(ctx, userID, msgGenericError)
		return
	}
	h.sendText(ctx, userID, res.Prompt)
}

func (h *Handler) captureFreeText(ctx context.Context, userID int64, text string) {
	task, err := h.tasks.CaptureFreeText(ctx, userID, text)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("free-text capture")
		h.sendText(ctx, userID, msgGenericError)
		return
	}

	var b strings.Builder
	b.WriteString("✅ Завдання автоматично додано!\n")
	fmt.Fprintf(&b, "• Тип: %s\n", task.Type)
	fmt.Fprintf(&b, "• Дата: %s\n", task.ScheduledAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "• Місто: %s\n", task.City)
	fmt.Fprintf(&b, "• Телефон: %s\n", task.Phone)
	fmt.Fprintf(&b, "• Ціна: %s\n", task.PriceLabel())
	fmt.Fprintf(&b, "• Замовник: %s", task.Name)
	h.sendText(ctx, userID, b.String())
}

func (h *Handler) showActive(ctx context.Context, userID int64) {
	tasks, err := h.tasks.ActiveTasks(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("list active")
		h.sendText(ctx, userID, msgGenericError)
		return
	}
	if len(tasks) == 0 {
		h.sendText(ctx, userID, msgNoActive)
		return
	}

	var b strings.Builder
	b.WriteString("📋 Активні завдання:\n")
	rows := make([][]Button, 0, len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(&b, "[ID:%d] %s — %s, %s, тел: %s, ціна: %s\n",
			t.ID, t.Type, t.ScheduledAt.Format("02.01.2006 15:04"), t.City, t.Phone, t.PriceLabel())
		rows = append(rows, []Button{
			{Label: fmt.Sprintf("❌ Видалити %d", t.ID), Data: fmt.Sprintf("%s%d", callbackDelete, t.ID)},
			{Label: fmt.Sprintf("✅ Виконано %d", t.ID), Data: fmt.Sprintf("%s%d", callbackComplete, t.ID)},
		})
	}

	if _, err := h.gateway.SendInline(ctx, userID, b.String(), rows); err != nil {
		log.WithError(err).WithField("user", userID).Error("send active list")
	}
}

func (h *Handler) showCompleted(ctx context.Context, userID int64) {
	tasks, err := h.tasks.CompletedTasks(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("list completed")
		h.sendText(ctx, userID, msgGenericError)
		return
	}
	if len(tasks) == 0 {
		h.sendText(ctx, userID, msgNoCompleted)
		return
	}

	var b strings.Builder
	b.WriteString("📋 Виконані завдання:\n")
	for _, t := range tasks {
		completed := ""
		if t.CompletedAt != nil {
			completed = t.CompletedAt.Format("02.01.2006 15:04")
		}
		fmt.Fprintf(&b, "✅ [ID:%d] %s — %s\n", t.ID, t.Type, completed)
	}
	h.sendText(ctx, userID, b.String())
}

func (h *Handler) showMonthlyTotal(ctx context.Context, userID int64) {
	total, err := h.tasks.MonthlyTotal(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user", userID).Error("monthly total")
		h.sendText(ctx, userID, msgGenericError)
		return
	}
	h.sendText(ctx, userID, fmt.Sprintf("💰 Сума за останній місяць: %.0f грн", total))
}

func (h *Handler) sendText(ctx context.Context, userID int64, text string) {
	h.send(ctx, userID, func() error {
		return h.gateway.SendText(ctx, userID, text)
	})
}

func (h *Handler) send(_ context.Context, userID int64, fn func() error) {
	if err := fn(); err != nil {
		log.WithError(err).WithField("user", userID).Error("send message")
	}
}
