package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohavryliuk/fieldbot/internal/dialog"
	"github.com/ohavryliuk/fieldbot/internal/models"
	"github.com/ohavryliuk/fieldbot/internal/repository"
	"github.com/ohavryliuk/fieldbot/internal/service"
)

func newTestHandler() (*Handler, *MockGateway, *repository.MemoryTaskRepository) {
	repo := repository.NewMemoryTaskRepository()
	gateway := NewMockGateway()
	h := NewHandler(gateway, service.NewTaskService(repo), dialog.NewManager(repo))
	return h, gateway, repo
}

func lastMessage(t *testing.T, gateway *MockGateway, userID int64) SentMessage {
	t.Helper()
	sent := gateway.SentTo(userID)
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func TestStartShowsMainMenu(t *testing.T) {
	h, gateway, _ := newTestHandler()

	h.HandleText(context.Background(), 42, "/start")

	msg := lastMessage(t, gateway, 42)
	assert.Equal(t, msgMainMenu, msg.Text)
	assert.Equal(t, MainMenu, msg.Menu)
}

func TestFreeTextCapture(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	h.HandleText(ctx, 42, "Вивіз меблів завтра о 14:00, м. Київ, 0991234567, 1500 грн")

	msg := lastMessage(t, gateway, 42)
	assert.Contains(t, msg.Text, "автоматично додано")
	assert.Contains(t, msg.Text, models.TypeRemoval)
	assert.Contains(t, msg.Text, "Київ")

	tasks, err := repo.List(ctx, 42, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TypeRemoval, tasks[0].Type)
}

func TestGuidedEntryThroughHandler(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	h.HandleText(ctx, 42, MenuAdd)
	assert.Equal(t, dialog.PromptType, lastMessage(t, gateway, 42).Text)

	for _, answer := range []string{"Винос", "завтра", "1430", "Київ", "0991234567"} {
		h.HandleText(ctx, 42, answer)
	}

	h.HandleText(ctx, 42, "1500")
	assert.Contains(t, lastMessage(t, gateway, 42).Text, "додано")

	tasks, err := repo.List(ctx, 42, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 1500.0, tasks[0].Price)
}

// The escape works mid-dialogue: the draft is discarded and the next
// plain message goes through free-text capture, not the dialogue.
func TestEscapeDiscardsDialogue(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	h.HandleText(ctx, 42, MenuAdd)
	h.HandleText(ctx, 42, "Винос")
	h.HandleText(ctx, 42, MenuEscape)

	assert.Equal(t, msgMainMenu, lastMessage(t, gateway, 42).Text)

	tasks, err := repo.List(ctx, 42, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	h.HandleText(ctx, 42, "топозйомка завтра")
	tasks, err = repo.List(ctx, 42, "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TypeSurvey, tasks[0].Type)
}

func TestActiveListWithButtons(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	id, err := repo.Save(ctx, &models.Task{
		UserID: 42, Type: models.TypeRemoval, ScheduledAt: time.Now().Add(time.Hour), Phone: "0991234567",
	})
	require.NoError(t, err)

	h.HandleText(ctx, 42, MenuActive)

	msg := lastMessage(t, gateway, 42)
	assert.Contains(t, msg.Text, "Активні завдання")
	require.Len(t, msg.Buttons, 1)
	require.Len(t, msg.Buttons[0], 2)
	assert.Equal(t, "delete_1", msg.Buttons[0][0].Data)
	assert.Equal(t, "complete_1", msg.Buttons[0][1].Data)
	assert.Equal(t, int64(1), id)
}

func TestActiveListEmpty(t *testing.T) {
	h, gateway, _ := newTestHandler()
	h.HandleText(context.Background(), 42, MenuActive)
	assert.Equal(t, msgNoActive, lastMessage(t, gateway, 42).Text)
}

func TestCompletedList(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	id, err := repo.Save(ctx, &models.Task{UserID: 42, Type: models.TypeSurvey, ScheduledAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.SetCompleted(ctx, id, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)))

	h.HandleText(ctx, 42, MenuCompleted)

	msg := lastMessage(t, gateway, 42)
	assert.Contains(t, msg.Text, "Виконані завдання")
	assert.Contains(t, msg.Text, "10.03.2026 12:00")
}

func TestMonthlyTotalMessage(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	id, err := repo.Save(ctx, &models.Task{UserID: 42, Type: models.TypeRemoval, ScheduledAt: time.Now(), Price: 1500})
	require.NoError(t, err)
	require.NoError(t, repo.SetCompleted(ctx, id, time.Now()))

	h.HandleText(ctx, 42, MenuMonthlyTotal)
	assert.Contains(t, lastMessage(t, gateway, 42).Text, "1500 грн")
}

func TestCallbackCompleteDeletesButtonsMessage(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	id, err := repo.Save(ctx, &models.Task{UserID: 42, Type: models.TypeRemoval, ScheduledAt: time.Now()})
	require.NoError(t, err)

	h.HandleCallback(ctx, 42, 7, "complete_1")

	completed, err := repo.List(ctx, 42, models.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, id, completed[0].ID)
	assert.Equal(t, []int{7}, gateway.Deleted())
}

func TestCallbackDelete(t *testing.T) {
	h, gateway, repo := newTestHandler()
	ctx := context.Background()

	_, err := repo.Save(ctx, &models.Task{UserID: 42, Type: models.TypeRemoval, ScheduledAt: time.Now()})
	require.NoError(t, err)

	h.HandleCallback(ctx, 42, 7, "delete_1")

	tasks, err := repo.List(ctx, 42, "")
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, []int{7}, gateway.Deleted())
}

// Unknown identifiers are silent no-ops: the buttons message is still
// removed and no error reaches the user.
func TestCallbackUnknownTaskID(t *testing.T) {
	h, gateway, _ := newTestHandler()

	h.HandleCallback(context.Background(), 42, 7, "delete_999")

	assert.Equal(t, []int{7}, gateway.Deleted())
	assert.Empty(t, gateway.SentTo(42))
}

func TestCallbackMalformedData(t *testing.T) {
	h, gateway, _ := newTestHandler()

	h.HandleCallback(context.Background(), 42, 7, "frobnicate_1")
	h.HandleCallback(context.Background(), 42, 8, "delete_abc")

	assert.Empty(t, gateway.Deleted())
	assert.Empty(t, gateway.SentTo(42))
}
