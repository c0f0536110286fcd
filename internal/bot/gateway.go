// internal/bot/gateway.go
package bot

import (
	"context"
	"sync"
)

// Button is one inline action button: a visible label and the callback
// data the press comes back with.
type Button struct {
	Label string
	Data  string
}

// Gateway is the outbound chat surface. The core never talks to a
// concrete chat transport; it emits through this interface.
type Gateway interface {
	SendText(ctx context.Context, userID int64, text string) error
	SendMenu(ctx context.Context, userID int64, text string, rows [][]string) error
	// SendInline returns the identifier of the sent message so it can
	// be deleted after an inline action is handled.
	SendInline(ctx context.Context, userID int64, text string, rows [][]Button) (int, error)
	DeleteMessage(ctx context.Context, userID int64, messageID int) error
}

// SentMessage records one outbound message for assertions.
type SentMessage struct {
	UserID  int64
	Text    string
	Menu    [][]string
	Buttons [][]Button
}

// MockGateway records outbound traffic instead of delivering it.
// Used in tests and by the dry-run mode.
type MockGateway struct {
	mu        sync.Mutex
	sent      []SentMessage
	deleted   []int
	failFor   map[int64]error
	nextMsgID int
}

func NewMockGateway() *MockGateway {
	return &MockGateway{failFor: make(map[int64]error), nextMsgID: 1}
}

// FailFor makes every send to the given user return err.
func (g *MockGateway) FailFor(userID int64, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failFor[userID] = err
}

func (g *MockGateway) SendText(_ context.Context, userID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[userID]; err != nil {
		return err
	}
	g.sent = append(g.sent, SentMessage{UserID: userID, Text: text})
	return nil
}

func (g *MockGateway) SendMenu(_ context.Context, userID int64, text string, rows [][]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[userID]; err != nil {
		return err
	}
	g.sent = append(g.sent, SentMessage{UserID: userID, Text: text, Menu: rows})
	return nil
}

func (g *MockGateway) SendInline(_ context.Context, userID int64, text string, rows [][]Button) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[userID]; err != nil {
		return 0, err
	}
	g.sent = append(g.sent, SentMessage{UserID: userID, Text: text, Buttons: rows})
	id := g.nextMsgID
	g.nextMsgID++
	return id, nil
}

func (g *MockGateway) DeleteMessage(_ context.Context, _ int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, messageID)
	return nil
}

// Sent returns a copy of everything recorded so far.
func (g *MockGateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentMessage, len(g.sent))
	copy(out, g.sent)
	return out
}

// SentTo returns the messages recorded for one user.
func (g *MockGateway) SentTo(userID int64) []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []SentMessage
	for _, m := range g.sent {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

// Deleted returns the ids of deleted messages.
func (g *MockGateway) Deleted() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int, len(g.deleted))
	copy(out, g.deleted)
	return out
}
