// Package telegram adapts the bot core to the Telegram Bot API. It is
// the only package aware of the concrete chat transport.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ohavryliuk/fieldbot/internal/bot"
)

// Client wraps the Telegram API behind the bot.Gateway interface and
// feeds inbound updates into a handler.
type Client struct {
	api *tgbotapi.BotAPI
}

func New(token string, debug bool) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	log.WithField("account", api.Self.UserName).Info("authorized on telegram")
	return &Client{api: api}, nil
}

func (c *Client) SendText(_ context.Context, userID int64, text string) error {
	_, err := c.api.Send(tgbotapi.NewMessage(userID, text))
	return err
}

func (c *Client) SendMenu(_ context.Context, userID int64, text string, rows [][]string) error {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		keyboard = append(keyboard, buttons)
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(keyboard...)
	_, err := c.api.Send(msg)
	return err
}

func (c *Client) SendInline(_ context.Context, userID int64, text string, rows [][]bot.Button) (int, error) {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		keyboard = append(keyboard, buttons)
	}

	msg := tgbotapi.NewMessage(userID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) DeleteMessage(_ context.Context, userID int64, messageID int) error {
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(userID, messageID))
	return err
}

// Poll long-polls Telegram for updates and dispatches them to the
// handler until the context is cancelled. Each update is handled to
// completion before the next one is read.
func (c *Client) Poll(ctx context.Context, handler *bot.Handler) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := c.api.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.dispatch(ctx, handler, update)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, handler *bot.Handler, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		// Acknowledge the press so the client stops its spinner.
		if _, err := c.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			log.WithError(err).Warn("answer callback query")
		}
		if cq.Message == nil {
			return
		}
		handler.HandleCallback(ctx, cq.From.ID, cq.Message.MessageID, cq.Data)
	case update.Message != nil && update.Message.Text != "":
		handler.HandleText(ctx, update.Message.From.ID, update.Message.Text)
	}
}
