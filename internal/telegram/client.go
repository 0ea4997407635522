// Package telegram provides a notifier that posts staking availability changes
// to a Telegram chat via the Telegram Bot API.
//
// Messages are sent as MarkdownV2 with all special characters escaped, so the
// rendered text matches notify.Message exactly. Each message is attempted
// once; a failed delivery is reported to the caller as *notify.Error and the
// next polling cycle carries on.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/stakewatch/internal/models"
	"github.com/rewired-gh/stakewatch/internal/notify"
)

// Client handles Telegram notifications
type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a new Telegram client. apiEndpoint overrides the Bot API
// URL template (tgbotapi.APIEndpoint) when non-empty.
func NewClient(botToken, chatID, apiEndpoint string) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return &Client{
		bot:    bot,
		chatID: chatIDInt,
	}, nil
}

// Notify posts the availability message for key.
func (c *Client) Notify(ctx context.Context, category models.Category, key models.ProductKey, available bool) error {
	if err := c.send(ctx, notify.Message(key, available)); err != nil {
		return &notify.Error{Category: category, Key: key, Err: err}
	}
	return nil
}

// ReportFailure tells the chat that a category's status endpoint is failing.
func (c *Client) ReportFailure(ctx context.Context, category models.Category, err error) error {
	return c.send(ctx, fmt.Sprintf("⚠️ Checking %s staking failed: %v", category, err))
}

// ReportRecovery tells the chat that a category's status endpoint is back.
func (c *Client) ReportRecovery(ctx context.Context, category models.Category, failures int) error {
	return c.send(ctx, fmt.Sprintf("✅ Checking %s staking recovered after %d failed attempts", category, failures))
}

func (c *Client) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(c.chatID, escapeMarkdownV2(text))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
