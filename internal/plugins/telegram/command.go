package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mymmrac/telego"
)

// SendCommand lets the model push a notification to a Telegram chat.
type SendCommand struct {
	plugin *Plugin
}

type SendArgs struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

func (c *SendCommand) Name() string {
	return "telegram_send"
}

func (c *SendCommand) Description() string {
	return "Sends a text message to a Telegram chat."
}

func (c *SendCommand) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"chat_id": map[string]interface{}{
				"type":        "integer",
				"description": "Target chat identifier.",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Message text to send.",
			},
		},
		"required": []string{"chat_id", "text"},
	}
}

func (c *SendCommand) Execute(ctx context.Context, args string) (string, error) {
	var sendArgs SendArgs
	if err := json.Unmarshal([]byte(args), &sendArgs); err != nil {
		return "", fmt.Errorf("failed to parse arguments: %w", err)
	}

	if sendArgs.ChatID == 0 {
		return "", fmt.Errorf("chat_id is required")
	}
	if sendArgs.Text == "" {
		return "", fmt.Errorf("text is required")
	}

	c.plugin.mu.Lock()
	bot := c.plugin.bot
	c.plugin.mu.Unlock()
	if bot == nil {
		return "", fmt.Errorf("telegram gateway is not running")
	}

	_, err := bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: sendArgs.ChatID},
		Text:   sendArgs.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return fmt.Sprintf("message sent to chat %d", sendArgs.ChatID), nil
}
