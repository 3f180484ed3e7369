package telegram

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mymmrac/telego"

	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/logger"
)

const helpText = `Available commands:
/new - Start a new session (clear history)
/plugins - List plugins and their state
/plugin enable <id> - Enable a plugin
/plugin disable <id> - Disable a plugin
/help - Show this message

Anything else is sent to the assistant.`

// handleUpdate routes a Telegram update: bot commands are handled directly,
// everything else from an authorized user becomes an inbound prompt.
func (p *Plugin) handleUpdate(update telego.Update) error {
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	if msg.Text == "" {
		// Skip non-text messages (photos, stickers, etc.).
		return nil
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
	}

	if !p.isAllowedUser(userID) {
		p.logger.Warn("message blocked, user not in allowlist",
			logger.Field{Key: "user_id", Value: userID})
		p.reply(msg.Chat.ID, "Sorry, you are not authorized to use this bot.")
		return nil
	}

	if strings.HasPrefix(msg.Text, "/") {
		return p.handleCommand(msg, userID)
	}

	return p.publishPrompt(msg, userID, nil)
}

func (p *Plugin) handleCommand(msg *telego.Message, userID int64) error {
	fields := strings.Fields(msg.Text)
	command := strings.TrimPrefix(fields[0], "/")

	switch command {
	case "new":
		// The session loop drops history when it sees the new_session marker.
		if err := p.publishPrompt(msg, userID, map[string]any{"command": "new_session"}); err != nil {
			return err
		}
		p.reply(msg.Chat.ID, "Started a new session.")
		return nil
	case "help":
		p.reply(msg.Chat.ID, helpText)
		return nil
	case "plugins":
		p.reply(msg.Chat.ID, p.describePlugins())
		return nil
	case "plugin":
		return p.handlePluginToggle(msg, fields[1:])
	default:
		p.reply(msg.Chat.ID, fmt.Sprintf("Unknown command /%s. Send /help for the command list.", command))
		return nil
	}
}

// handlePluginToggle services "/plugin enable <id>" and "/plugin disable <id>".
func (p *Plugin) handlePluginToggle(msg *telego.Message, args []string) error {
	toggler := p.currentToggler()
	if toggler == nil {
		p.reply(msg.Chat.ID, "Plugin management is not available.")
		return nil
	}

	if len(args) != 2 || (args[0] != "enable" && args[0] != "disable") {
		p.reply(msg.Chat.ID, "Usage: /plugin enable <id> or /plugin disable <id>")
		return nil
	}

	action, id := args[0], args[1]
	if id == PluginID && action == "disable" {
		p.reply(msg.Chat.ID, "Refusing to disable the telegram gateway from telegram.")
		return nil
	}

	_, ctx := p.snapshot()
	var err error
	if action == "enable" {
		err = toggler.Enable(ctx, id)
	} else {
		err = toggler.Disable(ctx, id)
	}
	if err != nil {
		p.reply(msg.Chat.ID, fmt.Sprintf("Failed to %s plugin %q: %v", action, id, err))
		return nil
	}

	p.logger.InfoCtx(ctx, "plugin toggled from telegram",
		logger.Field{Key: "plugin", Value: id},
		logger.Field{Key: "action", Value: action})
	p.reply(msg.Chat.ID, fmt.Sprintf("Plugin %q %sd.", id, action))
	return nil
}

func (p *Plugin) describePlugins() string {
	toggler := p.currentToggler()
	if toggler == nil {
		return "Plugin management is not available."
	}

	plugins := toggler.List()
	lines := make([]string, 0, len(plugins))
	for _, pl := range plugins {
		state := "disabled"
		if toggler.IsEnabled(pl.ID()) {
			state = "enabled"
		}
		lines = append(lines, fmt.Sprintf("%s (%s) - %s", pl.ID(), state, pl.Name()))
	}
	sort.Strings(lines)
	return "Plugins:\n" + strings.Join(lines, "\n")
}

func (p *Plugin) currentToggler() Toggler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggler
}

// publishPrompt relays a user message to the bus as an inbound prompt.
func (p *Plugin) publishPrompt(msg *telego.Message, userID int64, extra map[string]any) error {
	metadata := map[string]any{
		"message_id": msg.MessageID,
		"chat_id":    msg.Chat.ID,
		"chat_type":  msg.Chat.Type,
	}
	if msg.From != nil {
		metadata["username"] = msg.From.Username
	}
	for k, v := range extra {
		metadata[k] = v
	}

	inbound := bus.NewInboundMessage(
		bus.ChannelTypeTelegram,
		fmt.Sprintf("%d", userID),
		sessionID(msg.Chat.ID),
		msg.Text,
		metadata,
	)

	if err := p.bus.PublishInbound(*inbound); err != nil {
		return fmt.Errorf("failed to publish inbound message: %w", err)
	}

	p.logger.Debug("inbound message published",
		logger.Field{Key: "user_id", Value: userID},
		logger.Field{Key: "session_id", Value: inbound.SessionID})
	return nil
}

// reply sends a direct response outside the assistant loop, best effort.
// The bot handle is snapshotted so a concurrent stop yields a clean skip
// instead of a nil dereference.
func (p *Plugin) reply(chatID int64, text string) {
	bot, ctx := p.snapshot()
	if bot == nil {
		p.logger.Debug("gateway is stopped, dropping reply",
			logger.Field{Key: "chat_id", Value: chatID})
		return
	}

	sendCtx, cancel := p.sendContext(ctx)
	defer cancel()

	_, err := bot.SendMessage(sendCtx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	if err != nil {
		p.logger.ErrorCtx(ctx, "failed to send reply", err,
			logger.Field{Key: "chat_id", Value: chatID})
	}
}
