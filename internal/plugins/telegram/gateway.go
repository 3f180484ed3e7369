// Package telegram is the Telegram gateway plugin built on the Telego
// library. While enabled, it long-polls for updates, relays authorized user
// messages to the message bus as inbound prompts, and delivers outbound
// replies back to their originating chat. Disabling the plugin stops the
// polling worker; a settings change restarts it.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"

	"github.com/gutosantos82/py-gpt/internal/bus"
	"github.com/gutosantos82/py-gpt/internal/config"
	"github.com/gutosantos82/py-gpt/internal/logger"
	"github.com/gutosantos82/py-gpt/internal/plugin"
	"github.com/gutosantos82/py-gpt/internal/retry"
)

// PluginID is the catalogue identifier of the telegram gateway.
const PluginID = "telegram"

const defaultSendTimeout = 30 * time.Second

// Toggler is the subset of the plugin registry the gateway needs to switch
// other plugins on and off from chat commands.
type Toggler interface {
	Enable(ctx context.Context, id string) error
	Disable(ctx context.Context, id string) error
	List() []plugin.Plugin
	IsEnabled(id string) bool
}

// Plugin is the telegram gateway.
type Plugin struct {
	logger   *logger.Logger
	bus      *bus.MessageBus
	newBot   func(token string) (BotAPI, error)
	commands []plugin.Command

	mu       sync.Mutex
	cfg      config.TelegramPluginConfig
	toggler  Toggler
	bot      BotAPI
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	outbound <-chan bus.OutboundMessage
}

// New creates the telegram gateway plugin. The polling worker does not start
// until the plugin receives an enable event.
func New(cfg config.TelegramPluginConfig, log *logger.Logger, msgBus *bus.MessageBus) *Plugin {
	p := &Plugin{
		cfg:    cfg,
		logger: log,
		bus:    msgBus,
		newBot: func(token string) (BotAPI, error) {
			bot, err := telego.NewBot(token)
			if err != nil {
				return nil, err
			}
			return NewBotAdapter(bot), nil
		},
	}
	p.commands = []plugin.Command{
		&SendCommand{plugin: p},
	}
	return p
}

// SetToggler wires the plugin registry in after both are constructed.
func (p *Plugin) SetToggler(t Toggler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toggler = t
}

func (p *Plugin) ID() string      { return PluginID }
func (p *Plugin) Name() string    { return "Telegram" }
func (p *Plugin) Version() string { return "1.0.0" }

func (p *Plugin) Description() string {
	return "Relays chat messages between Telegram and the assistant."
}

func (p *Plugin) Options() []plugin.Option {
	p.mu.Lock()
	cfg := p.cfg
	p.mu.Unlock()

	return []plugin.Option{
		{
			Name:        "bot_token",
			Type:        plugin.OptionText,
			Default:     cfg.BotToken,
			Label:       "Bot token",
			Description: "Telegram bot API token.",
			Secret:      true,
		},
		{
			Name:        "allowed_user_ids",
			Type:        plugin.OptionText,
			Default:     joinUserIDs(cfg.AllowedUserIDs),
			Label:       "Allowed user IDs",
			Description: "Comma-separated Telegram user IDs. Empty allows everyone.",
		},
		{
			Name:        "send_timeout_seconds",
			Type:        plugin.OptionInt,
			Default:     cfg.SendTimeoutSeconds,
			Label:       "Send timeout",
			Description: "Timeout in seconds for outbound message delivery.",
		},
		{
			Name:        "notify_chat_id",
			Type:        plugin.OptionInt,
			Default:     cfg.NotifyChatID,
			Label:       "Notify chat ID",
			Description: "Chat that receives scheduled task notifications. Zero disables them.",
		},
	}
}

func (p *Plugin) Commands() []plugin.Command {
	return p.commands
}

// Handle starts and stops the polling worker on lifecycle events. A settings
// change folds the new values into the config and restarts the worker so the
// new token and allowlist take effect.
func (p *Plugin) Handle(ctx context.Context, ev plugin.Event) error {
	switch ev.Type {
	case plugin.EventEnable:
		return p.start(ctx)
	case plugin.EventDisable:
		p.stop()
		return nil
	case plugin.EventSettingsChanged:
		p.applyOptions(ev.Settings)
		p.stop()
		return p.start(ctx)
	}
	return nil
}

// applyOptions folds changed option values into the gateway config. Values
// arrive from the settings file as JSON types, so numbers may be float64.
func (p *Plugin) applyOptions(opts map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, value := range opts {
		switch name {
		case "bot_token":
			if s, ok := value.(string); ok {
				p.cfg.BotToken = s
			}
		case "allowed_user_ids":
			if s, ok := value.(string); ok {
				p.cfg.AllowedUserIDs = splitUserIDs(s)
			}
		case "send_timeout_seconds":
			if n, ok := toInt64(value); ok {
				p.cfg.SendTimeoutSeconds = int(n)
			}
		case "notify_chat_id":
			if n, ok := toInt64(value); ok {
				p.cfg.NotifyChatID = n
			}
		default:
			p.logger.Warn("unknown telegram option ignored",
				logger.Field{Key: "option", Value: name})
		}
	}
}

func (p *Plugin) start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	if p.cfg.BotToken == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	bot, err := p.newBot(p.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	p.bot = bot
	p.ctx, p.cancel = context.WithCancel(context.WithoutCancel(ctx))

	botUser, err := bot.GetMe(p.ctx)
	if err != nil {
		p.cancel()
		p.bot = nil
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	p.logger.Info("telegram bot initialized",
		logger.Field{Key: "bot_id", Value: botUser.ID},
		logger.Field{Key: "username", Value: botUser.Username})

	if err := p.registerBotCommands(p.ctx, bot); err != nil {
		p.logger.ErrorCtx(p.ctx, "failed to register bot commands", err)
	}

	// One bus subscription for the plugin's lifetime. Restarts reuse it so
	// subscribers do not pile up and replies are not delivered twice.
	if p.outbound == nil {
		if ch := p.bus.SubscribeOutbound(p.ctx); ch != nil {
			p.outbound = ch
			go p.handleOutbound(ch)
		}
	}
	go p.longPoll(p.ctx, bot)

	p.running = true
	return nil
}

func (p *Plugin) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	p.logger.Info("stopping telegram gateway")
	if p.cancel != nil {
		p.cancel()
	}
	p.bot = nil
	p.running = false
}

// IsRunning reports whether the polling worker is active.
func (p *Plugin) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// snapshot reads the bot handle and worker context under the lock. The bot
// is nil while the gateway is stopped; the returned context is never nil.
func (p *Plugin) snapshot() (BotAPI, context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ctx := p.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return p.bot, ctx
}

func (p *Plugin) registerBotCommands(ctx context.Context, bot BotAPI) error {
	params := &telego.SetMyCommandsParams{
		Commands: []telego.BotCommand{
			{Command: "new", Description: "Start a new session (clear history)"},
			{Command: "plugins", Description: "List plugins and their state"},
			{Command: "plugin", Description: "Enable or disable a plugin"},
			{Command: "help", Description: "Show available commands"},
		},
	}
	return bot.SetMyCommands(ctx, params)
}

// longPoll receives Telegram updates until the worker context is cancelled.
// The bot handle is passed in so a concurrent stop cannot pull it away
// mid-iteration.
func (p *Plugin) longPoll(ctx context.Context, bot BotAPI) {
	p.logger.Info("starting long polling for telegram updates")

	updates, err := bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		p.logger.ErrorCtx(ctx, "failed to start long polling", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("long polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				p.logger.Info("updates channel closed")
				return
			}
			if err := p.handleUpdate(update); err != nil {
				p.logger.ErrorCtx(ctx, "failed to handle update", err)
			}
		}
	}
}

// handleOutbound delivers assistant replies for the plugin's lifetime. It
// exits when the bus closes the channel; individual sends are skipped while
// the gateway is stopped.
func (p *Plugin) handleOutbound(outboundCh <-chan bus.OutboundMessage) {
	p.logger.Info("outbound message handler started")

	for msg := range outboundCh {
		switch msg.ChannelType {
		case bus.ChannelTypeTelegram:
			p.deliver(msg)
		case bus.ChannelTypeCron:
			p.deliverNotification(msg)
		}
	}
	p.logger.Info("outbound message handler stopped")
}

func (p *Plugin) deliver(msg bus.OutboundMessage) {
	chatID, err := extractChatID(msg.SessionID)
	if err != nil {
		p.logger.Error("failed to extract chat ID", err,
			logger.Field{Key: "session_id", Value: msg.SessionID})
		return
	}
	p.send(chatID, msg.Content)
}

// deliverNotification routes scheduled task output to the configured notify
// chat. Without a notify chat the message is dropped.
func (p *Plugin) deliverNotification(msg bus.OutboundMessage) {
	p.mu.Lock()
	chatID := p.cfg.NotifyChatID
	p.mu.Unlock()

	if chatID == 0 {
		p.logger.Debug("dropping scheduled task notification, notify_chat_id is not set",
			logger.Field{Key: "session_id", Value: msg.SessionID})
		return
	}
	p.send(chatID, msg.Content)
}

func (p *Plugin) send(chatID int64, text string) {
	bot, ctx := p.snapshot()
	if bot == nil {
		p.logger.Debug("gateway is stopped, dropping outbound message",
			logger.Field{Key: "chat_id", Value: chatID})
		return
	}

	sendCtx, cancel := p.sendContext(ctx)
	defer cancel()

	_, err := retry.Do(sendCtx, func() (string, error) {
		_, sendErr := bot.SendMessage(sendCtx, &telego.SendMessageParams{
			ChatID: telego.ChatID{ID: chatID},
			Text:   text,
		})
		return "", sendErr
	}, retry.Config{})
	if err != nil {
		p.logger.ErrorCtx(ctx, "failed to send telegram message", err,
			logger.Field{Key: "chat_id", Value: chatID})
		return
	}

	p.logger.DebugCtx(ctx, "telegram message delivered",
		logger.Field{Key: "chat_id", Value: chatID})
}

// sendContext derives a per-send timeout context from the worker context.
func (p *Plugin) sendContext(ctx context.Context) (context.Context, context.CancelFunc) {
	p.mu.Lock()
	seconds := p.cfg.SendTimeoutSeconds
	p.mu.Unlock()

	timeout := defaultSendTimeout
	if seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// isAllowedUser checks the allowlist. An empty allowlist allows everyone.
func (p *Plugin) isAllowedUser(userID int64) bool {
	p.mu.Lock()
	allowed := p.cfg.AllowedUserIDs
	p.mu.Unlock()

	if len(allowed) == 0 {
		return true
	}
	for _, id := range allowed {
		if id == userID {
			return true
		}
	}
	return false
}

// sessionID builds a session identifier from a chat ID.
// Format: "telegram:<chat_id>".
func sessionID(chatID int64) string {
	return fmt.Sprintf("%s:%d", bus.ChannelTypeTelegram, chatID)
}

// extractChatID parses the chat ID back out of a session identifier.
func extractChatID(session string) (int64, error) {
	parts := strings.Split(session, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid session ID format: expected 'channel:chat_id', got: %s", session)
	}
	if parts[0] != string(bus.ChannelTypeTelegram) {
		return 0, fmt.Errorf("session ID channel mismatch: expected %s, got %s",
			bus.ChannelTypeTelegram, parts[0])
	}

	var chatID int64
	if _, err := fmt.Sscanf(parts[1], "%d", &chatID); err != nil {
		return 0, fmt.Errorf("invalid chat ID in session ID: %w", err)
	}
	return chatID, nil
}

func joinUserIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}

func splitUserIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}
