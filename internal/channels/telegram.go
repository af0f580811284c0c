package channels

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tangentchat/tangent/internal/bus"
	"github.com/tangentchat/tangent/internal/config"
)

// TelegramChannel implements the Telegram bot via long polling.
type TelegramChannel struct {
	Base
	cfg *config.TelegramConfig
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel creates a TelegramChannel.
func NewTelegramChannel(cfg *config.TelegramConfig, b bus.Bus) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase(bus.ChannelTelegram, b, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Name() string { return string(bus.ChannelTelegram) }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(t.cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (t *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Text == "" {
		return
	}

	senderID := fmt.Sprintf("%d", msg.From.ID)
	if msg.From.UserName != "" {
		senderID = senderID + "|" + msg.From.UserName
	}
	chatID := fmt.Sprintf("%d", msg.Chat.ID)

	// Best-effort typing indicator; Telegram clears it after a few seconds
	// or when the reply arrives.
	_, _ = t.bot.Send(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

	t.HandleMessage(senderID, chatID, msg.Text, map[string]any{
		"message_id": msg.MessageID,
		"username":   msg.From.UserName,
		"is_group":   msg.Chat.Type != "private",
	})
}

func (t *TelegramChannel) Send(_ context.Context, msg bus.OutboundMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: bot not running")
	}
	if msg.Content() == "" {
		return nil
	}
	chatID, err := parseChatID(msg.ChatID())
	if err != nil {
		return err
	}

	var replyMsgID int
	if t.cfg.ReplyToMessage {
		if mid, ok := msg.Metadata()["message_id"]; ok {
			switch v := mid.(type) {
			case int:
				replyMsgID = v
			case float64:
				replyMsgID = int(v)
			}
		}
	}

	for _, chunk := range splitMessage(msg.Content(), 4000) {
		m := tgbotapi.NewMessage(chatID, chunk)
		if replyMsgID != 0 {
			m.ReplyToMessageID = replyMsgID
		}
		if _, err := t.bot.Send(m); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

func parseChatID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid chat_id: %s", s)
	}
	return id, nil
}
