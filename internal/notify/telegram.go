package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// TelegramNotifier delivers notifications through a Telegram bot. Each user
// maps to a chat id; users without a mapping fall back to the default chat.
type TelegramNotifier struct {
	bot           *tgbotapi.BotAPI
	chatIDs       map[string]int64
	defaultChatID int64
}

// NewTelegramNotifier creates a notifier from a bot token.
func NewTelegramNotifier(token string, defaultChatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{
		bot:           bot,
		chatIDs:       make(map[string]int64),
		defaultChatID: defaultChatID,
	}, nil
}

// MapUser associates a user id with a Telegram chat id.
func (n *TelegramNotifier) MapUser(userID string, chatID int64) {
	n.chatIDs[userID] = chatID
}

// Send delivers one message to the user's chat.
func (n *TelegramNotifier) Send(_ context.Context, userID string, msg types.NotificationMessage) error {
	chatID, ok := n.chatIDs[userID]
	if !ok {
		chatID = n.defaultChatID
	}
	if chatID == 0 {
		return &DispatchError{UserID: userID, Cause: fmt.Errorf("no telegram chat configured")}
	}

	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, msg.Text)); err != nil {
		return &DispatchError{UserID: userID, Cause: err}
	}
	return nil
}
