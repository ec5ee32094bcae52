// Package notify pushes out-of-band nudges to administrators who linked a
// Telegram account, so a citizen message is not missed while the admin
// dashboard is closed.
package notify

import (
	"fmt"
	"log"
	"unicode/utf8"

	"civicchat/backend/internal/chathub"
	"civicchat/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends one DM per incoming citizen message to the
// receiving administrator. Online admins (live WebSocket) are skipped;
// they already see the message in the dashboard.
type TelegramNotifier struct {
	Bot *tgbotapi.BotAPI
	Hub *chathub.ManagerService
}

// NewTelegramNotifier connects the bot. The hub may be nil, in which case
// every linked admin is notified regardless of presence.
func NewTelegramNotifier(token string, hub *chathub.ManagerService) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to start telegram bot: %w", err)
	}
	log.Printf("notify: telegram bot authorized as @%s", bot.Self.UserName)
	return &TelegramNotifier{Bot: bot, Hub: hub}, nil
}

// NotifyAdmin sends the nudge. Best effort: errors are logged and
// swallowed, chat delivery never depends on Telegram being up.
func (n *TelegramNotifier) NotifyAdmin(admin *models.User, citizen *models.User, msg *models.ChatMessage) {
	if admin.TelegramChatID == 0 {
		return
	}
	if n.Hub != nil && n.Hub.IsOnline(admin.ID) {
		return
	}

	text := fmt.Sprintf("New message from %s (ward chat):\n%s", citizen.FullName(), preview(msg))
	if _, err := n.Bot.Send(tgbotapi.NewMessage(admin.TelegramChatID, text)); err != nil {
		log.Printf("WARNING: telegram notify for admin %d failed: %v", admin.ID, err)
	}
}

func preview(msg *models.ChatMessage) string {
	switch msg.Type {
	case models.MessageTypeImage:
		return "[photo]"
	case models.MessageTypeVoice:
		return "[voice message]"
	}
	// Truncate on rune boundaries; a byte slice could cut a multibyte
	// character in half.
	if utf8.RuneCountInString(msg.Content) > 200 {
		return string([]rune(msg.Content)[:200]) + "…"
	}
	return msg.Content
}
