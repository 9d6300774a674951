package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tourbot/models"
	"tourbot/services/notification"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageLength is Telegram's limit for one text message.
const maxMessageLength = 4096

func (b *Bot) showBookings(ctx context.Context, msg *tgbotapi.Message) {
	if !b.opts.IsOperator(msg.Chat.ID) {
		b.sendText(msg.Chat.ID, "❌ У вас нет доступа к этой команде.")
		return
	}
	bookings, err := b.repo.ListAll(ctx)
	if err != nil {
		b.logger.Error("failed to list bookings", zap.Error(err))
		b.sendText(msg.Chat.ID, "⚠️ Не удалось загрузить бронирования.")
		return
	}
	if len(bookings) == 0 {
		b.sendText(msg.Chat.ID, "📋 Бронирований пока нет.")
		return
	}
	for _, part := range splitMessage(formatBookingList(bookings, b.opts.Location), maxMessageLength) {
		b.sendText(msg.Chat.ID, part)
	}
}

func statusMark(s models.BookingStatus) string {
	switch s {
	case models.StatusNew:
		return "🆕"
	case models.StatusConfirmed:
		return "✅"
	}
	return "❌"
}

func formatBookingList(bookings []models.Booking, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("📋 Список всех бронирований:\n\n")
	for _, bk := range bookings {
		fmt.Fprintf(&sb, "%s #%d - %s\n", statusMark(bk.Status), bk.ID, bk.Location)
		fmt.Fprintf(&sb, "📅 %s в %s\n", bk.Date, bk.Time)
		fmt.Fprintf(&sb, "👥 %d чел. | %s\n", bk.People, notification.UserLabel(bk))
		if !bk.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "⏰ %s\n", bk.CreatedAt.In(loc).Format("2006-01-02 15:04"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// splitMessage cuts text into pieces of at most limit characters, preferring to break after a
// newline in the second half of a piece.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i >= limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (b *Bot) showMyID(msg *tgbotapi.Message) {
	chat := msg.Chat
	var sb strings.Builder
	sb.WriteString("🔍 Информация о чате:\n\n")
	fmt.Fprintf(&sb, "Chat Type: %s\n", chat.Type)
	fmt.Fprintf(&sb, "Chat ID: %d\n", chat.ID)
	fmt.Fprintf(&sb, "Chat Title: %s\n", orDefault(chat.Title, "N/A"))
	fmt.Fprintf(&sb, "Username: @%s\n", orDefault(msg.From.UserName, "N/A"))
	fmt.Fprintf(&sb, "Имя: %s\n\n", orDefault(msg.From.FirstName, "N/A"))
	fmt.Fprintf(&sb, "💡 Для настройки уведомлений используй Chat ID: %d", chat.ID)

	b.logger.Info("chat info requested",
		zap.String("chat_type", chat.Type),
		zap.Int64("chat_id", chat.ID),
		zap.String("chat_title", chat.Title),
		zap.String("username", msg.From.UserName))
	b.sendText(chat.ID, sb.String())
}

func (b *Bot) showChannelInfo(msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, b.channelInfo("📢 Информация о канале:", *msg.Chat))
}

// showChannelInfoDirect is showChannelInfo with the chat re-read from the API, which also
// fills in the description.
func (b *Bot) showChannelInfoDirect(msg *tgbotapi.Message) {
	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: msg.Chat.ID}})
	if err != nil {
		b.logger.Error("failed to get chat info", zap.Int64("chat_id", msg.Chat.ID), zap.Error(err))
		b.sendText(msg.Chat.ID, fmt.Sprintf("❌ Ошибка получения информации о канале: %v", err))
		return
	}
	b.sendText(msg.Chat.ID, b.channelInfo("📢 Информация о канале (через API):", chat))
}

func (b *Bot) channelInfo(title string, chat tgbotapi.Chat) string {
	members := "Неизвестно"
	if n, err := b.api.GetChatMembersCount(tgbotapi.ChatMemberCountConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chat.ID}}); err == nil {
		members = fmt.Sprintf("%d", n)
	}

	var sb strings.Builder
	sb.WriteString(title + "\n\n")
	fmt.Fprintf(&sb, "Название: %s\n", chat.Title)
	fmt.Fprintf(&sb, "Тип: %s\n", chat.Type)
	fmt.Fprintf(&sb, "Chat ID: %d\n", chat.ID)
	fmt.Fprintf(&sb, "Username: @%s\n", orDefault(chat.UserName, "Нет"))
	fmt.Fprintf(&sb, "Описание: %s\n", orDefault(chat.Description, "Нет"))
	fmt.Fprintf(&sb, "Количество участников: %s\n\n", members)
	fmt.Fprintf(&sb, "💡 Chat ID для настройки: %d", chat.ID)

	b.logger.Info("channel info requested",
		zap.String("title", chat.Title),
		zap.String("type", chat.Type),
		zap.Int64("chat_id", chat.ID),
		zap.String("username", chat.UserName))
	return sb.String()
}
