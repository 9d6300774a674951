package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	bookingRepo "tourbot/database/repository/booking"
	"tourbot/models"
	"tourbot/services/booking"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetChatMembersCount(config tgbotapi.ChatMemberCountConfig) (int, error)
}

// Limiter throttles inbound updates per user.
type Limiter interface {
	Allow(key string) bool
}

// Options configures a Bot.
type Options struct {
	// IsOperator reports whether a chat may use operator commands.
	IsOperator func(chatID int64) bool
	// Location is the timezone booking timestamps are shown in.
	Location *time.Location
	// Limiter may be nil to disable throttling.
	Limiter Limiter
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int
}

// Bot adapts Telegram updates to the conversation engine and renders its replies.
type Bot struct {
	api    API
	engine booking.ConversationEngine
	repo   bookingRepo.BookingRepository
	opts   Options
	logger *zap.Logger
}

func New(api API, engine booking.ConversationEngine, repo bookingRepo.BookingRepository, opts Options, logger *zap.Logger) *Bot {
	if opts.IsOperator == nil {
		opts.IsOperator = func(int64) bool { return false }
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{api: api, engine: engine, repo: repo, opts: opts, logger: logger}
}

// Run long-polls for updates until ctx is cancelled. Updates are handled one at a time so a
// user's inputs are applied in the order they were sent.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.PollTimeout
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started, polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram updates channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update. Failures are logged, never returned, so one bad
// update cannot stop the polling loop.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) allow(userID int64) bool {
	if b.opts.Limiter == nil || b.opts.Limiter.Allow(strconv.FormatInt(userID, 10)) {
		return true
	}
	b.logger.Warn("update throttled", zap.Int64("user_id", userID))
	return false
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if !b.allow(msg.From.ID) {
		return
	}
	user := identity(msg.From, msg.Chat.ID)

	var in booking.Input
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			in = booking.Input{Kind: booking.InputStart, Value: msg.CommandArguments()}
		case "cancel":
			in = booking.Input{Kind: booking.InputCancel}
		case "clear":
			in = booking.Input{Kind: booking.InputClear}
		case "bookings":
			b.showBookings(ctx, msg)
			return
		case "get_my_id":
			b.showMyID(msg)
			return
		case "channel_info":
			b.showChannelInfo(msg)
			return
		case "get_channel_info":
			b.showChannelInfoDirect(msg)
			return
		default:
			b.logger.Debug("unknown command", zap.String("command", msg.Command()), zap.Int64("user_id", user.UserID))
			return
		}
	} else {
		if msg.Text == "" {
			return
		}
		in = booking.ParseText(msg.Text)
	}

	reply, err := b.engine.Handle(ctx, user, in)
	if err != nil {
		b.logger.Error("failed to handle message", zap.Int64("user_id", user.UserID), zap.Error(err))
		b.sendText(msg.Chat.ID, "⚠️ Что-то пошло не так. Попробуйте ещё раз или напишите /start.")
		return
	}
	b.send(msg.Chat.ID, reply)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Always acknowledge so the client stops showing a spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
	if cq.From == nil || !b.allow(cq.From.ID) {
		return
	}

	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}
	user := identity(cq.From, chatID)

	in, err := booking.ParseCallback(cq.Data)
	if err != nil {
		b.logger.Warn("unrecognised callback", zap.Int64("user_id", user.UserID), zap.String("data", cq.Data))
		return
	}

	reply, err := b.engine.Handle(ctx, user, in)
	if err != nil {
		b.logger.Error("failed to handle callback", zap.Int64("user_id", user.UserID), zap.Error(err))
		b.sendText(chatID, "⚠️ Что-то пошло не так. Попробуйте ещё раз или напишите /start.")
		return
	}

	// Inline flows update the message the buttons were on; reply keyboards need a new message.
	if cq.Message != nil && reply.Keyboard != booking.KeyboardReply {
		b.edit(chatID, cq.Message.MessageID, reply)
		return
	}
	b.send(chatID, reply)
}

func (b *Bot) send(chatID int64, reply *booking.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if markup := replyMarkup(reply); markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, reply *booking.Reply) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, reply.Text)
	if reply.Keyboard == booking.KeyboardInline {
		markup := inlineMarkup(reply.Buttons)
		edit.ReplyMarkup = &markup
	}
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func identity(u *tgbotapi.User, chatID int64) models.UserIdentity {
	return models.UserIdentity{
		UserID:    u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		ChatID:    chatID,
	}
}

func replyMarkup(reply *booking.Reply) interface{} {
	switch reply.Keyboard {
	case booking.KeyboardReply:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Buttons))
		for _, btn := range reply.Buttons {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btn.Label)))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		return kb
	case booking.KeyboardInline:
		return inlineMarkup(reply.Buttons)
	case booking.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(false)
	}
	return nil
}

func inlineMarkup(buttons []booking.Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Payload)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// Sender delivers plain text through the bot API. It satisfies notification.MessageSender.
type Sender struct {
	api API
}

func NewSender(api API) *Sender {
	return &Sender{api: api}
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := s.api.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("send message to chat %d: %w", chatID, err)
		}
	}
	return nil
}
