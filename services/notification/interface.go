package notification

import (
	"context"
	"errors"
	"fmt"

	"tourbot/metrics"
	"tourbot/models"

	"go.uber.org/zap"
)

// Notifier tells operators about new bookings.
type Notifier interface {
	NotifyBookingCreated(ctx context.Context, b models.Booking) error
}

// MessageSender delivers a plain text message to a chat.
type MessageSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// OperatorNotifier sends the booking message to every configured operator chat directly.
type OperatorNotifier struct {
	sender    MessageSender
	operators []int64
	logger    *zap.Logger
}

func NewOperatorNotifier(sender MessageSender, operators []int64, logger *zap.Logger) (*OperatorNotifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("notification service initialization error: sender is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperatorNotifier{
		sender:    sender,
		operators: append([]int64(nil), operators...),
		logger:    logger,
	}, nil
}

// NotifyBookingCreated tries every operator even when some deliveries fail, and returns the
// joined failures.
func (n *OperatorNotifier) NotifyBookingCreated(ctx context.Context, b models.Booking) error {
	if len(n.operators) == 0 {
		n.logger.Warn("no operator chats configured, booking notification not sent",
			zap.Int("booking_id", b.ID), zap.String("message", OperatorMessage(b)))
		return nil
	}
	var errs []error
	for _, chatID := range n.operators {
		if err := n.NotifyOperator(ctx, chatID, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyOperator delivers the booking message to a single operator chat.
func (n *OperatorNotifier) NotifyOperator(ctx context.Context, chatID int64, b models.Booking) error {
	msg := OperatorMessage(b)
	if err := n.sender.SendText(ctx, chatID, msg); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		// The message body is logged so an operator can still act on it.
		n.logger.Error("failed to notify operator",
			zap.Int64("chat_id", chatID),
			zap.Int("booking_id", b.ID),
			zap.String("message", msg),
			zap.Error(err))
		return fmt.Errorf("notify operator %d: %w", chatID, err)
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()
	n.logger.Info("operator notified", zap.Int64("chat_id", chatID), zap.Int("booking_id", b.ID))
	return nil
}
