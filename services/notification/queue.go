package notification

import (
	"context"
	"errors"
	"fmt"

	"tourbot/models"
	"tourbot/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskEnqueuer is the part of *asynq.Client the queue notifier uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands each operator delivery to the asynq worker, which retries failed sends.
type QueueNotifier struct {
	client    TaskEnqueuer
	operators []int64
	logger    *zap.Logger
}

func NewQueueNotifier(client TaskEnqueuer, operators []int64, logger *zap.Logger) *QueueNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueNotifier{
		client:    client,
		operators: append([]int64(nil), operators...),
		logger:    logger,
	}
}

func (q *QueueNotifier) NotifyBookingCreated(ctx context.Context, b models.Booking) error {
	if len(q.operators) == 0 {
		q.logger.Warn("no operator chats configured, booking notification not queued",
			zap.Int("booking_id", b.ID), zap.String("message", OperatorMessage(b)))
		return nil
	}
	var errs []error
	for _, chatID := range q.operators {
		payload := models.OperatorNotificationPayload{OperatorChatID: chatID, Booking: b}
		task, opts, err := tasks.NewBookingNotifyTask(payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("build notify task: %w", err))
			continue
		}
		info, err := q.client.EnqueueContext(ctx, task, opts...)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			q.logger.Debug("notification already queued", zap.String("task_id", tasks.NotifyTaskID(payload)))
			continue
		}
		if err != nil {
			q.logger.Error("failed to enqueue operator notification",
				zap.Int64("chat_id", chatID),
				zap.Int("booking_id", b.ID),
				zap.String("message", OperatorMessage(b)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("enqueue notification for operator %d: %w", chatID, err))
			continue
		}
		q.logger.Info("operator notification queued",
			zap.Int64("chat_id", chatID),
			zap.Int("booking_id", b.ID),
			zap.String("task_id", info.ID))
	}
	return errors.Join(errs...)
}
