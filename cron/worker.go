package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"tourbot/models"
	"tourbot/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// OperatorDelivery sends one booking message to one operator chat.
type OperatorDelivery interface {
	NotifyOperator(ctx context.Context, chatID int64, b models.Booking) error
}

// NotifyWorker runs the asynq server that drains queued operator notifications.
type NotifyWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewNotifyWorker(redisOpts asynq.RedisClientOpt, delivery OperatorDelivery, logger *zap.Logger) *NotifyWorker {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar().Named("asynq"),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingNotify, HandleBookingNotifyTask(delivery, logger))

	return &NotifyWorker{srv: srv, mux: mux, logger: logger}
}

// Run processes tasks until ctx is cancelled, then shuts the server down gracefully.
func (w *NotifyWorker) Run(ctx context.Context) error {
	w.logger.Info("starting notification worker")
	if err := w.srv.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start notification worker: %w", err)
	}
	<-ctx.Done()
	w.srv.Shutdown()
	w.logger.Info("notification worker stopped")
	return nil
}

func HandleBookingNotifyTask(delivery OperatorDelivery, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.OperatorNotificationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid notification payload", zap.Error(err))
			// Retrying cannot fix a malformed payload.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if p.OperatorChatID == 0 || p.Booking.ID == 0 {
			logger.Error("incomplete notification payload", zap.ByteString("payload", task.Payload()))
			return fmt.Errorf("incomplete notification payload: %w", asynq.SkipRetry)
		}

		if err := delivery.NotifyOperator(ctx, p.OperatorChatID, p.Booking); err != nil {
			return err
		}
		return nil
	}
}
