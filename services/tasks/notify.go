package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"tourbot/models"

	"github.com/hibiken/asynq"
)

const TypeBookingNotify = "booking:notify"

// NewBookingNotifyTask builds the task delivering one booking to one operator. The task id is
// derived from both, so re-enqueueing the same notification is rejected by the queue.
func NewBookingNotifyTask(payload models.OperatorNotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingNotify, b)
	opts := []asynq.Option{
		asynq.TaskID(NotifyTaskID(payload)),
		asynq.MaxRetry(10),
		asynq.Timeout(30 * time.Second),
		asynq.Retention(24 * time.Hour),
	}

	return task, opts, nil
}

func NotifyTaskID(p models.OperatorNotificationPayload) string {
	return fmt.Sprintf("booking-%d-operator-%d", p.Booking.ID, p.OperatorChatID)
}
