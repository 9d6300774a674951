package models

// OperatorNotificationPayload is the queued unit of work for telling one operator about a booking.
type OperatorNotificationPayload struct {
	OperatorChatID int64   `json:"operatorChatId"`
	Booking        Booking `json:"booking"`
}
