package booking

import "tourbot/models"

// KeyboardKind says how the transport should render Reply.Buttons.
type KeyboardKind string

const (
	KeyboardNone   KeyboardKind = ""       // plain text
	KeyboardReply  KeyboardKind = "reply"  // one-time reply keyboard, buttons send their label as text
	KeyboardInline KeyboardKind = "inline" // inline buttons carrying Payload
	KeyboardRemove KeyboardKind = "remove" // hide any reply keyboard
)

// Button is one selectable option, rendered one per row.
type Button struct {
	Label   string
	Payload string
}

// Reply is what the engine wants shown to the user after an input.
type Reply struct {
	Text     string
	Keyboard KeyboardKind
	Buttons  []Button
	// State is the conversation state after the input was handled.
	State State
	// Booking is set when the input stored a new booking.
	Booking *models.Booking
}
