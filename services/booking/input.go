package booking

import (
	"strings"
)

// InputKind tags an inbound user action.
type InputKind string

const (
	InputText     InputKind = "text"     // free text typed by the user
	InputStart    InputKind = "start"    // /start; Value carries the deep-link argument
	InputBegin    InputKind = "begin"    // the "book a tour" entry button
	InputCancel   InputKind = "cancel"   // cancel button or /cancel
	InputClear    InputKind = "clear"    // /clear
	InputLocation InputKind = "location" // button payloads below
	InputDate     InputKind = "date"
	InputTime     InputKind = "time"
	InputPeople   InputKind = "people"
	InputConfirm  InputKind = "confirm"
)

// Input is one user action in transport-neutral form.
type Input struct {
	Kind  InputKind
	Value string
}

const (
	payloadSep     = ":"
	payloadConfirm = "confirm"
	payloadCancel  = "cancel"
)

// Payload renders the button payload for a selection of the given kind.
func Payload(kind InputKind, value string) string {
	switch kind {
	case InputConfirm:
		return payloadConfirm
	case InputCancel:
		return payloadCancel
	}
	return string(kind) + payloadSep + value
}

// ParseCallback decodes a button payload: "location:<name>", "date:<DD.MM.YYYY>",
// "time:<HH:MM>", "people:<n>", "confirm" or "cancel".
func ParseCallback(data string) (Input, error) {
	switch data {
	case payloadConfirm:
		return Input{Kind: InputConfirm}, nil
	case payloadCancel:
		return Input{Kind: InputCancel}, nil
	}
	kind, value, ok := strings.Cut(data, payloadSep)
	if !ok || value == "" {
		return Input{}, newValidationError(CodeInvalidPayload, "unrecognised button payload "+data)
	}
	switch k := InputKind(kind); k {
	case InputLocation, InputDate, InputTime, InputPeople:
		return Input{Kind: k, Value: value}, nil
	}
	return Input{}, newValidationError(CodeInvalidPayload, "unrecognised button payload "+data)
}

// ParseText classifies a plain text message. Commands are recognised by the transport.
func ParseText(text string) Input {
	text = strings.TrimSpace(text)
	if text == BeginLabel {
		return Input{Kind: InputBegin}
	}
	for _, label := range []string{CancelLabel, AbortLabel} {
		if text == label || text == strings.TrimSpace(strings.TrimPrefix(label, "❌")) {
			return Input{Kind: InputCancel}
		}
	}
	return Input{Kind: InputText, Value: text}
}
