package questionnaire

import (
	"context"
	"strings"
)

// EventKind distinguishes the inbound shapes a transport can deliver.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventText    EventKind = "text"
	EventChoice  EventKind = "choice"
)

const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandStop   = "stop"
	CommandCancel = "cancel"

	// ChoiceStartSelection is the value behind the greeting button.
	ChoiceStartSelection = "start_selection"
)

// Event is one user input delivered by a transport.
type Event struct {
	UserID string    `json:"userId"`
	ChatID string    `json:"chatId,omitempty"`
	Kind   EventKind `json:"kind"`
	Value  string    `json:"value"`
}

// Command normalizes a command value: lower case, no leading slash or bang.
func (e Event) Command() string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(e.Value), "/!"))
}

// Choice is one button offered to the user.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Reply is an outbound message, optionally with buttons.
type Reply struct {
	Text    string   `json:"text"`
	Choices []Choice `json:"choices,omitempty"`
}

// Responder delivers replies back through the transport an event arrived on.
type Responder interface {
	Send(ctx context.Context, reply Reply) (messageID string, err error)
	Edit(ctx context.Context, messageID, text string) error
}
