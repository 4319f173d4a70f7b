package domain

import (
	"fmt"
	"strings"
)

// ConversationID is the opaque per-chat key used for state isolation. The
// core never generates one; the transport shell derives it from the chat.
type ConversationID string

// ConversationState is everything the bot remembers about one conversation:
// the last identifier it was given and whether a menu choice is pending.
// The zero value is the initial (Idle) state.
type ConversationState struct {
	LastIdentifier string
	AwaitingChoice bool
}

// InboundEvent is one unit of work delivered by the transport shell. Exactly
// one of the shape-specific fields is meaningful, selected by Kind.
type InboundEvent struct {
	Kind   EventKind
	Name   string // command name, without the leading slash
	Args   []string
	Body   string // free-form message text
	Choice Choice // decoded menu choice
}

type EventKind string

const (
	EventCommand       EventKind = "command"
	EventText          EventKind = "text"
	EventChoicePressed EventKind = "choice"
)

// CommandEvent builds an inbound command event.
func CommandEvent(name string, args ...string) InboundEvent {
	return InboundEvent{Kind: EventCommand, Name: name, Args: args}
}

// TextEvent builds an inbound free-text event.
func TextEvent(body string) InboundEvent {
	return InboundEvent{Kind: EventText, Body: body}
}

// ChoiceEvent builds an inbound menu-choice event.
func ChoiceEvent(c Choice) InboundEvent {
	return InboundEvent{Kind: EventChoicePressed, Choice: c}
}

// ChoiceAction names the follow-up action behind a menu button.
type ChoiceAction string

const (
	ChoiceProfile      ChoiceAction = "profile"
	ChoiceRepositories ChoiceAction = "repos"
	ChoiceQuit         ChoiceAction = "quit"
)

// Choice is a menu token decoded once at the boundary, so the dispatcher
// never splits strings itself. Identifier is empty for ChoiceQuit.
type Choice struct {
	Action     ChoiceAction
	Identifier string
}

// Token renders the fixed wire vocabulary: "profile:<id>", "repos:<id>",
// "quit".
func (c Choice) Token() string {
	if c.Action == ChoiceQuit {
		return string(ChoiceQuit)
	}
	return fmt.Sprintf("%s:%s", c.Action, c.Identifier)
}

// DecodeChoice parses a callback token back into a Choice. Tokens outside the
// fixed vocabulary, or carrying an invalid identifier, are rejected.
func DecodeChoice(token string) (Choice, error) {
	if token == string(ChoiceQuit) {
		return Choice{Action: ChoiceQuit}, nil
	}
	action, id, ok := strings.Cut(token, ":")
	if !ok {
		return Choice{}, fmt.Errorf("domain: unrecognized choice token %q", token)
	}
	switch ChoiceAction(action) {
	case ChoiceProfile, ChoiceRepositories:
	default:
		return Choice{}, fmt.Errorf("domain: unrecognized choice action %q", action)
	}
	if !ValidUsername(id) {
		return Choice{}, fmt.Errorf("domain: choice token carries invalid identifier %q", id)
	}
	return Choice{Action: ChoiceAction(action), Identifier: id}, nil
}

// MenuChoice is one (label, token) pair of an outbound choice menu.
type MenuChoice struct {
	Label string
	Token string
}

// OutboundCommand instructs the transport shell to deliver a reply. Edit
// selects "edit the conversation's last bot message" instead of sending a
// new one; Menu, when non-empty, is rendered as an ordered button row set.
type OutboundCommand struct {
	Edit bool
	Body string
	Menu []MenuChoice
}

// SendText builds a plain outbound message, optionally carrying a menu.
func SendText(body string, menu ...MenuChoice) OutboundCommand {
	return OutboundCommand{Body: body, Menu: menu}
}

// EditLastMessage builds an outbound edit of the previous bot message.
func EditLastMessage(body string, menu ...MenuChoice) OutboundCommand {
	return OutboundCommand{Edit: true, Body: body, Menu: menu}
}
