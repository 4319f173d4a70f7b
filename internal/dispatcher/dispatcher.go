// Package dispatcher is the interaction state machine. It decides, per
// inbound event, which lookup to run, what to reply, and how the
// conversation's stored state advances. All collaborators are injected; the
// package holds no state of its own beyond what the store keeps per
// conversation.
package dispatcher

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github-statbot/internal/domain"
	"github-statbot/internal/format"
)

const defaultRepoLimit = 5

// LookupClient performs remote lookups. Outcomes come back by value; the
// dispatcher handles every branch of the outcome code.
type LookupClient interface {
	FetchProfile(ctx context.Context, username string) domain.LookupOutcome
	FetchRepositories(ctx context.Context, username string, limit int) domain.LookupOutcome
}

// StateStore keeps per-conversation state. Get returns the zero state for
// unknown conversations.
type StateStore interface {
	Get(id domain.ConversationID) domain.ConversationState
	Set(id domain.ConversationID, st domain.ConversationState)
	Clear(id domain.ConversationID)
}

// Dispatcher routes inbound events through validation, lookups and
// formatting, and owns every state transition.
type Dispatcher struct {
	client    LookupClient
	states    StateStore
	repoLimit int
}

// New creates a Dispatcher. repoLimit caps repository listings; values < 1
// fall back to the default of 5.
func New(client LookupClient, states StateStore, repoLimit int) (*Dispatcher, error) {
	if client == nil {
		return nil, errors.New("dispatcher: lookup client must not be nil")
	}
	if states == nil {
		return nil, errors.New("dispatcher: state store must not be nil")
	}
	if repoLimit < 1 {
		repoLimit = defaultRepoLimit
	}
	return &Dispatcher{client: client, states: states, repoLimit: repoLimit}, nil
}

// HandleEvent processes one inbound event for one conversation and returns
// the outbound commands the shell must deliver, in order. The caller must
// serialize events per conversation; distinct conversations may run
// concurrently.
func (d *Dispatcher) HandleEvent(ctx context.Context, id domain.ConversationID, ev domain.InboundEvent) []domain.OutboundCommand {
	switch ev.Kind {
	case domain.EventCommand:
		return d.handleCommand(ctx, id, ev)
	case domain.EventText:
		return d.handleText(id, ev.Body)
	case domain.EventChoicePressed:
		return d.handleChoice(ctx, id, ev.Choice)
	default:
		log.Warn().Str("kind", string(ev.Kind)).Msg("dropping event of unknown kind")
		return nil
	}
}

// handleText treats free text as an identifier submission. A new identifier
// always supersedes a pending choice; invalid input changes nothing.
func (d *Dispatcher) handleText(id domain.ConversationID, body string) []domain.OutboundCommand {
	identifier := strings.TrimSpace(body)
	if !domain.ValidUsername(identifier) {
		return []domain.OutboundCommand{domain.SendText(format.InvalidIdentifier())}
	}
	log.Info().Str("identifier", identifier).Msg("identifier received")
	d.states.Set(id, domain.ConversationState{LastIdentifier: identifier, AwaitingChoice: true})
	return []domain.OutboundCommand{
		domain.SendText(format.ChoicePrompt(identifier), menuFor(identifier)...),
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, id domain.ConversationID, ev domain.InboundEvent) []domain.OutboundCommand {
	switch ev.Name {
	case "start":
		d.states.Clear(id)
		return []domain.OutboundCommand{domain.SendText(format.Greeting())}
	case "help":
		// Stateless on purpose: help never alters the conversation.
		return []domain.OutboundCommand{domain.SendText(format.Help())}
	case "quit":
		d.states.Clear(id)
		return []domain.OutboundCommand{domain.SendText(format.QuitAck())}
	case "repos":
		return d.handleReposCommand(ctx, ev.Args)
	default:
		return []domain.OutboundCommand{domain.SendText(format.UnknownCommand(ev.Name))}
	}
}

// handleReposCommand is the direct, non-menu path: it shares the client and
// formatter with the menu flow but never touches conversation state.
func (d *Dispatcher) handleReposCommand(ctx context.Context, args []string) []domain.OutboundCommand {
	if len(args) == 0 {
		return []domain.OutboundCommand{domain.SendText(format.ReposUsage())}
	}
	identifier := strings.TrimSpace(args[0])
	if !domain.ValidUsername(identifier) {
		return []domain.OutboundCommand{domain.SendText(format.InvalidIdentifier())}
	}
	out := d.client.FetchRepositories(ctx, identifier, d.repoLimit)
	if out.Code != domain.OutcomeSuccess {
		return []domain.OutboundCommand{domain.SendText(format.Outcome(out, identifier))}
	}
	return []domain.OutboundCommand{domain.SendText(format.Repositories(identifier, out.Repositories))}
}

// handleChoice runs the lookup behind a pressed menu button. On success the
// menu is offered again for the same identifier; on failure the reply carries
// only the error text but the conversation stays in AwaitingChoice so the
// user can retry with another button. Only quit resets the state.
func (d *Dispatcher) handleChoice(ctx context.Context, id domain.ConversationID, choice domain.Choice) []domain.OutboundCommand {
	switch choice.Action {
	case domain.ChoiceQuit:
		d.states.Clear(id)
		return []domain.OutboundCommand{domain.EditLastMessage(format.QuitAck())}
	case domain.ChoiceProfile, domain.ChoiceRepositories:
	default:
		log.Warn().Str("action", string(choice.Action)).Msg("dropping choice with unknown action")
		return []domain.OutboundCommand{domain.SendText(format.UnknownAction())}
	}

	identifier := choice.Identifier
	var out domain.LookupOutcome
	if choice.Action == domain.ChoiceProfile {
		out = d.client.FetchProfile(ctx, identifier)
	} else {
		out = d.client.FetchRepositories(ctx, identifier, d.repoLimit)
	}

	if out.Code != domain.OutcomeSuccess {
		if out.Code == domain.OutcomeMalformedUpstream || out.Code == domain.OutcomeNetworkFailure {
			log.Error().Str("identifier", identifier).Str("code", string(out.Code)).
				Str("diagnostic", out.Diagnostic).Msg("lookup failed")
		}
		return []domain.OutboundCommand{domain.EditLastMessage(format.Outcome(out, identifier))}
	}

	var body string
	if choice.Action == domain.ChoiceProfile {
		body = format.Profile(*out.Profile)
	} else {
		body = format.Repositories(identifier, out.Repositories)
	}

	// Re-assert the stored identifier so the machine stays in AwaitingChoice
	// even if the process lost the entry since the menu was shown.
	d.states.Set(id, domain.ConversationState{LastIdentifier: identifier, AwaitingChoice: true})
	return []domain.OutboundCommand{
		domain.EditLastMessage(body),
		domain.SendText(format.ChoicePrompt(identifier), menuFor(identifier)...),
	}
}

// menuFor builds the fixed profile/repositories/quit menu for identifier.
func menuFor(identifier string) []domain.MenuChoice {
	return []domain.MenuChoice{
		{Label: "Profile 👤", Token: domain.Choice{Action: domain.ChoiceProfile, Identifier: identifier}.Token()},
		{Label: "Repositories 📦", Token: domain.Choice{Action: domain.ChoiceRepositories, Identifier: identifier}.Token()},
		{Label: "Quit ❌", Token: domain.Choice{Action: domain.ChoiceQuit}.Token()},
	}
}
