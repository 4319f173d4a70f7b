// Package format renders lookup results and dispatcher replies as plain
// message text. Every function is a pure, deterministic function of its
// arguments; failure text is keyed only by the outcome code and identifier,
// never by upstream error internals.
package format

import (
	"fmt"
	"strings"

	"github-statbot/internal/domain"
)

// Profile renders a profile summary, one field per line.
func Profile(p domain.ProfileSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 GitHub user: %s\n", p.Handle)
	fmt.Fprintf(&b, "Name: %s\n", p.DisplayName)
	fmt.Fprintf(&b, "Bio: %s\n", p.Bio)
	fmt.Fprintf(&b, "Location: %s\n", p.Location)
	fmt.Fprintf(&b, "Public repos: %d\n", p.PublicRepoCount)
	fmt.Fprintf(&b, "Followers: %d\n", p.FollowerCount)
	fmt.Fprintf(&b, "Following: %d\n", p.FollowingCount)
	fmt.Fprintf(&b, "Joined: %s\n", p.JoinedDate)
	fmt.Fprintf(&b, "Profile: %s", p.ProfileURL)
	return b.String()
}

// Repositories renders a repository listing for handle. An empty listing is a
// successful lookup and gets its own message, not an error.
func Repositories(handle string, repos []domain.RepositorySummary) string {
	if len(repos) == 0 {
		return fmt.Sprintf("@%s has no public repositories.", handle)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recently updated repositories of @%s:\n", handle)
	for _, r := range repos {
		fmt.Fprintf(&b, "\n🔸 %s — ⭐ %d\n%s", r.Name, r.StarCount, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&b, "\n%s", r.Description)
		}
	}
	return b.String()
}

// Outcome renders the non-success branches of a lookup. A success outcome is
// formatted by Profile or Repositories instead; if one slips through it is
// treated as the generic failure so the user never sees an empty reply.
func Outcome(out domain.LookupOutcome, identifier string) string {
	switch out.Code {
	case domain.OutcomeNotFound:
		return fmt.Sprintf("❌ GitHub user @%s does not exist.", identifier)
	case domain.OutcomeRateLimited:
		return "⏳ GitHub is rate-limiting requests right now. Please try again later."
	default:
		return fmt.Sprintf("❌ Something unexpected went wrong while looking up @%s. Please try again.", identifier)
	}
}

// Greeting is the /start reply.
func Greeting() string {
	return "👋 Welcome to GitHub StatBot!\n\n" +
		"Send me a GitHub username and pick what you want to see.\n" +
		"Commands:\n" +
		"/help - how to use the bot\n" +
		"/repos <username> - list a user's repositories\n" +
		"/quit - end the interaction"
}

// Help is the /help reply.
func Help() string {
	return "To use this bot:\n" +
		"1. Send a GitHub username (e.g. torvalds).\n" +
		"2. Choose profile or repositories from the menu.\n" +
		"Commands:\n" +
		"/repos <username> - list repositories directly\n" +
		"/quit - end the interaction"
}

// QuitAck acknowledges the end of an interaction.
func QuitAck() string {
	return "Thanks for using GitHub StatBot! Bye 👋"
}

// InvalidIdentifier is the reply to input failing username validation.
func InvalidIdentifier() string {
	return "❌ That does not look like a valid GitHub username. " +
		"Usernames are 1-39 letters, digits or hyphens, and cannot start or end with a hyphen."
}

// ChoicePrompt asks which lookup to run for identifier.
func ChoicePrompt(identifier string) string {
	return fmt.Sprintf("What would you like to see for @%s?", identifier)
}

// ReposUsage is the hint for /repos without an argument.
func ReposUsage() string {
	return "Usage: /repos <github_username>"
}

// UnknownAction is the reply to a button press whose token could not be
// decoded (e.g. a stale keyboard from an older bot version).
func UnknownAction() string {
	return "❌ Sorry, I could not process that action. Please send the username again."
}

// UnknownCommand is the reply to a command outside the bot's surface.
func UnknownCommand(name string) string {
	return fmt.Sprintf("Unknown command /%s. Send /help to see what I can do.", name)
}
