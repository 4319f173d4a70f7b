package domain

// OutcomeCode tags the result of a remote lookup. It is the only channel
// through which the GitHub client reports to the dispatcher and formatter;
// no partial or ambiguous states escape it.
type OutcomeCode string

const (
	OutcomeSuccess           OutcomeCode = "SUCCESS"
	OutcomeNotFound          OutcomeCode = "NOT_FOUND"
	OutcomeRateLimited       OutcomeCode = "RATE_LIMITED"
	OutcomeMalformedUpstream OutcomeCode = "MALFORMED_UPSTREAM"
	OutcomeNetworkFailure    OutcomeCode = "NETWORK_FAILURE"
)

// LookupOutcome is the tagged result of one remote call, returned by value so
// every call site handles all branches explicitly. Exactly one of Profile or
// Repositories is set when Code is OutcomeSuccess, depending on the operation.
// Diagnostic carries a human-readable description for the failure codes; it is
// meant for logs, never for user-facing text.
type LookupOutcome struct {
	Code         OutcomeCode
	Profile      *ProfileSummary
	Repositories []RepositorySummary
	Diagnostic   string
}

// ProfileOutcome wraps a fetched profile as a successful outcome.
func ProfileOutcome(p *ProfileSummary) LookupOutcome {
	return LookupOutcome{Code: OutcomeSuccess, Profile: p}
}

// RepositoriesOutcome wraps a fetched repository listing as a successful
// outcome. An empty listing is still a success.
func RepositoriesOutcome(repos []RepositorySummary) LookupOutcome {
	return LookupOutcome{Code: OutcomeSuccess, Repositories: repos}
}

// FailureOutcome builds a non-success outcome with a diagnostic.
func FailureOutcome(code OutcomeCode, diagnostic string) LookupOutcome {
	return LookupOutcome{Code: code, Diagnostic: diagnostic}
}
