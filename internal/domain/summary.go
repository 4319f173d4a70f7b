package domain

// ProfileSummary is a per-request snapshot of a GitHub user profile. It is
// never cached; the client constructs a fresh value for every lookup.
type ProfileSummary struct {
	Handle          string
	DisplayName     string
	Bio             string
	Location        string
	PublicRepoCount int
	FollowerCount   int
	FollowingCount  int
	JoinedDate      string
	ProfileURL      string
}

// RepositorySummary is one entry of a user's repository listing, ordered
// most-recently-updated first as returned by the API.
type RepositorySummary struct {
	Name        string
	Description string
	StarCount   int
	URL         string
}
