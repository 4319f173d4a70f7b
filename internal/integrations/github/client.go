// Package github is the remote data client for the GitHub REST API. Every
// lookup returns a domain.LookupOutcome by value; HTTP status codes, transport
// failures and payload-shape problems are all folded into the outcome, so no
// error ever escapes to a call site.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github-statbot/internal/domain"
)

const (
	defaultBaseURL = "https://api.github.com"

	// fieldPlaceholder substitutes profile fields the API omitted.
	fieldPlaceholder = "not available"

	// maxDescriptionLen bounds repository descriptions in replies.
	maxDescriptionLen = 100
)

// Client issues profile and repository lookups against the GitHub REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. token may be empty; when set it is sent as an
// authorization header to raise the API rate-limit ceiling.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// profilePayload is the subset of the /users/{username} response the bot
// cares about. Pointer fields distinguish "absent" from zero values.
type profilePayload struct {
	Login       *string `json:"login"`
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	PublicRepos *int    `json:"public_repos"`
	Followers   *int    `json:"followers"`
	Following   *int    `json:"following"`
	CreatedAt   *string `json:"created_at"`
	HTMLURL     *string `json:"html_url"`
}

// repoPayload is the subset of one /users/{username}/repos entry.
type repoPayload struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	StargazersCount *int    `json:"stargazers_count"`
	HTMLURL         *string `json:"html_url"`
}

// FetchProfile looks up one user profile. The caller must have validated
// username already; the client does not re-validate.
func (c *Client) FetchProfile(ctx context.Context, username string) domain.LookupOutcome {
	reqURL := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(username))

	body, failure, ok := c.get(ctx, reqURL)
	if !ok {
		return failure
	}
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return domain.FailureOutcome(domain.OutcomeNetworkFailure, "profile response is not parseable JSON")
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.FailureOutcome(domain.OutcomeMalformedUpstream, "profile payload is not a JSON object")
	}
	var payload profilePayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return domain.FailureOutcome(domain.OutcomeMalformedUpstream, "profile payload has unexpected field types")
	}

	return domain.ProfileOutcome(buildProfile(username, payload))
}

// FetchRepositories looks up at most limit repositories of username, most
// recently updated first.
func (c *Client) FetchRepositories(ctx context.Context, username string, limit int) domain.LookupOutcome {
	reqURL := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=updated", c.baseURL, url.PathEscape(username), limit)

	body, failure, ok := c.get(ctx, reqURL)
	if !ok {
		return failure
	}
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return domain.FailureOutcome(domain.OutcomeNetworkFailure, "repository response is not parseable JSON")
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return domain.FailureOutcome(domain.OutcomeMalformedUpstream, "repository payload is not a JSON array")
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return domain.FailureOutcome(domain.OutcomeMalformedUpstream, "repository payload is not a JSON array")
	}

	repos := make([]domain.RepositorySummary, 0, len(entries))
	for i, entry := range entries {
		trimmedEntry := bytes.TrimSpace(entry)
		if len(trimmedEntry) == 0 || trimmedEntry[0] != '{' {
			// A stray non-object entry (null included) is skipped, not fatal
			// for the batch.
			log.Warn().Str("username", username).Int("index", i).Msg("skipping non-object repository entry")
			continue
		}
		var payload repoPayload
		if err := json.Unmarshal(trimmedEntry, &payload); err != nil {
			log.Warn().Str("username", username).Int("index", i).Msg("skipping non-object repository entry")
			continue
		}
		repos = append(repos, buildRepository(payload))
		if len(repos) == limit {
			break
		}
	}
	return domain.RepositoriesOutcome(repos)
}

// get performs one GET and maps the transport-level result. ok is true only
// for a 2xx response, in which case body holds the payload; otherwise failure
// carries the mapped outcome.
func (c *Client) get(ctx context.Context, reqURL string) (body []byte, failure domain.LookupOutcome, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, domain.FailureOutcome(domain.OutcomeNetworkFailure, "could not build request"), false
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", reqURL).Msg("github request failed")
		return nil, domain.FailureOutcome(domain.OutcomeNetworkFailure, transportDiagnostic(err)), false
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode == http.StatusNotFound:
		return nil, domain.FailureOutcome(domain.OutcomeNotFound, "user not found"), false
	case res.StatusCode == http.StatusForbidden:
		// GitHub reports quota exhaustion with 403, not 429.
		return nil, domain.FailureOutcome(domain.OutcomeRateLimited, "rate limit exceeded"), false
	default:
		return nil, domain.FailureOutcome(domain.OutcomeNetworkFailure,
			fmt.Sprintf("unexpected status %d", res.StatusCode)), false
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, domain.FailureOutcome(domain.OutcomeNetworkFailure, "could not read response body"), false
	}
	return buf, domain.LookupOutcome{}, true
}

// transportDiagnostic returns a stable human-readable description of a
// transport error without leaking wrapped error internals.
func transportDiagnostic(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return "request timed out"
	}
	return "connection error"
}

func buildProfile(username string, p profilePayload) *domain.ProfileSummary {
	return &domain.ProfileSummary{
		Handle:          strOr(p.Login, username),
		DisplayName:     strOr(p.Name, fieldPlaceholder),
		Bio:             strOr(p.Bio, fieldPlaceholder),
		Location:        strOr(p.Location, fieldPlaceholder),
		PublicRepoCount: intOr(p.PublicRepos),
		FollowerCount:   intOr(p.Followers),
		FollowingCount:  intOr(p.Following),
		JoinedDate:      joinedDate(p.CreatedAt),
		ProfileURL:      strOr(p.HTMLURL, "https://github.com/"+username),
	}
}

func buildRepository(p repoPayload) domain.RepositorySummary {
	return domain.RepositorySummary{
		Name:        strOr(p.Name, fieldPlaceholder),
		Description: truncate(strOr(p.Description, ""), maxDescriptionLen),
		StarCount:   intOr(p.StargazersCount),
		URL:         strOr(p.HTMLURL, ""),
	}
}

func strOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

func intOr(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// joinedDate reduces an RFC 3339 timestamp to its date part.
func joinedDate(createdAt *string) string {
	if createdAt == nil || *createdAt == "" {
		return fieldPlaceholder
	}
	date, _, _ := strings.Cut(*createdAt, "T")
	return date
}

// truncate caps s at max runes, appending an ellipsis when it was longer.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
