package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github-statbot/internal/domain"
)

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	return NewClient(token,
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
}

const octocatProfile = `{
	"login": "octocat",
	"name": "The Octocat",
	"bio": "Mascot",
	"location": "San Francisco",
	"public_repos": 8,
	"followers": 3938,
	"following": 9,
	"created_at": "2011-01-25T18:44:36Z",
	"html_url": "https://github.com/octocat"
}`

// ---------------------------------------------------------------------------
// FetchProfile
// ---------------------------------------------------------------------------

func TestFetchProfile_HappyPath(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(octocatProfile))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "gh-token").FetchProfile(context.Background(), "octocat")
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.Equal(t, "/users/octocat", gotPath)
	require.Equal(t, "token gh-token", gotAuth)

	require.NotNil(t, out.Profile)
	require.Equal(t, "octocat", out.Profile.Handle)
	require.Equal(t, "The Octocat", out.Profile.DisplayName)
	require.Equal(t, "Mascot", out.Profile.Bio)
	require.Equal(t, 8, out.Profile.PublicRepoCount)
	require.Equal(t, 3938, out.Profile.FollowerCount)
	require.Equal(t, 9, out.Profile.FollowingCount)
	require.Equal(t, "2011-01-25", out.Profile.JoinedDate)
	require.Equal(t, "https://github.com/octocat", out.Profile.ProfileURL)
}

func TestFetchProfile_NoTokenNoAuthorizationHeader(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(octocatProfile))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchProfile(context.Background(), "octocat")
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.False(t, sawAuth, "no token configured, no Authorization header expected")
}

func TestFetchProfile_MissingFieldsAreDefaulted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login":"ghost"}`))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchProfile(context.Background(), "ghost")
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.Equal(t, "not available", out.Profile.DisplayName)
	require.Equal(t, "not available", out.Profile.Bio)
	require.Equal(t, "not available", out.Profile.Location)
	require.Equal(t, "not available", out.Profile.JoinedDate)
	require.Zero(t, out.Profile.PublicRepoCount)
	require.Zero(t, out.Profile.FollowerCount)
	require.Zero(t, out.Profile.FollowingCount)
	require.Equal(t, "https://github.com/ghost", out.Profile.ProfileURL)
}

func TestFetchProfile_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   domain.OutcomeCode
	}{
		{http.StatusNotFound, domain.OutcomeNotFound},
		{http.StatusForbidden, domain.OutcomeRateLimited},
		{http.StatusInternalServerError, domain.OutcomeNetworkFailure},
		{http.StatusBadGateway, domain.OutcomeNetworkFailure},
		{http.StatusUnauthorized, domain.OutcomeNetworkFailure},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		out := newTestClient(t, srv, "").FetchProfile(context.Background(), "torvalds")
		srv.Close()
		require.Equal(t, tc.want, out.Code, "status=%d", tc.status)
		require.Nil(t, out.Profile)
		require.NotEmpty(t, out.Diagnostic)
	}
}

func TestFetchProfile_NonObjectPayloadIsMalformed(t *testing.T) {
	for _, body := range []string{`[1,2,3]`, `"octocat"`, `null`, `42`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		out := newTestClient(t, srv, "").FetchProfile(context.Background(), "octocat")
		srv.Close()
		require.Equal(t, domain.OutcomeMalformedUpstream, out.Code, "body=%s", body)
	}
}

func TestFetchProfile_UnparseableJSONIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"login": "oct`))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchProfile(context.Background(), "octocat")
	require.Equal(t, domain.OutcomeNetworkFailure, out.Code)
}

func TestFetchProfile_TimeoutIsNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	out := c.FetchProfile(context.Background(), "octocat")
	require.Equal(t, domain.OutcomeNetworkFailure, out.Code)
	require.Equal(t, "request timed out", out.Diagnostic)
}

func TestFetchProfile_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	out := newTestClient(t, srv, "").FetchProfile(context.Background(), "octocat")
	require.Equal(t, domain.OutcomeNetworkFailure, out.Code)
	require.Equal(t, "connection error", out.Diagnostic)
}

// ---------------------------------------------------------------------------
// FetchRepositories
// ---------------------------------------------------------------------------

func repoEntry(name string, stars int, desc string) string {
	return fmt.Sprintf(`{"name":%q,"stargazers_count":%d,"description":%q,"html_url":"https://github.com/u/%s"}`,
		name, stars, desc, name)
}

func TestFetchRepositories_HappyPath(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		body := "[" + repoEntry("linux", 170000, "Linux kernel source tree") + "," +
			repoEntry("subsurface", 2000, "") + "]"
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "torvalds", 5)
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.Equal(t, "per_page=5&sort=updated", gotQuery)
	require.Len(t, out.Repositories, 2)
	require.Equal(t, "linux", out.Repositories[0].Name)
	require.Equal(t, 170000, out.Repositories[0].StarCount)
	require.Equal(t, "subsurface", out.Repositories[1].Name)
}

func TestFetchRepositories_EmptyListIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "octocat", 5)
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.Empty(t, out.Repositories)
}

func TestFetchRepositories_NonObjectEntriesAreSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := "[" + repoEntry("first", 1, "") + `, 42, "stray", null, ` + repoEntry("second", 2, "") + "]"
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "octocat", 5)
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.Len(t, out.Repositories, 2)
	require.Equal(t, "first", out.Repositories[0].Name)
	require.Equal(t, "second", out.Repositories[1].Name)
}

func TestFetchRepositories_LimitCapsEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := make([]string, 8)
		for i := range entries {
			entries[i] = repoEntry(fmt.Sprintf("repo%d", i), i, "")
		}
		_, _ = w.Write([]byte("[" + strings.Join(entries, ",") + "]"))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "octocat", 5)
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	require.Len(t, out.Repositories, 5)
}

func TestFetchRepositories_DescriptionTruncated(t *testing.T) {
	long := strings.Repeat("d", 150)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[" + repoEntry("wordy", 1, long) + "]"))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "octocat", 5)
	require.Equal(t, domain.OutcomeSuccess, out.Code)
	desc := out.Repositories[0].Description
	require.Equal(t, strings.Repeat("d", 100)+"…", desc)
}

func TestFetchRepositories_NonArrayPayloadIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "octocat", 5)
	require.Equal(t, domain.OutcomeMalformedUpstream, out.Code)
}

func TestFetchRepositories_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   domain.OutcomeCode
	}{
		{http.StatusNotFound, domain.OutcomeNotFound},
		{http.StatusForbidden, domain.OutcomeRateLimited},
		{http.StatusServiceUnavailable, domain.OutcomeNetworkFailure},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		out := newTestClient(t, srv, "").FetchRepositories(context.Background(), "octocat", 5)
		srv.Close()
		require.Equal(t, tc.want, out.Code, "status=%d", tc.status)
	}
}
