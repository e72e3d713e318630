//go:build unit

package gitlab_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	glRepo "github.com/rios0rios0/updatebot/internal/infrastructure/repositories/gitlab"
)

var projectRepo = entities.NewRepositoryFromCloneURL("https://gitlab.com/group/project.git", "") //nolint:gochecknoglobals // shared fixture

// newTestForge serves the GitLab API from routes, keyed by "METHOD /decoded/path".
func newTestForge(t *testing.T, routes map[string]http.HandlerFunc) *glRepo.GitLabForgeRepository {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"404 Not Found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := gl.NewClient("glpat-test", gl.WithBaseURL(server.URL), gl.WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return glRepo.NewForgeRepositoryWithClient(client, "gitlab.com")
}

func TestGitLabForgeRepository(t *testing.T) {
	t.Parallel()

	t.Run("should target a self-hosted instance from the base URL", func(t *testing.T) {
		t.Parallel()

		// given, when
		forge, err := glRepo.NewForgeRepository(entities.ProviderSettings{
			Type: "gitlab", Token: "glpat-secret", BaseURL: "https://git.acme.dev",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "gitlab", forge.Name())
		assert.True(t, forge.MatchesURL("https://git.acme.dev/group/project.git"))
		assert.False(t, forge.MatchesURL(projectRepo.CloneURL))
	})

	t.Run("should send a rate limited request only once", func(t *testing.T) {
		t.Parallel()

		// given
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"429 Too Many Requests"}`))
		}))
		t.Cleanup(server.Close)
		forge, err := glRepo.NewForgeRepository(entities.ProviderSettings{
			Type: "gitlab", Token: "glpat-secret", BaseURL: server.URL,
		})
		require.NoError(t, err)

		// when
		_, err = forge.DefaultBranch(context.Background(), projectRepo)

		// then
		require.Error(t, err)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("should list open merge requests as pull requests", func(t *testing.T) {
		t.Parallel()

		// given
		var query map[string][]string
		forge := newTestForge(t, map[string]http.HandlerFunc{
			"GET /api/v4/projects/group/project/merge_requests": func(w http.ResponseWriter, r *http.Request) {
				query = r.URL.Query()
				_, _ = w.Write([]byte(`[{"iid":3,"title":"update nginx to 1.25.3",
					"web_url":"https://gitlab.com/group/project/-/merge_requests/3",
					"source_branch":"updatebot-3","target_branch":"main","sha":"abc",
					"labels":["updatebot"],"detailed_merge_status":"checking","state":"opened"}]`))
			},
		})

		// when
		prs, err := forge.ListOpenPullRequests(context.Background(), projectRepo, "updatebot")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"opened"}, query["state"])
		assert.Equal(t, []string{"updatebot"}, query["labels"])
		require.Len(t, prs, 1)
		pr := prs[0]
		assert.Equal(t, int64(3), pr.Number)
		assert.Equal(t, "updatebot-3", pr.HeadRef)
		assert.Equal(t, "main", pr.BaseRef)
		assert.Equal(t, "abc", pr.HeadSHA)
		assert.Nil(t, pr.Mergeable)
	})

	t.Run("should fold the job statuses of a commit", func(t *testing.T) {
		t.Parallel()

		// given
		forge := newTestForge(t, map[string]http.HandlerFunc{
			"GET /api/v4/projects/group/project/repository/commits/abc/statuses": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"status":"success"},{"status":"running"}]`))
			},
		})

		// when
		state, err := forge.GetCommitStatus(context.Background(), projectRepo, "abc")

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.CommitStatePending, state)
	})

	t.Run("should hide system notes from the comments", func(t *testing.T) {
		t.Parallel()

		// given
		forge := newTestForge(t, map[string]http.HandlerFunc{
			"GET /api/v4/projects/group/project/merge_requests/3/notes": func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`[{"id":1,"body":"added 1 commit","system":true},{"id":2,"body":"/lgtm"}]`))
			},
		})

		// when
		comments, err := forge.ListPullRequestComments(context.Background(), projectRepo, 3)

		// then
		require.NoError(t, err)
		assert.Equal(t, []entities.Comment{{ID: 2, Body: "/lgtm"}}, comments)
	})

	t.Run("should squash when merging with the squash method", func(t *testing.T) {
		t.Parallel()

		// given
		var received map[string]any
		forge := newTestForge(t, map[string]http.HandlerFunc{
			"PUT /api/v4/projects/group/project/merge_requests/3/merge": func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&received)
				_, _ = w.Write([]byte(`{"iid":3,"state":"merged"}`))
			},
		})

		// when
		err := forge.MergePullRequest(context.Background(), projectRepo, 3, "squash")

		// then
		require.NoError(t, err)
		assert.Equal(t, true, received["squash"])
		assert.Equal(t, true, received["should_remove_source_branch"])
	})

	t.Run("should close an issue through its state event", func(t *testing.T) {
		t.Parallel()

		// given
		var received map[string]any
		forge := newTestForge(t, map[string]http.HandlerFunc{
			"PUT /api/v4/projects/group/project/issues/5": func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewDecoder(r.Body).Decode(&received)
				_, _ = w.Write([]byte(`{"iid":5,"state":"closed"}`))
			},
		})

		// when
		err := forge.CloseIssue(context.Background(), projectRepo, 5)

		// then
		require.NoError(t, err)
		assert.Equal(t, "close", received["state_event"])
	})
}
