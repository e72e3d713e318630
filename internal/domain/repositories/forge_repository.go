package repositories

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// ForgeRepository abstracts a code-review platform (GitHub, GitLab) hosting the
// downstream repositories. Every call is a single atomic API request.
type ForgeRepository interface {
	// Name returns the forge identifier (e.g. "github").
	Name() string

	// MatchesURL reports whether the clone URL is hosted on this forge.
	MatchesURL(cloneURL string) bool

	// DefaultBranch returns the default branch configured on the forge.
	DefaultBranch(ctx context.Context, repo entities.Repository) (string, error)

	ListOpenPullRequests(ctx context.Context, repo entities.Repository, label string) ([]entities.PullRequest, error)

	// GetPullRequest re-reads a pull request; Mergeable may still be nil while
	// the forge computes it.
	GetPullRequest(ctx context.Context, repo entities.Repository, number int64) (*entities.PullRequest, error)

	CreatePullRequest(
		ctx context.Context, repo entities.Repository, input entities.PullRequestInput,
	) (*entities.PullRequest, error)
	CommentOnPullRequest(ctx context.Context, repo entities.Repository, number int64, body string) error
	ListPullRequestComments(ctx context.Context, repo entities.Repository, number int64) ([]entities.Comment, error)
	SetPullRequestTitle(ctx context.Context, repo entities.Repository, number int64, title string) error
	SetPullRequestLabels(ctx context.Context, repo entities.Repository, number int64, labels []string) error

	// GetCommitStatus returns the combined CI state of a commit.
	GetCommitStatus(ctx context.Context, repo entities.Repository, sha string) (entities.CommitState, error)
	MergePullRequest(ctx context.Context, repo entities.Repository, number int64, method string) error

	ListOpenIssues(ctx context.Context, repo entities.Repository, label string) ([]entities.Issue, error)
	ListIssueComments(ctx context.Context, repo entities.Repository, number int64) ([]entities.Comment, error)
	CreateIssue(ctx context.Context, repo entities.Repository, input entities.IssueInput) (*entities.Issue, error)
	CommentOnIssue(ctx context.Context, repo entities.Repository, number int64, body string) error
	CloseIssue(ctx context.Context, repo entities.Repository, number int64) error
}
