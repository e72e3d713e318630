package repositories

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	gh "github.com/google/go-github/v66/github"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	domainRepos "github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/retry"
)

//nolint:gochecknoglobals // metrics are registered once per process
var forgeCalls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "updatebot_forge_calls_total",
		Help: "Total number of forge API operations by outcome",
	},
	[]string{"forge", "operation", "outcome"},
)

// RetryingForgeRepository decorates a forge so every call waits on the shared
// rate budget, is retried on transient failures and is counted.
type RetryingForgeRepository struct {
	forge   domainRepos.ForgeRepository
	limiter *rate.Limiter
	policy  retry.Policy
}

// NewRetryingForgeRepository wraps forge. The limiter is shared between every
// forge of the process.
func NewRetryingForgeRepository(
	forge domainRepos.ForgeRepository,
	limiter *rate.Limiter,
	policy retry.Policy,
) *RetryingForgeRepository {
	policy.Retryable = IsTransientForgeError
	return &RetryingForgeRepository{forge: forge, limiter: limiter, policy: policy}
}

// IsTransientForgeError reports whether a forge call may succeed when repeated.
// Only transport failures that never got an HTTP response are retried: any
// answer from the API is final, as are rate limits and context errors.
func IsTransientForgeError(err error) bool {
	if err == nil || retry.IsContextError(err) {
		return false
	}

	var rateLimit *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	var ghErr *gh.ErrorResponse
	var glErr *gl.ErrorResponse
	if errors.As(err, &rateLimit) || errors.As(err, &abuse) || errors.As(err, &ghErr) || errors.As(err, &glErr) {
		return false
	}

	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

func call[T any](
	ctx context.Context,
	it *RetryingForgeRepository,
	operation string,
	fn func(context.Context) (T, error),
) (T, error) {
	result, err := retry.Do(ctx, it.policy, it.forge.Name()+" "+operation, func(ctx context.Context) (T, error) {
		if waitErr := it.limiter.Wait(ctx); waitErr != nil {
			var zero T
			return zero, waitErr
		}
		return fn(ctx)
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	forgeCalls.WithLabelValues(it.forge.Name(), operation, outcome).Inc()
	return result, err
}

func callErr(
	ctx context.Context,
	it *RetryingForgeRepository,
	operation string,
	fn func(context.Context) error,
) error {
	_, err := call(ctx, it, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (it *RetryingForgeRepository) Name() string { return it.forge.Name() }

func (it *RetryingForgeRepository) MatchesURL(cloneURL string) bool {
	return it.forge.MatchesURL(cloneURL)
}

func (it *RetryingForgeRepository) DefaultBranch(ctx context.Context, repo entities.Repository) (string, error) {
	return call(ctx, it, "default_branch", func(ctx context.Context) (string, error) {
		return it.forge.DefaultBranch(ctx, repo)
	})
}

func (it *RetryingForgeRepository) ListOpenPullRequests(
	ctx context.Context,
	repo entities.Repository,
	label string,
) ([]entities.PullRequest, error) {
	return call(ctx, it, "list_pull_requests", func(ctx context.Context) ([]entities.PullRequest, error) {
		return it.forge.ListOpenPullRequests(ctx, repo, label)
	})
}

func (it *RetryingForgeRepository) GetPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) (*entities.PullRequest, error) {
	return call(ctx, it, "get_pull_request", func(ctx context.Context) (*entities.PullRequest, error) {
		return it.forge.GetPullRequest(ctx, repo, number)
	})
}

func (it *RetryingForgeRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	return call(ctx, it, "create_pull_request", func(ctx context.Context) (*entities.PullRequest, error) {
		return it.forge.CreatePullRequest(ctx, repo, input)
	})
}

func (it *RetryingForgeRepository) CommentOnPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	body string,
) error {
	return callErr(ctx, it, "comment_pull_request", func(ctx context.Context) error {
		return it.forge.CommentOnPullRequest(ctx, repo, number, body)
	})
}

func (it *RetryingForgeRepository) ListPullRequestComments(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) ([]entities.Comment, error) {
	return call(ctx, it, "list_pull_request_comments", func(ctx context.Context) ([]entities.Comment, error) {
		return it.forge.ListPullRequestComments(ctx, repo, number)
	})
}

func (it *RetryingForgeRepository) SetPullRequestTitle(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	title string,
) error {
	return callErr(ctx, it, "set_pull_request_title", func(ctx context.Context) error {
		return it.forge.SetPullRequestTitle(ctx, repo, number, title)
	})
}

func (it *RetryingForgeRepository) SetPullRequestLabels(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	labels []string,
) error {
	return callErr(ctx, it, "set_pull_request_labels", func(ctx context.Context) error {
		return it.forge.SetPullRequestLabels(ctx, repo, number, labels)
	})
}

func (it *RetryingForgeRepository) GetCommitStatus(
	ctx context.Context,
	repo entities.Repository,
	sha string,
) (entities.CommitState, error) {
	return call(ctx, it, "get_commit_status", func(ctx context.Context) (entities.CommitState, error) {
		return it.forge.GetCommitStatus(ctx, repo, sha)
	})
}

func (it *RetryingForgeRepository) MergePullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	method string,
) error {
	return callErr(ctx, it, "merge_pull_request", func(ctx context.Context) error {
		return it.forge.MergePullRequest(ctx, repo, number, method)
	})
}

func (it *RetryingForgeRepository) ListOpenIssues(
	ctx context.Context,
	repo entities.Repository,
	label string,
) ([]entities.Issue, error) {
	return call(ctx, it, "list_issues", func(ctx context.Context) ([]entities.Issue, error) {
		return it.forge.ListOpenIssues(ctx, repo, label)
	})
}

func (it *RetryingForgeRepository) ListIssueComments(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) ([]entities.Comment, error) {
	return call(ctx, it, "list_issue_comments", func(ctx context.Context) ([]entities.Comment, error) {
		return it.forge.ListIssueComments(ctx, repo, number)
	})
}

func (it *RetryingForgeRepository) CreateIssue(
	ctx context.Context,
	repo entities.Repository,
	input entities.IssueInput,
) (*entities.Issue, error) {
	return call(ctx, it, "create_issue", func(ctx context.Context) (*entities.Issue, error) {
		return it.forge.CreateIssue(ctx, repo, input)
	})
}

func (it *RetryingForgeRepository) CommentOnIssue(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	body string,
) error {
	return callErr(ctx, it, "comment_issue", func(ctx context.Context) error {
		return it.forge.CommentOnIssue(ctx, repo, number, body)
	})
}

func (it *RetryingForgeRepository) CloseIssue(ctx context.Context, repo entities.Repository, number int64) error {
	return callErr(ctx, it, "close_issue", func(ctx context.Context) error {
		return it.forge.CloseIssue(ctx, repo, number)
	})
}
