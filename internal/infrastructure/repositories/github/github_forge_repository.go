package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

const (
	forgeName = "github"
	perPage   = 100
)

// GitHubForgeRepository implements repositories.ForgeRepository for GitHub.
type GitHubForgeRepository struct {
	host   string
	client *gh.Client
}

// NewForgeRepository creates a GitHub forge from its settings. An empty base URL
// targets github.com, anything else a GitHub Enterprise instance.
func NewForgeRepository(settings entities.ProviderSettings) (repositories.ForgeRepository, error) {
	client := gh.NewClient(nil).WithAuthToken(settings.Token)
	host := "github.com"

	if settings.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(settings.BaseURL, settings.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure GitHub Enterprise URL %q: %w", settings.BaseURL, err)
		}
		parsed, err := url.Parse(settings.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitHub base URL %q: %w", settings.BaseURL, err)
		}
		host = parsed.Host
	}
	return NewForgeRepositoryWithClient(client, host), nil
}

// NewForgeRepositoryWithClient wraps an already configured client.
func NewForgeRepositoryWithClient(client *gh.Client, host string) *GitHubForgeRepository {
	return &GitHubForgeRepository{host: host, client: client}
}

func (p *GitHubForgeRepository) Name() string { return forgeName }

func (p *GitHubForgeRepository) MatchesURL(cloneURL string) bool {
	return strings.Contains(cloneURL, p.host)
}

func (p *GitHubForgeRepository) DefaultBranch(ctx context.Context, repo entities.Repository) (string, error) {
	ghRepo, _, err := p.client.Repositories.Get(ctx, repo.Owner, repo.Name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s: %w", repo.FullName(), err)
	}
	return ghRepo.GetDefaultBranch(), nil
}

func (p *GitHubForgeRepository) ListOpenPullRequests(
	ctx context.Context,
	repo entities.Repository,
	label string,
) ([]entities.PullRequest, error) {
	var all []entities.PullRequest
	opts := &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		prs, resp, err := p.client.PullRequests.List(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests: %w", err)
		}
		for _, pr := range prs {
			converted := toPullRequest(pr)
			if label == "" || hasLabel(converted.Labels, label) {
				all = append(all, converted)
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitHubForgeRepository) GetPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) (*entities.PullRequest, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, repo.Owner, repo.Name, int(number))
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request #%d: %w", number, err)
	}
	converted := toPullRequest(pr)
	return &converted, nil
}

func (p *GitHubForgeRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	sourceBranch := strings.TrimPrefix(input.SourceBranch, "refs/heads/")
	targetBranch := strings.TrimPrefix(input.TargetBranch, "refs/heads/")

	maintainerCanModify := true
	pr, _, err := p.client.PullRequests.Create(
		ctx, repo.Owner, repo.Name,
		&gh.NewPullRequest{
			Title:               &input.Title,
			Head:                &sourceBranch,
			Base:                &targetBranch,
			Body:                &input.Body,
			MaintainerCanModify: &maintainerCanModify,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	converted := toPullRequest(pr)
	return &converted, nil
}

// CommentOnPullRequest posts on the conversation tab, which GitHub models as an issue.
func (p *GitHubForgeRepository) CommentOnPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	body string,
) error {
	return p.CommentOnIssue(ctx, repo, number, body)
}

func (p *GitHubForgeRepository) ListPullRequestComments(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) ([]entities.Comment, error) {
	return p.ListIssueComments(ctx, repo, number)
}

func (p *GitHubForgeRepository) SetPullRequestTitle(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	title string,
) error {
	_, _, err := p.client.PullRequests.Edit(ctx, repo.Owner, repo.Name, int(number), &gh.PullRequest{Title: &title})
	if err != nil {
		return fmt.Errorf("failed to edit pull request #%d: %w", number, err)
	}
	return nil
}

func (p *GitHubForgeRepository) SetPullRequestLabels(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	labels []string,
) error {
	_, _, err := p.client.Issues.ReplaceLabelsForIssue(ctx, repo.Owner, repo.Name, int(number), labels)
	if err != nil {
		return fmt.Errorf("failed to label pull request #%d: %w", number, err)
	}
	return nil
}

func (p *GitHubForgeRepository) GetCommitStatus(
	ctx context.Context,
	repo entities.Repository,
	sha string,
) (entities.CommitState, error) {
	status, _, err := p.client.Repositories.GetCombinedStatus(ctx, repo.Owner, repo.Name, sha, nil)
	if err != nil {
		return entities.CommitStateUnknown, fmt.Errorf("failed to get status of %s: %w", sha, err)
	}
	return toCommitState(status.GetState()), nil
}

func (p *GitHubForgeRepository) MergePullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	method string,
) error {
	result, _, err := p.client.PullRequests.Merge(
		ctx, repo.Owner, repo.Name, int(number), "",
		&gh.PullRequestOptions{MergeMethod: method},
	)
	if err != nil {
		return fmt.Errorf("failed to merge pull request #%d: %w", number, err)
	}
	if !result.GetMerged() {
		return fmt.Errorf("pull request #%d was not merged: %s", number, result.GetMessage())
	}
	return nil
}

func (p *GitHubForgeRepository) ListOpenIssues(
	ctx context.Context,
	repo entities.Repository,
	label string,
) ([]entities.Issue, error) {
	var all []entities.Issue
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	if label != "" {
		opts.Labels = []string{label}
	}

	for {
		issues, resp, err := p.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			all = append(all, toIssue(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitHubForgeRepository) ListIssueComments(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) ([]entities.Comment, error) {
	var all []entities.Comment
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}

	for {
		comments, resp, err := p.client.Issues.ListComments(ctx, repo.Owner, repo.Name, int(number), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments of #%d: %w", number, err)
		}
		for _, c := range comments {
			all = append(all, entities.Comment{ID: c.GetID(), Body: c.GetBody()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitHubForgeRepository) CreateIssue(
	ctx context.Context,
	repo entities.Repository,
	input entities.IssueInput,
) (*entities.Issue, error) {
	request := &gh.IssueRequest{Title: &input.Title, Body: &input.Body}
	if len(input.Labels) > 0 {
		labels := input.Labels
		request.Labels = &labels
	}

	issue, _, err := p.client.Issues.Create(ctx, repo.Owner, repo.Name, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	converted := toIssue(issue)
	return &converted, nil
}

func (p *GitHubForgeRepository) CommentOnIssue(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	body string,
) error {
	_, _, err := p.client.Issues.CreateComment(ctx, repo.Owner, repo.Name, int(number), &gh.IssueComment{Body: &body})
	if err != nil {
		return fmt.Errorf("failed to comment on #%d: %w", number, err)
	}
	return nil
}

func (p *GitHubForgeRepository) CloseIssue(ctx context.Context, repo entities.Repository, number int64) error {
	state := "closed"
	_, _, err := p.client.Issues.Edit(ctx, repo.Owner, repo.Name, int(number), &gh.IssueRequest{State: &state})
	if err != nil {
		return fmt.Errorf("failed to close issue #%d: %w", number, err)
	}
	return nil
}

func toPullRequest(pr *gh.PullRequest) entities.PullRequest {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}
	return entities.PullRequest{
		Number:    int64(pr.GetNumber()),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		URL:       pr.GetHTMLURL(),
		HeadRef:   pr.GetHead().GetRef(),
		HeadSHA:   pr.GetHead().GetSHA(),
		BaseRef:   pr.GetBase().GetRef(),
		Labels:    labels,
		Mergeable: pr.Mergeable,
		State:     pr.GetState(),
	}
}

func toIssue(issue *gh.Issue) entities.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return entities.Issue{
		Number: int64(issue.GetNumber()),
		Title:  issue.GetTitle(),
		Body:   issue.GetBody(),
		URL:    issue.GetHTMLURL(),
		Labels: labels,
	}
}

func toCommitState(state string) entities.CommitState {
	switch state {
	case "success":
		return entities.CommitStateSuccess
	case "pending":
		return entities.CommitStatePending
	case "failure":
		return entities.CommitStateFailure
	case "error":
		return entities.CommitStateError
	default:
		return entities.CommitStateUnknown
	}
}

func hasLabel(labels []string, label string) bool {
	for _, l := range labels {
		if strings.EqualFold(l, label) {
			return true
		}
	}
	return false
}
