package gitlab

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

const (
	forgeName = "gitlab"
	perPage   = 100
)

// GitLabForgeRepository implements repositories.ForgeRepository for GitLab.
// Pull requests map onto merge requests and their numbers onto IIDs.
type GitLabForgeRepository struct {
	host   string
	client *gl.Client
}

// NewForgeRepository creates a GitLab forge from its settings. An empty base URL
// targets gitlab.com.
func NewForgeRepository(settings entities.ProviderSettings) (repositories.ForgeRepository, error) {
	host := "gitlab.com"
	// retries are owned by the forge decorator
	options := []gl.ClientOptionFunc{gl.WithoutRetries()}

	if settings.BaseURL != "" {
		parsed, err := url.Parse(settings.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitLab base URL %q: %w", settings.BaseURL, err)
		}
		host = parsed.Host
		options = append(options, gl.WithBaseURL(settings.BaseURL))
	}

	client, err := gl.NewClient(settings.Token, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return NewForgeRepositoryWithClient(client, host), nil
}

// NewForgeRepositoryWithClient wraps an already configured client.
func NewForgeRepositoryWithClient(client *gl.Client, host string) *GitLabForgeRepository {
	return &GitLabForgeRepository{host: host, client: client}
}

func (p *GitLabForgeRepository) Name() string { return forgeName }

func (p *GitLabForgeRepository) MatchesURL(cloneURL string) bool {
	return strings.Contains(cloneURL, p.host)
}

func (p *GitLabForgeRepository) DefaultBranch(ctx context.Context, repo entities.Repository) (string, error) {
	project, _, err := p.client.Projects.GetProject(repo.FullName(), nil, gl.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to get project %s: %w", repo.FullName(), err)
	}
	return project.DefaultBranch, nil
}

func (p *GitLabForgeRepository) ListOpenPullRequests(
	ctx context.Context,
	repo entities.Repository,
	label string,
) ([]entities.PullRequest, error) {
	var all []entities.PullRequest
	opts := &gl.ListProjectMergeRequestsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		State:       gl.Ptr("opened"),
	}
	if label != "" {
		opts.Labels = gl.Ptr(gl.LabelOptions{label})
	}

	for {
		mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(repo.FullName(), opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list merge requests: %w", err)
		}
		for _, mr := range mrs {
			all = append(all, toPullRequest(mr))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitLabForgeRepository) GetPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) (*entities.PullRequest, error) {
	mr, _, err := p.client.MergeRequests.GetMergeRequest(repo.FullName(), number, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get merge request !%d: %w", number, err)
	}
	converted := toPullRequest(&mr.BasicMergeRequest)
	return &converted, nil
}

func (p *GitLabForgeRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	sourceBranch := strings.TrimPrefix(input.SourceBranch, "refs/heads/")
	targetBranch := strings.TrimPrefix(input.TargetBranch, "refs/heads/")

	mr, _, err := p.client.MergeRequests.CreateMergeRequest(
		repo.FullName(),
		&gl.CreateMergeRequestOptions{
			Title:              gl.Ptr(input.Title),
			Description:        gl.Ptr(input.Body),
			SourceBranch:       gl.Ptr(sourceBranch),
			TargetBranch:       gl.Ptr(targetBranch),
			RemoveSourceBranch: gl.Ptr(true),
		},
		gl.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", err)
	}
	converted := toPullRequest(&mr.BasicMergeRequest)
	return &converted, nil
}

func (p *GitLabForgeRepository) CommentOnPullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	body string,
) error {
	_, _, err := p.client.Notes.CreateMergeRequestNote(
		repo.FullName(), number,
		&gl.CreateMergeRequestNoteOptions{Body: gl.Ptr(body)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to comment on merge request !%d: %w", number, err)
	}
	return nil
}

func (p *GitLabForgeRepository) ListPullRequestComments(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) ([]entities.Comment, error) {
	var all []entities.Comment
	opts := &gl.ListMergeRequestNotesOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Sort:        gl.Ptr("asc"),
	}

	for {
		notes, resp, err := p.client.Notes.ListMergeRequestNotes(repo.FullName(), number, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list notes of merge request !%d: %w", number, err)
		}
		all = append(all, toComments(notes)...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitLabForgeRepository) SetPullRequestTitle(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	title string,
) error {
	_, _, err := p.client.MergeRequests.UpdateMergeRequest(
		repo.FullName(), number,
		&gl.UpdateMergeRequestOptions{Title: gl.Ptr(title)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to edit merge request !%d: %w", number, err)
	}
	return nil
}

func (p *GitLabForgeRepository) SetPullRequestLabels(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	labels []string,
) error {
	_, _, err := p.client.MergeRequests.UpdateMergeRequest(
		repo.FullName(), number,
		&gl.UpdateMergeRequestOptions{Labels: gl.Ptr(gl.LabelOptions(labels))},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to label merge request !%d: %w", number, err)
	}
	return nil
}

// GetCommitStatus folds the statuses of every job reported on the commit.
func (p *GitLabForgeRepository) GetCommitStatus(
	ctx context.Context,
	repo entities.Repository,
	sha string,
) (entities.CommitState, error) {
	statuses, _, err := p.client.Commits.GetCommitStatuses(
		repo.FullName(), sha,
		&gl.GetCommitStatusesOptions{ListOptions: gl.ListOptions{PerPage: perPage}},
		gl.WithContext(ctx),
	)
	if err != nil {
		return entities.CommitStateUnknown, fmt.Errorf("failed to get status of %s: %w", sha, err)
	}

	states := make([]string, 0, len(statuses))
	for _, status := range statuses {
		states = append(states, status.Status)
	}
	return combineStates(states), nil
}

func (p *GitLabForgeRepository) MergePullRequest(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	method string,
) error {
	opts := &gl.AcceptMergeRequestOptions{
		ShouldRemoveSourceBranch: gl.Ptr(true),
	}
	if method == "squash" {
		opts.Squash = gl.Ptr(true)
	}

	_, _, err := p.client.MergeRequests.AcceptMergeRequest(repo.FullName(), number, opts, gl.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to merge merge request !%d: %w", number, err)
	}
	return nil
}

func (p *GitLabForgeRepository) ListOpenIssues(
	ctx context.Context,
	repo entities.Repository,
	label string,
) ([]entities.Issue, error) {
	var all []entities.Issue
	opts := &gl.ListProjectIssuesOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		State:       gl.Ptr("opened"),
	}
	if label != "" {
		opts.Labels = gl.Ptr(gl.LabelOptions{label})
	}

	for {
		issues, resp, err := p.client.Issues.ListProjectIssues(repo.FullName(), opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", err)
		}
		for _, issue := range issues {
			all = append(all, toIssue(issue))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitLabForgeRepository) ListIssueComments(
	ctx context.Context,
	repo entities.Repository,
	number int64,
) ([]entities.Comment, error) {
	var all []entities.Comment
	opts := &gl.ListIssueNotesOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Sort:        gl.Ptr("asc"),
	}

	for {
		notes, resp, err := p.client.Notes.ListIssueNotes(repo.FullName(), number, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list notes of issue #%d: %w", number, err)
		}
		all = append(all, toComments(notes)...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (p *GitLabForgeRepository) CreateIssue(
	ctx context.Context,
	repo entities.Repository,
	input entities.IssueInput,
) (*entities.Issue, error) {
	opts := &gl.CreateIssueOptions{
		Title:       gl.Ptr(input.Title),
		Description: gl.Ptr(input.Body),
	}
	if len(input.Labels) > 0 {
		opts.Labels = gl.Ptr(gl.LabelOptions(input.Labels))
	}

	issue, _, err := p.client.Issues.CreateIssue(repo.FullName(), opts, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	converted := toIssue(issue)
	return &converted, nil
}

func (p *GitLabForgeRepository) CommentOnIssue(
	ctx context.Context,
	repo entities.Repository,
	number int64,
	body string,
) error {
	_, _, err := p.client.Notes.CreateIssueNote(
		repo.FullName(), number,
		&gl.CreateIssueNoteOptions{Body: gl.Ptr(body)},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}
	return nil
}

func (p *GitLabForgeRepository) CloseIssue(ctx context.Context, repo entities.Repository, number int64) error {
	_, _, err := p.client.Issues.UpdateIssue(
		repo.FullName(), number,
		&gl.UpdateIssueOptions{StateEvent: gl.Ptr("close")},
		gl.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to close issue #%d: %w", number, err)
	}
	return nil
}

func toPullRequest(mr *gl.BasicMergeRequest) entities.PullRequest {
	return entities.PullRequest{
		Number:    mr.IID,
		Title:     mr.Title,
		Body:      mr.Description,
		URL:       mr.WebURL,
		HeadRef:   mr.SourceBranch,
		HeadSHA:   mr.SHA,
		BaseRef:   mr.TargetBranch,
		Labels:    append([]string(nil), mr.Labels...),
		Mergeable: toMergeable(mr.DetailedMergeStatus, mr.HasConflicts),
		State:     mr.State,
	}
}

// toMergeable answers nil while GitLab is still computing the merge status.
func toMergeable(detailedStatus string, hasConflicts bool) *bool {
	switch detailedStatus {
	case "checking", "unchecked", "preparing", "approvals_syncing":
		return nil
	case "conflict", "need_rebase", "broken_status":
		mergeable := false
		return &mergeable
	}
	mergeable := !hasConflicts
	return &mergeable
}

func toIssue(issue *gl.Issue) entities.Issue {
	return entities.Issue{
		Number: issue.IID,
		Title:  issue.Title,
		Body:   issue.Description,
		URL:    issue.WebURL,
		Labels: append([]string(nil), issue.Labels...),
	}
}

func toComments(notes []*gl.Note) []entities.Comment {
	comments := make([]entities.Comment, 0, len(notes))
	for _, note := range notes {
		if note.System {
			continue
		}
		comments = append(comments, entities.Comment{ID: note.ID, Body: note.Body})
	}
	return comments
}

// combineStates reduces job statuses: any failure wins, then anything unfinished.
func combineStates(states []string) entities.CommitState {
	if len(states) == 0 {
		return entities.CommitStateUnknown
	}

	result := entities.CommitStateSuccess
	for _, state := range states {
		switch state {
		case "failed", "canceled":
			return entities.CommitStateFailure
		case "success", "skipped", "manual":
		default:
			result = entities.CommitStatePending
		}
	}
	return result
}
