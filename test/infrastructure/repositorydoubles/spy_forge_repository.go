//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// SpyForgeRepository implements repositories.ForgeRepository as an in-memory forge.
// Pull requests and issues created through it become visible to the list calls,
// so several passes can run against the same instance. Pull requests are listed
// only once they carry the requested label, as on a real forge.
type SpyForgeRepository struct {
	// --- identity ---
	ForgeName string
	Host      string

	// --- DefaultBranch ---
	Branch             string
	DefaultBranchErr   error
	DefaultBranchCalls int

	// --- pull requests ---
	PullRequests      []entities.PullRequest
	ListPRsErr        error
	ListPRsLabels     []string
	FreshPullRequests map[int64]*entities.PullRequest // returned by GetPullRequest
	GetPRErr          error
	GetPRCalls        []int64
	CreatePRErr       error
	PRInputs          []entities.PullRequestInput
	PRComments        map[int64][]entities.Comment
	CommentErr        error
	Titles            map[int64]string
	Labels            map[int64][]string

	// --- merge ---
	CommitStates map[string]entities.CommitState
	StatusErr    error
	MergeErr     error
	Merged       []int64
	MergeMethods []string

	// --- issues ---
	Issues         []entities.Issue
	ListIssuesErr  error
	IssueComments  map[int64][]entities.Comment
	IssueInputs    []entities.IssueInput
	CreateIssueErr error
	ClosedIssues   []int64

	nextNumber int64
	nextID     int64
}

var _ repositories.ForgeRepository = (*SpyForgeRepository)(nil)

// NewSpyForgeRepository creates an empty forge named "github" on github.com.
func NewSpyForgeRepository() *SpyForgeRepository {
	return &SpyForgeRepository{
		ForgeName:         "github",
		Host:              "github.com",
		Branch:            "main",
		FreshPullRequests: make(map[int64]*entities.PullRequest),
		PRComments:        make(map[int64][]entities.Comment),
		Titles:            make(map[int64]string),
		Labels:            make(map[int64][]string),
		CommitStates:      make(map[string]entities.CommitState),
		IssueComments:     make(map[int64][]entities.Comment),
		nextNumber:        100,
	}
}

func (p *SpyForgeRepository) Name() string { return p.ForgeName }

func (p *SpyForgeRepository) MatchesURL(cloneURL string) bool {
	return p.Host != "" && strings.Contains(cloneURL, p.Host)
}

func (p *SpyForgeRepository) DefaultBranch(_ context.Context, _ entities.Repository) (string, error) {
	p.DefaultBranchCalls++
	return p.Branch, p.DefaultBranchErr
}

func (p *SpyForgeRepository) ListOpenPullRequests(
	_ context.Context, _ entities.Repository, label string,
) ([]entities.PullRequest, error) {
	p.ListPRsLabels = append(p.ListPRsLabels, label)
	if p.ListPRsErr != nil {
		return nil, p.ListPRsErr
	}
	prs := make([]entities.PullRequest, 0, len(p.PullRequests))
	for _, pr := range p.PullRequests {
		if label == "" || slices.Contains(pr.Labels, label) {
			prs = append(prs, pr)
		}
	}
	return prs, nil
}

func (p *SpyForgeRepository) GetPullRequest(
	_ context.Context, _ entities.Repository, number int64,
) (*entities.PullRequest, error) {
	p.GetPRCalls = append(p.GetPRCalls, number)
	if p.GetPRErr != nil {
		return nil, p.GetPRErr
	}
	if pr, ok := p.FreshPullRequests[number]; ok {
		return pr, nil
	}
	for i := range p.PullRequests {
		if p.PullRequests[i].Number == number {
			pr := p.PullRequests[i]
			return &pr, nil
		}
	}
	return nil, fmt.Errorf("pull request %d not found", number)
}

func (p *SpyForgeRepository) CreatePullRequest(
	_ context.Context, _ entities.Repository, input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	p.PRInputs = append(p.PRInputs, input)
	if p.CreatePRErr != nil {
		return nil, p.CreatePRErr
	}
	p.nextNumber++
	pr := entities.PullRequest{
		Number:  p.nextNumber,
		Title:   input.Title,
		Body:    input.Body,
		URL:     fmt.Sprintf("https://%s/pull/%d", p.Host, p.nextNumber),
		HeadRef: input.SourceBranch,
		HeadSHA: fmt.Sprintf("sha-%d", p.nextNumber),
		BaseRef: input.TargetBranch,
		State:   "open",
	}
	p.PullRequests = append(p.PullRequests, pr)
	return &pr, nil
}

func (p *SpyForgeRepository) CommentOnPullRequest(
	_ context.Context, _ entities.Repository, number int64, body string,
) error {
	if p.CommentErr != nil {
		return p.CommentErr
	}
	p.nextID++
	p.PRComments[number] = append(p.PRComments[number], entities.Comment{ID: p.nextID, Body: body})
	return nil
}

func (p *SpyForgeRepository) ListPullRequestComments(
	_ context.Context, _ entities.Repository, number int64,
) ([]entities.Comment, error) {
	return p.PRComments[number], nil
}

func (p *SpyForgeRepository) SetPullRequestTitle(
	_ context.Context, _ entities.Repository, number int64, title string,
) error {
	p.Titles[number] = title
	for i := range p.PullRequests {
		if p.PullRequests[i].Number == number {
			p.PullRequests[i].Title = title
		}
	}
	return nil
}

func (p *SpyForgeRepository) SetPullRequestLabels(
	_ context.Context, _ entities.Repository, number int64, labels []string,
) error {
	p.Labels[number] = labels
	for i := range p.PullRequests {
		if p.PullRequests[i].Number == number {
			p.PullRequests[i].Labels = labels
		}
	}
	return nil
}

func (p *SpyForgeRepository) GetCommitStatus(
	_ context.Context, _ entities.Repository, sha string,
) (entities.CommitState, error) {
	if p.StatusErr != nil {
		return "", p.StatusErr
	}
	if state, ok := p.CommitStates[sha]; ok {
		return state, nil
	}
	return entities.CommitStatePending, nil
}

func (p *SpyForgeRepository) MergePullRequest(
	_ context.Context, _ entities.Repository, number int64, method string,
) error {
	if p.MergeErr != nil {
		return p.MergeErr
	}
	p.Merged = append(p.Merged, number)
	p.MergeMethods = append(p.MergeMethods, method)
	open := p.PullRequests[:0]
	for _, pr := range p.PullRequests {
		if pr.Number != number {
			open = append(open, pr)
		}
	}
	p.PullRequests = open
	return nil
}

func (p *SpyForgeRepository) ListOpenIssues(
	_ context.Context, _ entities.Repository, _ string,
) ([]entities.Issue, error) {
	if p.ListIssuesErr != nil {
		return nil, p.ListIssuesErr
	}
	issues := make([]entities.Issue, len(p.Issues))
	copy(issues, p.Issues)
	return issues, nil
}

func (p *SpyForgeRepository) ListIssueComments(
	_ context.Context, _ entities.Repository, number int64,
) ([]entities.Comment, error) {
	return p.IssueComments[number], nil
}

func (p *SpyForgeRepository) CreateIssue(
	_ context.Context, _ entities.Repository, input entities.IssueInput,
) (*entities.Issue, error) {
	p.IssueInputs = append(p.IssueInputs, input)
	if p.CreateIssueErr != nil {
		return nil, p.CreateIssueErr
	}
	p.nextNumber++
	issue := entities.Issue{
		Number: p.nextNumber,
		Title:  input.Title,
		Body:   input.Body,
		URL:    fmt.Sprintf("https://%s/issues/%d", p.Host, p.nextNumber),
		Labels: input.Labels,
	}
	p.Issues = append(p.Issues, issue)
	return &issue, nil
}

func (p *SpyForgeRepository) CommentOnIssue(
	_ context.Context, _ entities.Repository, number int64, body string,
) error {
	if p.CommentErr != nil {
		return p.CommentErr
	}
	p.nextID++
	p.IssueComments[number] = append(p.IssueComments[number], entities.Comment{ID: p.nextID, Body: body})
	return nil
}

func (p *SpyForgeRepository) CloseIssue(_ context.Context, _ entities.Repository, number int64) error {
	p.ClosedIssues = append(p.ClosedIssues, number)
	open := p.Issues[:0]
	for _, issue := range p.Issues {
		if issue.Number != number {
			open = append(open, issue)
		}
	}
	p.Issues = open
	return nil
}

// CommentBodies returns the bodies of the comments posted on a pull request.
func (p *SpyForgeRepository) CommentBodies(number int64) []string {
	bodies := make([]string, 0, len(p.PRComments[number]))
	for _, c := range p.PRComments[number] {
		bodies = append(bodies, c.Body)
	}
	return bodies
}

// StubForgeConnector implements repositories.ForgeConnector with fixed forges.
type StubForgeConnector struct {
	Forges       repositories.Forges
	ConnectErr   error
	ConnectCalls int
}

var _ repositories.ForgeConnector = (*StubForgeConnector)(nil)

// NewStubForgeConnector connects every repository to the given forge.
func NewStubForgeConnector(forge repositories.ForgeRepository) *StubForgeConnector {
	return &StubForgeConnector{Forges: repositories.Forges{forge.Name(): forge}}
}

func (c *StubForgeConnector) Connect(_ context.Context, _ *entities.Settings) (repositories.Forges, error) {
	c.ConnectCalls++
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	return c.Forges, nil
}
