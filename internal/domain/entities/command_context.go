package entities

import (
	"strings"
	"sync"
)

// ReconcileResult is the outcome of reconciling one repository's pull request.
type ReconcileResult string

const (
	ResultNone    ReconcileResult = ""
	ResultCreated ReconcileResult = "created"
	ResultUpdated ReconcileResult = "updated"
	ResultSkipped ReconcileResult = "skipped"
	ResultFailed  ReconcileResult = "failed"
)

// IssueOutcome is what the pending change tracker did to the tracking issue.
type IssueOutcome string

const (
	IssueNone      IssueOutcome = ""
	IssueUnchanged IssueOutcome = "unchanged"
	IssueOpened    IssueOutcome = "opened"
	IssueUpdated   IssueOutcome = "updated"
	IssueClosed    IssueOutcome = "closed"
)

// CommandContext carries the state of one command for one repository.
// It is mutated during a single pass and never persisted.
type CommandContext struct {
	Repository   Repository
	Settings     *Settings
	Describer    Describer
	PullRequest  *PullRequest
	Issue        *Issue
	Result       ReconcileResult
	IssueOutcome IssueOutcome

	issueClosed bool
	status      *StatusInfo
}

// NewCommandContext creates the context of one repository.
func NewCommandContext(repo Repository, settings *Settings, describer Describer) *CommandContext {
	return &CommandContext{Repository: repo, Settings: settings, Describer: describer}
}

// LogPrefix is prepended to every log line about this repository.
func (c *CommandContext) LogPrefix() string {
	return "[" + c.Repository.FullName() + "]"
}

// MarkIssueClosed records that the tracking issue was closed during this pass.
func (c *CommandContext) MarkIssueClosed() {
	c.issueClosed = true
	c.Issue = nil
}

// IssueClosedThisPass reports whether the tracking issue was closed during this pass.
func (c *CommandContext) IssueClosedThisPass() bool {
	return c.issueClosed
}

// SetStatus overrides the derived status, used by commands that inspect the forge directly.
func (c *CommandContext) SetStatus(status StatusInfo) {
	c.status = &status
}

// Status returns the snapshot of this repository. Unless overridden,
// a repository is pending while it has an open pull request.
func (c *CommandContext) Status() StatusInfo {
	if c.status != nil {
		return *c.status
	}
	return StatusInfo{
		CloneURL:    c.Repository.CloneURL,
		Pending:     c.PullRequest != nil && c.Result != ResultFailed,
		Description: c.Summary(),
	}
}

// Summary describes what happened to the pull request and the tracking issue.
func (c *CommandContext) Summary() string {
	var parts []string

	prURL := ""
	if c.PullRequest != nil {
		prURL = " " + c.PullRequest.URL
	}
	switch c.Result {
	case ResultCreated:
		parts = append(parts, "PR created"+prURL)
	case ResultUpdated:
		parts = append(parts, "PR updated"+prURL)
	case ResultSkipped:
		parts = append(parts, "PR unchanged"+prURL)
	case ResultFailed:
		parts = append(parts, "push failed")
	case ResultNone:
		parts = append(parts, "no changes")
	}

	switch c.IssueOutcome {
	case IssueOpened:
		parts = append(parts, "issue opened "+c.issueURL())
	case IssueUpdated:
		parts = append(parts, "issue updated "+c.issueURL())
	case IssueClosed:
		parts = append(parts, "issue closed")
	case IssueUnchanged:
		if c.Issue != nil {
			parts = append(parts, "validation pending "+c.issueURL())
		}
	case IssueNone:
	}

	return strings.Join(parts, ", ")
}

func (c *CommandContext) issueURL() string {
	if c.Issue == nil {
		return ""
	}
	return c.Issue.URL
}

// ParentContext holds the per-repository contexts of one command invocation, in order.
type ParentContext struct {
	mu       sync.Mutex
	children []*CommandContext
}

// NewParentContext creates an empty parent context.
func NewParentContext() *ParentContext {
	return &ParentContext{}
}

// Add appends a child context.
func (p *ParentContext) Add(child *CommandContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.children = append(p.children, child)
}

// Children returns the child contexts in the order they were added.
func (p *ParentContext) Children() []*CommandContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	children := make([]*CommandContext, len(p.children))
	copy(children, p.children)
	return children
}

// StatusInfos snapshots the status of every child in order.
func (p *ParentContext) StatusInfos() []StatusInfo {
	children := p.Children()
	infos := make([]StatusInfo, 0, len(children))
	for _, child := range children {
		infos = append(infos, child.Status())
	}
	return infos
}
