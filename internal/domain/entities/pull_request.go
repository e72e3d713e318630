package entities

// PullRequest is the forge-owned pull (or merge) request as seen during one pass.
// Mergeable is nil while the forge is still computing it.
type PullRequest struct {
	Number    int64
	Title     string
	Body      string
	URL       string
	HeadRef   string
	HeadSHA   string
	BaseRef   string
	Labels    []string
	Mergeable *bool
	State     string
}

// PullRequestInput holds the data needed to open a pull request.
type PullRequestInput struct {
	Title        string
	Body         string
	SourceBranch string
	TargetBranch string
}

// Issue is a forge-owned issue.
type Issue struct {
	Number int64
	Title  string
	Body   string
	URL    string
	Labels []string
}

// IssueInput holds the data needed to open an issue.
type IssueInput struct {
	Title  string
	Body   string
	Labels []string
}

// Comment is a comment on an issue or pull request.
type Comment struct {
	ID   int64
	Body string
}

// CommitState is the combined CI status of a commit.
type CommitState string

const (
	CommitStateSuccess CommitState = "success"
	CommitStatePending CommitState = "pending"
	CommitStateFailure CommitState = "failure"
	CommitStateError   CommitState = "error"
	CommitStateUnknown CommitState = "unknown"
)
