//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"fmt"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// PullRequestBuilder helps create test pull requests with a fluent interface.
type PullRequestBuilder struct {
	*testkit.BaseBuilder
	number    int64
	title     string
	headRef   string
	baseRef   string
	mergeable *bool
	labels    []string
}

// NewPullRequestBuilder creates a new builder with sensible defaults.
func NewPullRequestBuilder() *PullRequestBuilder {
	b := &PullRequestBuilder{BaseBuilder: testkit.NewBaseBuilder()}
	b.Reset()
	return b
}

// WithNumber sets the pull request number.
func (b *PullRequestBuilder) WithNumber(number int64) *PullRequestBuilder {
	b.number = number
	return b
}

// WithTitle sets the title.
func (b *PullRequestBuilder) WithTitle(title string) *PullRequestBuilder {
	b.title = title
	return b
}

// WithHeadRef sets the source branch.
func (b *PullRequestBuilder) WithHeadRef(ref string) *PullRequestBuilder {
	b.headRef = ref
	return b
}

// WithBaseRef sets the target branch.
func (b *PullRequestBuilder) WithBaseRef(ref string) *PullRequestBuilder {
	b.baseRef = ref
	return b
}

// WithMergeable sets the mergeable flag.
func (b *PullRequestBuilder) WithMergeable(mergeable bool) *PullRequestBuilder {
	b.mergeable = &mergeable
	return b
}

// WithUnknownMergeable clears the mergeable flag.
func (b *PullRequestBuilder) WithUnknownMergeable() *PullRequestBuilder {
	b.mergeable = nil
	return b
}

// WithLabels sets the labels.
func (b *PullRequestBuilder) WithLabels(labels ...string) *PullRequestBuilder {
	b.labels = labels
	return b
}

// Build creates the pull request (satisfies testkit.Builder interface).
func (b *PullRequestBuilder) Build() interface{} {
	return b.BuildPullRequest()
}

// BuildPullRequest creates the pull request with a concrete return type.
func (b *PullRequestBuilder) BuildPullRequest() entities.PullRequest {
	pr := entities.PullRequest{
		Number:  b.number,
		Title:   b.title,
		URL:     fmt.Sprintf("https://github.com/acme/service/pull/%d", b.number),
		HeadRef: b.headRef,
		HeadSHA: fmt.Sprintf("sha-%d", b.number),
		BaseRef: b.baseRef,
		Labels:  b.labels,
		State:   "open",
	}
	if b.mergeable != nil {
		mergeable := *b.mergeable
		pr.Mergeable = &mergeable
	}
	return pr
}

// Reset clears the builder state, allowing it to be reused.
func (b *PullRequestBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.number = 7
	b.title = "update nginx to 1.25.3"
	b.headRef = "updatebot-existing"
	b.baseRef = "main"
	mergeable := true
	b.mergeable = &mergeable
	b.labels = []string{entities.DefaultPullRequestLabel}
	return b
}

// Clone creates a deep copy of the PullRequestBuilder.
func (b *PullRequestBuilder) Clone() testkit.Builder {
	clone := &PullRequestBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		number:      b.number,
		title:       b.title,
		headRef:     b.headRef,
		baseRef:     b.baseRef,
		labels:      append([]string(nil), b.labels...),
	}
	if b.mergeable != nil {
		mergeable := *b.mergeable
		clone.mergeable = &mergeable
	}
	return clone
}
