package entities

import (
	"fmt"
	"strings"
)

const (
	// PendingIssueTitle prefixes the title of every tracking issue.
	PendingIssueTitle = "updatebot: pending version changes"
	// IssueLinkComment starts the comment that links a pull request to its tracking issue.
	IssueLinkComment = BotLink + " could not apply some changes, see"
	// RebaseComment is posted before a pull request is rebased by replacement.
	RebaseComment = BotLink + " rebasing due to merge conflicts"
)

// PendingChangeSet is the durable record stored on the tracking issue.
type PendingChangeSet struct {
	Operation string                    `json:"operation,omitempty"`
	Changes   []DependencyVersionChange `json:"changes"`
}

// LatestPendingChanges returns the newest embedded pending set. Comments are scanned
// from newest to oldest before falling back to the issue body.
func LatestPendingChanges(body string, comments []Comment) ([]DependencyVersionChange, bool, error) {
	for i := len(comments) - 1; i >= 0; i-- {
		changes, found, err := extractPendingChanges(comments[i].Body)
		if err != nil || found {
			return changes, found, err
		}
	}
	return extractPendingChanges(body)
}

func extractPendingChanges(body string) ([]DependencyVersionChange, bool, error) {
	var set PendingChangeSet
	if err := ExtractData(PendingChangesMarker, body, &set); err != nil {
		if IsEmbeddedDataNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return set.Changes, true, nil
}

// PendingIssueBody renders the body of a new tracking issue.
func PendingIssueBody(operation string, check *DependenciesCheck) (string, error) {
	header := BotLink + " could not apply the following changes while " + operation + ":\n\n"
	return pendingChangesText(header, operation, check)
}

// PendingIssueComment renders the "still pending" comment of an existing tracking issue.
func PendingIssueComment(operation string, check *DependenciesCheck) (string, error) {
	header := BotLink + " changes are still pending while " + operation + ":\n\n"
	return pendingChangesText(header, operation, check)
}

// PendingIssueCloseComment is posted right before a tracking issue is closed.
func PendingIssueCloseComment(operation string) string {
	return BotLink + " closing as no further changes are pending after " + operation
}

// IssueLinkCommentBody renders the comment linking a pull request to its issue.
func IssueLinkCommentBody(issue *Issue) string {
	return IssueLinkComment + " " + issue.URL
}

// HasIssueLinkComment reports whether a link comment was already posted.
func HasIssueLinkComment(comments []Comment) bool {
	for _, c := range comments {
		if strings.HasPrefix(c.Body, IssueLinkComment) {
			return true
		}
	}
	return false
}

func pendingChangesText(header, operation string, check *DependenciesCheck) (string, error) {
	var sb strings.Builder
	sb.WriteString(header)
	for _, group := range ByKind(check.Invalid) {
		sb.WriteString(fmt.Sprintf("### %s\n\n", group.Kind))
		for _, change := range group.Changes {
			sb.WriteString(fmt.Sprintf("* `%s` to `%s`", change.Dependency, change.NewVersion))
			if cause := check.Cause(change); cause != "" {
				sb.WriteString(": " + cause)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return EmbedData(PendingChangesMarker, sb.String(), PendingChangeSet{Operation: operation, Changes: check.Invalid})
}
