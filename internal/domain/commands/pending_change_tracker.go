package commands

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// PendingChangeTracker keeps the changes that failed validation on one tracking
// issue per repository. The issue is the only place that state lives.
type PendingChangeTracker struct{}

// NewPendingChangeTracker creates a tracker.
func NewPendingChangeTracker() *PendingChangeTracker {
	return &PendingChangeTracker{}
}

// Load finds the open tracking issue, records it on the context and returns the
// newest pending set stored on it.
func (it *PendingChangeTracker) Load(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) ([]entities.DependencyVersionChange, error) {
	issues, err := forge.ListOpenIssues(ctx, cctx.Repository, cctx.Settings.PullRequestLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues of %s: %w", cctx.Repository.CloneURL, err)
	}

	for i := range issues {
		issue := issues[i]
		if !strings.HasPrefix(issue.Title, entities.PendingIssueTitle) {
			continue
		}
		cctx.Issue = &issue

		comments, commentsErr := forge.ListIssueComments(ctx, cctx.Repository, issue.Number)
		if commentsErr != nil {
			return nil, fmt.Errorf("failed to list comments of %s: %w", issue.URL, commentsErr)
		}
		changes, found, extractErr := entities.LatestPendingChanges(issue.Body, comments)
		if extractErr != nil {
			return nil, fmt.Errorf("failed to read pending changes of %s: %w", issue.URL, extractErr)
		}
		if found {
			logger.Debugf("%s Loaded pending changes %s from %s",
				cctx.LogPrefix(), entities.DescribeChanges(changes), issue.URL)
		}
		return changes, nil
	}
	return nil, nil
}

// Update reflects the invalid changes of check on the tracking issue. previous is the
// pending set returned by Load during the same pass.
func (it *PendingChangeTracker) Update(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	check *entities.DependenciesCheck,
	previous []entities.DependencyVersionChange,
) (entities.IssueOutcome, error) {
	outcome, err := it.update(ctx, forge, cctx, check, previous)
	cctx.IssueOutcome = outcome
	return outcome, err
}

func (it *PendingChangeTracker) update(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	check *entities.DependenciesCheck,
	previous []entities.DependencyVersionChange,
) (entities.IssueOutcome, error) {
	repo := cctx.Repository
	current := check.Invalid
	operation := cctx.Describer.OperationDescription()

	if entities.EqualChanges(current, previous) {
		if cctx.Issue != nil {
			logger.Debugf("%s Pending changes unchanged so not modifying %s", cctx.LogPrefix(), cctx.Issue.URL)
		}
		return entities.IssueUnchanged, nil
	}

	if len(current) == 0 {
		if cctx.Issue == nil {
			return entities.IssueUnchanged, nil
		}
		issue := cctx.Issue
		if cctx.Settings.DryRun {
			logger.Infof("%s [DRY RUN] Would close %s", cctx.LogPrefix(), issue.URL)
			return entities.IssueUnchanged, nil
		}

		logger.Infof("%s Closing issue as we have no further pending changes %s", cctx.LogPrefix(), issue.URL)
		if err := forge.CommentOnIssue(ctx, repo, issue.Number, entities.PendingIssueCloseComment(operation)); err != nil {
			return entities.IssueUnchanged, fmt.Errorf("failed to comment on %s: %w", issue.URL, err)
		}
		if err := forge.CloseIssue(ctx, repo, issue.Number); err != nil {
			return entities.IssueUnchanged, fmt.Errorf("failed to close %s: %w", issue.URL, err)
		}
		cctx.MarkIssueClosed()
		return entities.IssueClosed, nil
	}

	if cctx.Issue == nil {
		if cctx.IssueClosedThisPass() {
			logger.Warnf("%s Not reopening a tracking issue closed during this pass for %s",
				cctx.LogPrefix(), entities.DescribeChanges(current))
			return entities.IssueUnchanged, nil
		}
		if cctx.Settings.DryRun {
			logger.Infof("%s [DRY RUN] Would open an issue for %s", cctx.LogPrefix(), entities.DescribeChanges(current))
			return entities.IssueUnchanged, nil
		}

		body, err := entities.PendingIssueBody(operation, check)
		if err != nil {
			return entities.IssueUnchanged, err
		}
		input := entities.IssueInput{Title: entities.PendingIssueTitle, Body: body}
		if label := cctx.Settings.PullRequestLabel; label != "" {
			input.Labels = []string{label}
		}
		issue, err := forge.CreateIssue(ctx, repo, input)
		if err != nil {
			return entities.IssueUnchanged, fmt.Errorf("failed to open issue on %s: %w", repo.CloneURL, err)
		}
		cctx.Issue = issue
		logger.Infof("%s Created issue %s", cctx.LogPrefix(), issue.URL)
		return entities.IssueOpened, nil
	}

	issue := cctx.Issue
	if cctx.Settings.DryRun {
		logger.Infof("%s [DRY RUN] Would update %s", cctx.LogPrefix(), issue.URL)
		return entities.IssueUnchanged, nil
	}

	comment, err := entities.PendingIssueComment(operation, check)
	if err != nil {
		return entities.IssueUnchanged, err
	}
	logger.Infof("%s Modifying issue %s", cctx.LogPrefix(), issue.URL)
	if err = forge.CommentOnIssue(ctx, repo, issue.Number, comment); err != nil {
		return entities.IssueUnchanged, fmt.Errorf("failed to comment on %s: %w", issue.URL, err)
	}
	return entities.IssueUpdated, nil
}
