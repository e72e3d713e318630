package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

const defaultBranchFallback = "master"

// Reconciler decides, per repository, whether to open, amend, rebase or leave alone
// the pull request carrying the current changes.
type Reconciler interface {
	PrepareDirectory(ctx context.Context, forge repositories.ForgeRepository, cctx *entities.CommandContext) error
	Reconcile(
		ctx context.Context, forge repositories.ForgeRepository, cctx *entities.CommandContext,
	) (entities.ReconcileResult, error)
	ProcessPullRequest(
		ctx context.Context,
		forge repositories.ForgeRepository,
		cctx *entities.CommandContext,
		pr *entities.PullRequest,
	) (entities.ReconcileResult, error)
	IsMergeable(
		ctx context.Context, forge repositories.ForgeRepository, cctx *entities.CommandContext, pr *entities.PullRequest,
	) bool
}

// PullRequestReconciler implements Reconciler on top of a local working copy.
type PullRequestReconciler struct {
	vcs         repositories.VersionControlRepository
	branchCache *entities.BranchCache
	newBranchID func() string
}

// NewPullRequestReconciler creates a reconciler; new branches are named updatebot-<uuid>.
func NewPullRequestReconciler(
	vcs repositories.VersionControlRepository,
	branchCache *entities.BranchCache,
) *PullRequestReconciler {
	return &PullRequestReconciler{
		vcs:         vcs,
		branchCache: branchCache,
		newBranchID: func() string { return uuid.NewString() },
	}
}

// Reset forgets the default branches looked up during the previous pass.
func (it *PullRequestReconciler) Reset() {
	it.branchCache.Clear()
}

// SinglePullRequestPrefix is the title prefix shared by every single-PR mode pull request.
func SinglePullRequestPrefix(repo entities.Repository) string {
	return "fix(versions): update " + repo.FullName() + " versions"
}

// SinglePullRequestTitle embeds the base ref so pull requests against different
// base branches never share a title.
func SinglePullRequestTitle(repo entities.Repository, baseBranch string) string {
	return SinglePullRequestPrefix(repo) + " to base ref " + baseBranch
}

// PrepareDirectory clones the repository when needed and checks out the branch
// the changes will be applied to.
func (it *PullRequestReconciler) PrepareDirectory(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) error {
	branch, err := it.ResolveRemoteBranch(ctx, forge, cctx)
	if err != nil {
		return err
	}

	if err = it.vcs.Clone(ctx, cctx.Repository); err != nil {
		return fmt.Errorf("failed to clone %s: %w", cctx.Repository.CloneURL, err)
	}

	logger.Infof("%s Checkout branch: %s in %s", cctx.LogPrefix(), branch, cctx.Repository.Dir)
	if err = it.vcs.StashAndCheckoutBranch(ctx, cctx.Repository, branch); err != nil {
		return fmt.Errorf("failed to checkout branch %s of %s: %w", branch, cctx.Repository.CloneURL, err)
	}
	return nil
}

// ResolveRemoteBranch returns the branch changes are applied to: the head of the
// open single pull request when there is one, otherwise the base branch.
func (it *PullRequestReconciler) ResolveRemoteBranch(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) (string, error) {
	if cctx.Repository.UseSinglePullRequest {
		pr, err := it.FindOpenPullRequest(ctx, forge, cctx)
		if err != nil {
			return "", err
		}
		if pr != nil {
			return pr.HeadRef, nil
		}
	}
	return it.baseBranch(ctx, forge, cctx), nil
}

// baseBranch resolves the configured branch, then the forge default, then master.
func (it *PullRequestReconciler) baseBranch(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) string {
	repo := cctx.Repository
	if repo.Branch != "" {
		return repo.Branch
	}

	branch, err := it.branchCache.Get(ctx, repo, forge.DefaultBranch)
	if err != nil {
		logger.Warnf("%s Failed to read the default branch of %s: %v", cctx.LogPrefix(), repo.CloneURL, err)
	}
	if branch == "" {
		logger.Warnf("%s No branch configured for %s, using %s", cctx.LogPrefix(), repo.CloneURL, defaultBranchFallback)
		return defaultBranchFallback
	}
	return branch
}

func (it *PullRequestReconciler) resolveTitlePrefix(cctx *entities.CommandContext) string {
	if cctx.Repository.UseSinglePullRequest {
		return SinglePullRequestPrefix(cctx.Repository)
	}
	return cctx.Describer.PullRequestTitlePrefix()
}

func (it *PullRequestReconciler) resolveTitle(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) string {
	if !cctx.Repository.UseSinglePullRequest {
		return cctx.Describer.PullRequestTitle()
	}
	base := ""
	if pr != nil {
		base = pr.BaseRef
	}
	if base == "" {
		base = it.baseBranch(ctx, forge, cctx)
	}
	return SinglePullRequestTitle(cctx.Repository, base)
}

// FindOpenPullRequest returns the open pull request carrying this change stream, if any.
func (it *PullRequestReconciler) FindOpenPullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) (*entities.PullRequest, error) {
	prs, err := forge.ListOpenPullRequests(ctx, cctx.Repository, cctx.Settings.PullRequestLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests of %s: %w", cctx.Repository.CloneURL, err)
	}
	return MatchPullRequest(prs, it.resolveTitlePrefix(cctx), cctx.Repository.Branch), nil
}

// MatchPullRequest returns the first pull request whose title starts with prefix and,
// when a branch is configured, whose base ref is that branch (case-insensitive).
func MatchPullRequest(prs []entities.PullRequest, prefix, branch string) *entities.PullRequest {
	for i := range prs {
		pr := prs[i]
		if !strings.HasPrefix(pr.Title, prefix) {
			continue
		}
		if branch == "" || strings.EqualFold(branch, pr.BaseRef) {
			return &pr
		}
	}
	return nil
}

// Reconcile finds the pull request matching the context and brings it up to date
// with the working copy.
func (it *PullRequestReconciler) Reconcile(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
) (entities.ReconcileResult, error) {
	pr, err := it.FindOpenPullRequest(ctx, forge, cctx)
	if err != nil {
		cctx.Result = entities.ResultFailed
		return entities.ResultFailed, err
	}
	return it.ProcessPullRequest(ctx, forge, cctx, pr)
}

// ProcessPullRequest creates a pull request when pr is nil, otherwise amends or
// replaces it. The result is also recorded on the context.
func (it *PullRequestReconciler) ProcessPullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) (entities.ReconcileResult, error) {
	result, err := it.processPullRequest(ctx, forge, cctx, pr)
	cctx.Result = result
	return result, err
}

func (it *PullRequestReconciler) processPullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) (entities.ReconcileResult, error) {
	title := it.resolveTitle(ctx, forge, cctx, pr)
	commandComment, err := cctx.Describer.CommandComment()
	if err != nil {
		return entities.ResultFailed, fmt.Errorf("failed to render command comment: %w", err)
	}

	if pr == nil {
		return it.createPullRequest(ctx, forge, cctx, title, commandComment)
	}

	cctx.PullRequest = pr
	if cctx.Repository.UseSinglePullRequest {
		return it.amendPullRequest(ctx, forge, cctx, commandComment)
	}
	return it.replacePullRequest(ctx, forge, cctx, title, commandComment)
}

func (it *PullRequestReconciler) createPullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	title, commandComment string,
) (entities.ReconcileResult, error) {
	repo := cctx.Repository
	remoteBranch := it.baseBranch(ctx, forge, cctx)
	localBranch := "updatebot-" + it.newBranchID()

	if cctx.Settings.DryRun {
		logger.Infof("%s [DRY RUN] Would create pull request %q from %s onto %s",
			cctx.LogPrefix(), title, localBranch, remoteBranch)
		return entities.ResultSkipped, nil
	}

	committed, err := it.vcs.CommitToBranch(ctx, repo, localBranch, cctx.Describer.CommitMessage())
	if err != nil {
		logger.Warnf("%s Failed to commit to branch %s for %s: %v", cctx.LogPrefix(), localBranch, repo.CloneURL, err)
		return entities.ResultFailed, nil
	}
	if !committed {
		logger.Warnf("%s Nothing to commit for %s", cctx.LogPrefix(), repo.CloneURL)
		return entities.ResultSkipped, nil
	}

	if !it.vcs.Push(ctx, repo, localBranch, localBranch) {
		logger.Warnf("%s Failed to push branch %s for %s", cctx.LogPrefix(), localBranch, repo.CloneURL)
		return entities.ResultFailed, nil
	}

	pr, err := forge.CreatePullRequest(ctx, repo, entities.PullRequestInput{
		Title:        title,
		Body:         cctx.Describer.PullRequestBody(),
		SourceBranch: localBranch,
		TargetBranch: remoteBranch,
	})
	if err != nil {
		return entities.ResultFailed, fmt.Errorf("failed to create pull request for %s: %w", repo.CloneURL, err)
	}
	cctx.PullRequest = pr
	logger.Infof("%s Created pull request %s", cctx.LogPrefix(), pr.URL)

	// the next pass only finds pull requests carrying the label
	if label := cctx.Settings.PullRequestLabel; label != "" {
		if err = forge.SetPullRequestLabels(ctx, repo, pr.Number, []string{label}); err != nil {
			return entities.ResultCreated, fmt.Errorf("failed to label %s: %w", pr.URL, err)
		}
	}

	if err = forge.CommentOnPullRequest(ctx, repo, pr.Number, commandComment); err != nil {
		return entities.ResultCreated, fmt.Errorf("failed to comment on %s: %w", pr.URL, err)
	}
	if err = it.addProwComment(ctx, forge, cctx, pr); err != nil {
		return entities.ResultCreated, err
	}
	it.linkIssue(ctx, forge, cctx, pr, true)
	return entities.ResultCreated, nil
}

// amendPullRequest adds a commit to the head branch of the single pull request.
func (it *PullRequestReconciler) amendPullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	commandComment string,
) (entities.ReconcileResult, error) {
	repo := cctx.Repository
	pr := cctx.PullRequest

	it.linkIssue(ctx, forge, cctx, pr, false)

	if cctx.Settings.RebaseMode && it.IsMergeable(ctx, forge, cctx, pr) {
		logger.Debugf("%s Pull request %s is mergeable, leaving it alone", cctx.LogPrefix(), pr.URL)
		return entities.ResultSkipped, nil
	}

	if cctx.Settings.DryRun {
		logger.Infof("%s [DRY RUN] Would add a commit to %s of %s", cctx.LogPrefix(), pr.HeadRef, pr.URL)
		return entities.ResultSkipped, nil
	}

	if err := forge.CommentOnPullRequest(ctx, repo, pr.Number, commandComment); err != nil {
		return entities.ResultFailed, fmt.Errorf("failed to comment on %s: %w", pr.URL, err)
	}

	committed, err := it.vcs.AddAndCommit(ctx, repo, cctx.Describer.CommitMessage())
	if err != nil {
		logger.Warnf("%s Failed to commit to %s for %s: %v", cctx.LogPrefix(), pr.HeadRef, pr.URL, err)
		return entities.ResultFailed, nil
	}
	if !committed {
		logger.Warnf("%s Nothing to commit for %s", cctx.LogPrefix(), pr.URL)
		return entities.ResultSkipped, nil
	}

	if err = it.addProwComment(ctx, forge, cctx, pr); err != nil {
		return entities.ResultFailed, err
	}

	if !it.vcs.Push(ctx, repo, pr.HeadRef, pr.HeadRef) {
		logger.Warnf("%s Failed to push branch %s to existing branch %s for %s",
			cctx.LogPrefix(), pr.HeadRef, pr.HeadRef, pr.URL)
		return entities.ResultFailed, nil
	}
	logger.Infof("%s Updated pull request %s", cctx.LogPrefix(), pr.URL)
	return entities.ResultUpdated, nil
}

// replacePullRequest recreates the pull request commit on a fresh local branch and
// force-pushes it over the existing head. This is rebase by replacement: commits
// pushed to the head branch by anyone else are discarded.
func (it *PullRequestReconciler) replacePullRequest(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	title, commandComment string,
) (entities.ReconcileResult, error) {
	repo := cctx.Repository
	pr := cctx.PullRequest
	rebaseMode := cctx.Settings.RebaseMode

	it.linkIssue(ctx, forge, cctx, pr, false)

	titleChanged := pr.Title != title
	if !titleChanged && rebaseMode && it.IsMergeable(ctx, forge, cctx, pr) {
		logger.Debugf("%s Pull request %s is up to date and mergeable", cctx.LogPrefix(), pr.URL)
		return entities.ResultSkipped, nil
	}

	if cctx.Settings.DryRun {
		logger.Infof("%s [DRY RUN] Would replace the commits of %s (title changed: %t)",
			cctx.LogPrefix(), pr.URL, titleChanged)
		return entities.ResultSkipped, nil
	}

	switch {
	case titleChanged:
		if err := forge.SetPullRequestTitle(ctx, repo, pr.Number, title); err != nil {
			return entities.ResultFailed, fmt.Errorf("failed to retitle %s: %w", pr.URL, err)
		}
		pr.Title = title
		if err := forge.CommentOnPullRequest(ctx, repo, pr.Number, commandComment); err != nil {
			return entities.ResultFailed, fmt.Errorf("failed to comment on %s: %w", pr.URL, err)
		}
	case rebaseMode:
		if err := forge.CommentOnPullRequest(ctx, repo, pr.Number, entities.RebaseComment); err != nil {
			return entities.ResultFailed, fmt.Errorf("failed to comment on %s: %w", pr.URL, err)
		}
	}

	logger.Warnf("%s Replacing the commits of branch %s of %s, commits pushed there by others are discarded",
		cctx.LogPrefix(), pr.HeadRef, pr.URL)

	// the local branch may be stale
	if err := it.vcs.DeleteBranch(ctx, repo, pr.HeadRef); err != nil {
		logger.Debugf("%s Could not delete local branch %s: %v", cctx.LogPrefix(), pr.HeadRef, err)
	}

	committed, err := it.vcs.CommitToBranch(ctx, repo, pr.HeadRef, cctx.Describer.CommitMessage())
	if err != nil {
		logger.Warnf("%s Failed to commit to branch %s for %s: %v", cctx.LogPrefix(), pr.HeadRef, pr.URL, err)
		return entities.ResultFailed, nil
	}
	if !committed {
		logger.Warnf("%s Nothing to commit for %s", cctx.LogPrefix(), pr.URL)
		return entities.ResultSkipped, nil
	}

	if err = it.addProwComment(ctx, forge, cctx, pr); err != nil {
		return entities.ResultFailed, err
	}

	if !it.vcs.Push(ctx, repo, pr.HeadRef, pr.HeadRef) {
		logger.Warnf("%s Failed to push branch %s to existing branch %s for %s",
			cctx.LogPrefix(), pr.HeadRef, pr.HeadRef, pr.URL)
		return entities.ResultFailed, nil
	}
	logger.Infof("%s Updated pull request %s", cctx.LogPrefix(), pr.URL)
	return entities.ResultUpdated, nil
}

// IsMergeable reads the mergeable flag, re-fetching the pull request once when the
// forge has not computed it yet. A flag that is still unknown is assumed mergeable.
func (it *PullRequestReconciler) IsMergeable(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) bool {
	if pr.Mergeable != nil {
		return *pr.Mergeable
	}

	fresh, err := forge.GetPullRequest(ctx, cctx.Repository, pr.Number)
	if err != nil {
		logger.Warnf("%s Failed to re-read %s: %v", cctx.LogPrefix(), pr.URL, err)
	} else if fresh != nil && fresh.Mergeable != nil {
		pr.Mergeable = fresh.Mergeable
		return *fresh.Mergeable
	}

	logger.Warnf("%s Mergeable state of %s is still unknown, assuming mergeable", cctx.LogPrefix(), pr.URL)
	return true
}

func (it *PullRequestReconciler) addProwComment(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
) error {
	command := strings.TrimSpace(cctx.Settings.ProwCommand)
	if command == "" {
		return nil
	}
	if err := forge.CommentOnPullRequest(ctx, cctx.Repository, pr.Number, command); err != nil {
		return fmt.Errorf("failed to post prow command on %s: %w", pr.URL, err)
	}
	return nil
}

// linkIssue posts the tracking issue link once per pull request. Failures are only logged.
func (it *PullRequestReconciler) linkIssue(
	ctx context.Context,
	forge repositories.ForgeRepository,
	cctx *entities.CommandContext,
	pr *entities.PullRequest,
	created bool,
) {
	if cctx.Issue == nil || cctx.Settings.DryRun {
		return
	}
	if !created {
		comments, err := forge.ListPullRequestComments(ctx, cctx.Repository, pr.Number)
		if err != nil {
			logger.Warnf("%s Failed to list comments of %s: %v", cctx.LogPrefix(), pr.URL, err)
			return
		}
		if entities.HasIssueLinkComment(comments) {
			return
		}
	}
	if err := forge.CommentOnPullRequest(
		ctx, cctx.Repository, pr.Number, entities.IssueLinkCommentBody(cctx.Issue),
	); err != nil {
		logger.Warnf("%s Failed to link %s to %s: %v", cctx.LogPrefix(), pr.URL, cctx.Issue.URL, err)
	}
}
