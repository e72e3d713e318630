package gogit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

const (
	remoteName     = "origin"
	authorName     = "updatebot"
	authorEmail    = "updatebot@users.noreply.github.com"
	tokenAuthUser  = "unused-when-using-access-tokens"
	fetchAllRefs   = "+refs/heads/*:refs/remotes/origin/*"
	fetchOneRefFmt = "+refs/heads/%s:refs/remotes/origin/%s"
)

// GitVersionControlRepository implements repositories.VersionControlRepository
// on top of go-git, so no git binary is needed on the host.
type GitVersionControlRepository struct {
	clock clockwork.Clock
}

// NewGitVersionControlRepository creates the go-git backed VCS. The clock stamps commits.
func NewGitVersionControlRepository(clock clockwork.Clock) *GitVersionControlRepository {
	return &GitVersionControlRepository{clock: clock}
}

var _ repositories.VersionControlRepository = (*GitVersionControlRepository)(nil)

// Clone clones the repository into repo.Dir, or refreshes every remote branch of
// an existing working copy.
func (it *GitVersionControlRepository) Clone(ctx context.Context, repo entities.Repository) error {
	if _, err := os.Stat(filepath.Join(repo.Dir, git.GitDirName)); err == nil {
		gitRepo, openErr := git.PlainOpen(repo.Dir)
		if openErr != nil {
			return fmt.Errorf("failed to open %s: %w", repo.Dir, openErr)
		}
		logger.Debugf("Fetching %s into existing working copy %s", repo.CloneURL, repo.Dir)
		return fetch(ctx, gitRepo, repo, fetchAllRefs)
	}

	if err := os.MkdirAll(repo.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", repo.Dir, err)
	}
	logger.Infof("Cloning %s into %s", repo.CloneURL, repo.Dir)
	_, err := git.PlainCloneContext(ctx, repo.Dir, false, &git.CloneOptions{
		URL:        repo.CloneURL,
		RemoteName: remoteName,
		Auth:       auth(repo),
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", repo.CloneURL, err)
	}
	return nil
}

// StashAndCheckoutBranch throws away local modifications and points the local
// branch at the freshly fetched remote branch.
func (it *GitVersionControlRepository) StashAndCheckoutBranch(
	ctx context.Context,
	repo entities.Repository,
	branch string,
) error {
	gitRepo, worktree, err := open(repo)
	if err != nil {
		return err
	}
	if err = clean(worktree); err != nil {
		return err
	}
	if err = fetch(ctx, gitRepo, repo, fmt.Sprintf(fetchOneRefFmt, branch, branch)); err != nil {
		return err
	}

	remoteRef, err := gitRepo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err != nil {
		return fmt.Errorf("failed to resolve remote branch %s: %w", branch, err)
	}

	branchRef := plumbing.NewBranchReferenceName(branch)
	if err = gitRepo.Storer.SetReference(plumbing.NewHashReference(branchRef, remoteRef.Hash())); err != nil {
		return fmt.Errorf("failed to set branch %s: %w", branch, err)
	}
	if err = worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true}); err != nil {
		return fmt.Errorf("failed to check out %s: %w", branch, err)
	}
	return nil
}

// CommitToBranch moves the modifications onto a new local branch at HEAD and commits them.
func (it *GitVersionControlRepository) CommitToBranch(
	ctx context.Context,
	repo entities.Repository,
	branch, message string,
) (bool, error) {
	gitRepo, worktree, err := open(repo)
	if err != nil {
		return false, err
	}
	if dirty, statusErr := isDirty(worktree); statusErr != nil || !dirty {
		return false, statusErr
	}

	head, err := gitRepo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	branchRef := plumbing.NewBranchReferenceName(branch)
	if err = gitRepo.Storer.SetReference(plumbing.NewHashReference(branchRef, head.Hash())); err != nil {
		return false, fmt.Errorf("failed to create branch %s: %w", branch, err)
	}
	if err = worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Keep: true}); err != nil {
		return false, fmt.Errorf("failed to check out %s: %w", branch, err)
	}
	return it.AddAndCommit(ctx, repo, message)
}

// AddAndCommit stages everything and commits onto the current branch.
func (it *GitVersionControlRepository) AddAndCommit(
	_ context.Context,
	repo entities.Repository,
	message string,
) (bool, error) {
	_, worktree, err := open(repo)
	if err != nil {
		return false, err
	}
	if dirty, statusErr := isDirty(worktree); statusErr != nil || !dirty {
		return false, statusErr
	}

	if err = worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return false, fmt.Errorf("failed to stage changes: %w", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  it.clock.Now(),
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	logger.Debugf("Committed %s in %s", hash, repo.Dir)
	return true, nil
}

// Push force-pushes the local branch. Failures are logged and reported as false.
func (it *GitVersionControlRepository) Push(
	ctx context.Context,
	repo entities.Repository,
	localBranch, remoteBranch string,
) bool {
	gitRepo, err := git.PlainOpen(repo.Dir)
	if err != nil {
		logger.Warnf("Failed to open %s for push: %v", repo.Dir, err)
		return false
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("+%s:%s",
		plumbing.NewBranchReferenceName(localBranch), plumbing.NewBranchReferenceName(remoteBranch)))
	logger.Infof("Force pushing %s to %s", refSpec, repo.CloneURL)

	err = gitRepo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		Auth:       auth(repo),
		Force:      true,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		logger.Warnf("Failed to push %s to %s: %v", localBranch, repo.CloneURL, err)
		return false
	}
	return true
}

func (it *GitVersionControlRepository) DeleteBranch(_ context.Context, repo entities.Repository, branch string) error {
	gitRepo, err := git.PlainOpen(repo.Dir)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", repo.Dir, err)
	}
	if err = gitRepo.Storer.RemoveReference(plumbing.NewBranchReferenceName(branch)); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", branch, err)
	}
	return nil
}

func (it *GitVersionControlRepository) RevertWorkingTree(_ context.Context, repo entities.Repository) error {
	_, worktree, err := open(repo)
	if err != nil {
		return err
	}
	return clean(worktree)
}

func (it *GitVersionControlRepository) Diff(_ context.Context, repo entities.Repository) (string, error) {
	_, worktree, err := open(repo)
	if err != nil {
		return "", err
	}
	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status of %s: %w", repo.Dir, err)
	}
	if status.IsClean() {
		return "", nil
	}
	return status.String(), nil
}

func (it *GitVersionControlRepository) CurrentBranch(_ context.Context, repo entities.Repository) (string, error) {
	gitRepo, err := git.PlainOpen(repo.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", repo.Dir, err)
	}
	head, err := gitRepo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return head.Name().Short(), nil
}

func open(repo entities.Repository) (*git.Repository, *git.Worktree, error) {
	gitRepo, err := git.PlainOpen(repo.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", repo.Dir, err)
	}
	worktree, err := gitRepo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get worktree of %s: %w", repo.Dir, err)
	}
	return gitRepo, worktree, nil
}

func clean(worktree *git.Worktree) error {
	if err := worktree.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return fmt.Errorf("failed to reset worktree: %w", err)
	}
	if err := worktree.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("failed to clean worktree: %w", err)
	}
	return nil
}

func isDirty(worktree *git.Worktree) (bool, error) {
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}
	return !status.IsClean(), nil
}

func fetch(ctx context.Context, gitRepo *git.Repository, repo entities.Repository, refSpec string) error {
	err := gitRepo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(refSpec)},
		Auth:       auth(repo),
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch %s: %w", repo.CloneURL, err)
	}
	return nil
}

// auth returns nil for anonymous remotes such as local paths.
func auth(repo entities.Repository) transport.AuthMethod {
	if repo.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: tokenAuthUser, Password: repo.Token}
}
