package repositories

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// VersionControlRepository is the local git capability the commands depend on.
// All operations act on the working copy at repo.Dir.
type VersionControlRepository interface {
	// Clone clones the repository into repo.Dir unless a working copy already exists.
	Clone(ctx context.Context, repo entities.Repository) error

	// StashAndCheckoutBranch discards local modifications and checks out the
	// remote branch, creating the local branch when needed.
	StashAndCheckoutBranch(ctx context.Context, repo entities.Repository, branch string) error

	// CommitToBranch commits every modification onto a fresh local branch.
	CommitToBranch(ctx context.Context, repo entities.Repository, branch, message string) (bool, error)

	// AddAndCommit commits every modification onto the current branch.
	AddAndCommit(ctx context.Context, repo entities.Repository, message string) (bool, error)

	// Push force-pushes localBranch to remoteBranch; it returns false when the push failed.
	Push(ctx context.Context, repo entities.Repository, localBranch, remoteBranch string) bool

	DeleteBranch(ctx context.Context, repo entities.Repository, branch string) error

	// RevertWorkingTree discards every uncommitted modification.
	RevertWorkingTree(ctx context.Context, repo entities.Repository) error

	// Diff describes the uncommitted modifications, empty when the tree is clean.
	Diff(ctx context.Context, repo entities.Repository) (string, error)

	CurrentBranch(ctx context.Context, repo entities.Repository) (string, error)
}
