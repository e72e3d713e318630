//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// CommitCall records a single commit request.
type CommitCall struct {
	Branch  string // empty for AddAndCommit
	Message string
}

// PushCall records a single push request.
type PushCall struct {
	LocalBranch  string
	RemoteBranch string
}

// SpyVersionControlRepository implements repositories.VersionControlRepository as a spy.
// Its zero value succeeds on every call and always has something to commit.
type SpyVersionControlRepository struct {
	// --- Clone ---
	CloneErr error
	Cloned   []entities.Repository

	// --- StashAndCheckoutBranch ---
	CheckoutErr error
	CheckedOut  []string

	// --- commits ---
	NothingToCommit bool
	CommitErr       error
	Commits         []CommitCall

	// --- Push ---
	PushFails bool
	Pushes    []PushCall

	// --- DeleteBranch ---
	DeleteErr       error
	DeletedBranches []string

	// --- RevertWorkingTree ---
	RevertErr   error
	RevertCalls int

	// --- Diff / CurrentBranch ---
	DiffResult string
	Branch     string
}

var _ repositories.VersionControlRepository = (*SpyVersionControlRepository)(nil)

func (s *SpyVersionControlRepository) Clone(_ context.Context, repo entities.Repository) error {
	s.Cloned = append(s.Cloned, repo)
	return s.CloneErr
}

func (s *SpyVersionControlRepository) StashAndCheckoutBranch(
	_ context.Context, _ entities.Repository, branch string,
) error {
	s.CheckedOut = append(s.CheckedOut, branch)
	if s.CheckoutErr == nil {
		s.Branch = branch
	}
	return s.CheckoutErr
}

func (s *SpyVersionControlRepository) CommitToBranch(
	_ context.Context, _ entities.Repository, branch, message string,
) (bool, error) {
	s.Commits = append(s.Commits, CommitCall{Branch: branch, Message: message})
	if s.CommitErr != nil {
		return false, s.CommitErr
	}
	if !s.NothingToCommit {
		s.Branch = branch
	}
	return !s.NothingToCommit, nil
}

func (s *SpyVersionControlRepository) AddAndCommit(
	_ context.Context, _ entities.Repository, message string,
) (bool, error) {
	s.Commits = append(s.Commits, CommitCall{Message: message})
	if s.CommitErr != nil {
		return false, s.CommitErr
	}
	return !s.NothingToCommit, nil
}

func (s *SpyVersionControlRepository) Push(
	_ context.Context, _ entities.Repository, localBranch, remoteBranch string,
) bool {
	s.Pushes = append(s.Pushes, PushCall{LocalBranch: localBranch, RemoteBranch: remoteBranch})
	return !s.PushFails
}

func (s *SpyVersionControlRepository) DeleteBranch(_ context.Context, _ entities.Repository, branch string) error {
	s.DeletedBranches = append(s.DeletedBranches, branch)
	return s.DeleteErr
}

func (s *SpyVersionControlRepository) RevertWorkingTree(_ context.Context, _ entities.Repository) error {
	s.RevertCalls++
	return s.RevertErr
}

func (s *SpyVersionControlRepository) Diff(_ context.Context, _ entities.Repository) (string, error) {
	return s.DiffResult, nil
}

func (s *SpyVersionControlRepository) CurrentBranch(_ context.Context, _ entities.Repository) (string, error) {
	return s.Branch, nil
}
