//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
)

// SpyUpdaterRepository implements repositories.UpdaterRepository and
// repositories.RegexUpdaterRepository as a configurable spy.
type SpyUpdaterRepository struct {
	// --- identity ---
	UpdaterKind entities.Kind

	// --- PushVersions / PushRegex ---
	// PushResults are returned in order; once exhausted every push reports !NoChanges.
	PushResults []bool
	NoChanges   bool
	PushErr     error
	PushCalls   [][]entities.DependencyVersionChange
	RegexCalls  []entities.RegexOptions

	// --- CheckDependencies ---
	// Invalid maps a dependency name to the cause it is rejected with.
	Invalid    map[string]string
	CheckErr   error
	CheckCalls [][]entities.DependencyVersionChange
	// SkipVerdicts drops the verdict of these dependencies to simulate a broken checker.
	SkipVerdicts map[string]bool

	// --- Reset ---
	ResetCalls int
}

var (
	_ repositories.UpdaterRepository      = (*SpyUpdaterRepository)(nil)
	_ repositories.RegexUpdaterRepository = (*SpyUpdaterRepository)(nil)
	_ repositories.PassScopedRepository   = (*SpyUpdaterRepository)(nil)
)

func (u *SpyUpdaterRepository) Kind() entities.Kind { return u.UpdaterKind }

func (u *SpyUpdaterRepository) Reset() { u.ResetCalls++ }

func (u *SpyUpdaterRepository) PushVersions(
	_ context.Context, _ *entities.CommandContext, changes []entities.DependencyVersionChange,
) (bool, error) {
	u.PushCalls = append(u.PushCalls, changes)
	if u.PushErr != nil {
		return false, u.PushErr
	}
	return u.nextResult(), nil
}

func (u *SpyUpdaterRepository) CheckDependencies(
	_ context.Context, _ *entities.CommandContext, changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	u.CheckCalls = append(u.CheckCalls, changes)
	result := entities.NewKindDependenciesCheck(u.UpdaterKind)
	if u.CheckErr != nil {
		return result, u.CheckErr
	}
	for _, change := range changes {
		if u.SkipVerdicts[change.Dependency] {
			continue
		}
		if cause, ok := u.Invalid[change.Dependency]; ok {
			result.Reject(change, cause)
			continue
		}
		result.Accept(change)
	}
	return result, nil
}

func (u *SpyUpdaterRepository) PushRegex(
	_ context.Context, _ *entities.CommandContext, options entities.RegexOptions,
) (bool, error) {
	u.RegexCalls = append(u.RegexCalls, options)
	if u.PushErr != nil {
		return false, u.PushErr
	}
	return u.nextResult(), nil
}

func (u *SpyUpdaterRepository) nextResult() bool {
	if len(u.PushResults) > 0 {
		result := u.PushResults[0]
		u.PushResults = u.PushResults[1:]
		return result
	}
	return !u.NoChanges
}
