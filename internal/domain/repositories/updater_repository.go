package repositories

import (
	"context"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

// UpdaterRepository edits the files of one dependency ecosystem (Dockerfiles,
// Makefiles, Terraform modules, ...) inside a local working copy.
type UpdaterRepository interface {
	// Kind returns the ecosystem this updater handles.
	Kind() entities.Kind

	// PushVersions rewrites the files of the working copy; it returns true when
	// at least one file was modified.
	PushVersions(ctx context.Context, cctx *entities.CommandContext, changes []entities.DependencyVersionChange) (bool, error)

	// CheckDependencies splits the changes of this kind into valid and invalid ones.
	CheckDependencies(
		ctx context.Context, cctx *entities.CommandContext, changes []entities.DependencyVersionChange,
	) (entities.KindDependenciesCheck, error)
}

// PassScopedRepository is implemented by updaters that remember what PushVersions
// replaced until CheckDependencies runs. Reset is called before every pass.
type PassScopedRepository interface {
	Reset()
}

// RegexUpdaterRepository replaces regex matches in the files of a working copy.
type RegexUpdaterRepository interface {
	// PushRegex replaces the first group of every match with the new value; it
	// returns true when at least one file was modified.
	PushRegex(ctx context.Context, cctx *entities.CommandContext, options entities.RegexOptions) (bool, error)
}
