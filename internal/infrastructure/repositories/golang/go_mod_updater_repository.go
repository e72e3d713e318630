package golang

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const (
	goModFileName = "go.mod"
	vendorDir     = "vendor"

	// GoDirective names the `go` line of go.mod rather than a required module.
	GoDirective = "go"
)

// GoModUpdaterRepository bumps required module versions and the go directive
// of every go.mod in the working copy.
type GoModUpdaterRepository struct {
	editor   *textfile.Editor
	previous *textfile.PreviousVersions
}

func NewGoModUpdaterRepository(editor *textfile.Editor) repositories.UpdaterRepository {
	return &GoModUpdaterRepository{editor: editor, previous: textfile.NewPreviousVersions()}
}

func (u *GoModUpdaterRepository) Kind() entities.Kind { return entities.KindGo }

// Reset forgets the versions replaced during the previous pass.
func (u *GoModUpdaterRepository) Reset() { u.previous.Clear() }

func (u *GoModUpdaterRepository) PushVersions(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	dir := cctx.Repository.Dir
	files, err := u.editor.WalkFiles(dir, vendorDir)
	if err != nil {
		return false, err
	}

	answer := false
	for _, file := range files {
		if path.Base(file) != goModFileName {
			continue
		}
		changed, rewriteErr := u.editor.Rewrite(filepath.Join(dir, filepath.FromSlash(file)), func(content string) (string, error) {
			return u.applyChanges(dir, file, content, changes)
		})
		if rewriteErr != nil {
			return false, rewriteErr
		}
		if changed {
			logger.Debugf("%s Updated %s", cctx.LogPrefix(), file)
			answer = true
		}
	}
	return answer, nil
}

// CheckDependencies rejects malformed versions and downgrades.
func (u *GoModUpdaterRepository) CheckDependencies(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	result := entities.NewKindDependenciesCheck(entities.KindGo)

	var wellFormed []entities.DependencyVersionChange
	for _, change := range changes {
		if change.Dependency == GoDirective {
			if !modfile.GoVersionRE.MatchString(goVersion(change.NewVersion)) {
				result.Reject(change, fmt.Sprintf("%q is not a Go version", change.NewVersion))
				continue
			}
		} else if !semver.IsValid(moduleVersion(change.NewVersion)) {
			result.Reject(change, fmt.Sprintf("%q is not a module version", change.NewVersion))
			continue
		}
		wellFormed = append(wellFormed, change)
	}

	downgrades := u.previous.Check(cctx.Repository.Dir, entities.KindGo, wellFormed)
	for _, change := range downgrades.Valid {
		result.Accept(change)
	}
	for _, change := range downgrades.Invalid {
		result.Reject(change, downgrades.Causes[change.Key()])
	}
	return result, nil
}

func (u *GoModUpdaterRepository) applyChanges(
	dir, file, content string,
	changes []entities.DependencyVersionChange,
) (string, error) {
	modFile, err := modfile.Parse(file, []byte(content), nil)
	if err != nil {
		return "", err
	}

	modified := false
	for _, change := range changes {
		if change.Dependency == GoDirective {
			changed, goErr := u.setGoDirective(dir, modFile, change)
			if goErr != nil {
				return "", goErr
			}
			modified = modified || changed
			continue
		}

		version := moduleVersion(change.NewVersion)
		for _, require := range modFile.Require {
			if require.Mod.Path != change.Dependency || require.Mod.Version == version {
				continue
			}
			u.previous.Record(dir, change, require.Mod.Version)
			if err = modFile.AddRequire(change.Dependency, version); err != nil {
				return "", fmt.Errorf("failed to require %s@%s: %w", change.Dependency, version, err)
			}
			modified = true
			break
		}
	}
	if !modified {
		return content, nil
	}

	modFile.Cleanup()
	data, err := modFile.Format()
	if err != nil {
		return "", fmt.Errorf("failed to format %s: %w", file, err)
	}
	return string(data), nil
}

func (u *GoModUpdaterRepository) setGoDirective(
	dir string,
	modFile *modfile.File,
	change entities.DependencyVersionChange,
) (bool, error) {
	version := goVersion(change.NewVersion)
	if modFile.Go == nil || modFile.Go.Version == version {
		return false, nil
	}
	u.previous.Record(dir, change, modFile.Go.Version)
	if err := modFile.AddGoStmt(version); err != nil {
		return false, fmt.Errorf("failed to set go %s: %w", version, err)
	}
	return true, nil
}

func moduleVersion(version string) string {
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

func goVersion(version string) string {
	return strings.TrimPrefix(strings.TrimPrefix(version, "go"), "v")
}
