package npm

import (
	"context"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const (
	packageJSONName = "package.json"
	nodeModulesDir  = "node_modules"

	// NodeRuntime names the Node.js version pinned by .nvmrc and .node-version.
	NodeRuntime = "node"
)

var (
	//nolint:gochecknoglobals // read-only lookup table
	dependencySections = map[string]bool{
		"dependencies":         true,
		"devDependencies":      true,
		"peerDependencies":     true,
		"optionalDependencies": true,
	}
	sectionStart = regexp.MustCompile(`^\s*"([^"]+)"\s*:\s*\{\s*$`)
	rangePrefix  = regexp.MustCompile(`^[\^~>=<\s]*`)
)

// NpmUpdaterRepository rewrites the version ranges of package.json dependency
// sections, keeping their range operator, and the Node.js version files.
type NpmUpdaterRepository struct {
	editor   *textfile.Editor
	previous *textfile.PreviousVersions
}

func NewNpmUpdaterRepository(editor *textfile.Editor) repositories.UpdaterRepository {
	return &NpmUpdaterRepository{editor: editor, previous: textfile.NewPreviousVersions()}
}

func (u *NpmUpdaterRepository) Kind() entities.Kind { return entities.KindNpm }

// Reset forgets the versions replaced during the previous pass.
func (u *NpmUpdaterRepository) Reset() { u.previous.Clear() }

func (u *NpmUpdaterRepository) PushVersions(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	dir := cctx.Repository.Dir
	files, err := u.editor.WalkFiles(dir, nodeModulesDir)
	if err != nil {
		return false, err
	}

	answer := false
	for _, file := range files {
		var edit func(lines []string) bool
		switch {
		case path.Base(file) == packageJSONName:
			edit = func(lines []string) bool {
				modified := false
				for _, change := range changes {
					if change.Dependency == NodeRuntime {
						continue
					}
					if ReplacePackageVersion(lines, change.Dependency, change.NewVersion, func(previous string) {
						u.previous.Record(dir, change, previous)
					}) {
						modified = true
					}
				}
				return modified
			}
		case file == ".nvmrc" || file == ".node-version":
			edit = func(lines []string) bool {
				modified := false
				for _, change := range changes {
					if change.Dependency == NodeRuntime && textfile.ReplaceVersionLine(lines, change.NewVersion, func(previous string) {
						u.previous.Record(dir, change, previous)
					}) {
						modified = true
					}
				}
				return modified
			}
		default:
			continue
		}

		changed, editErr := u.editor.EditLines(filepath.Join(dir, filepath.FromSlash(file)), edit)
		if editErr != nil {
			return false, editErr
		}
		if changed {
			logger.Debugf("%s Updated %s", cctx.LogPrefix(), file)
			answer = true
		}
	}
	return answer, nil
}

func (u *NpmUpdaterRepository) CheckDependencies(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	return u.previous.Check(cctx.Repository.Dir, entities.KindNpm, changes), nil
}

// ReplacePackageVersion sets the version of name in the dependency sections of
// package.json lines. Non-numeric specifiers (tags, git and file references) are
// left alone. record receives each replaced version and may be nil.
func ReplacePackageVersion(lines []string, name, version string, record func(string)) bool {
	entry := regexp.MustCompile(`^(\s*"` + regexp.QuoteMeta(name) + `"\s*:\s*")([^"]*)(".*)$`)

	answer := false
	section := ""
	for i, line := range lines {
		if match := sectionStart.FindStringSubmatch(line); match != nil {
			section = match[1]
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), "}") {
			section = ""
			continue
		}
		if !dependencySections[section] {
			continue
		}

		match := entry.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		current := match[2]
		prefix := rangePrefix.FindString(current)
		pinned := current[len(prefix):]
		if pinned == "" || pinned[0] < '0' || pinned[0] > '9' {
			continue
		}
		next := prefix + strings.TrimPrefix(version, "v")
		if next == current {
			continue
		}
		if record != nil {
			record(pinned)
		}
		lines[i] = match[1] + next + match[3]
		answer = true
	}
	return answer
}
