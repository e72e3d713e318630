package pip

import (
	"context"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const (
	pythonVersionFile = ".python-version"

	// PythonRuntime names the interpreter version pinned by .python-version.
	PythonRuntime = "python"
)

var (
	pinPattern    = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[^\]]*\])?(\s*==\s*)([^\s;#]+)(.*)$`)
	nameSeparator = regexp.MustCompile(`[-_.]+`)
)

// PipUpdaterRepository rewrites `name==version` pins of the top-level
// requirements files and the interpreter version of .python-version.
type PipUpdaterRepository struct {
	editor   *textfile.Editor
	previous *textfile.PreviousVersions
}

func NewPipUpdaterRepository(editor *textfile.Editor) repositories.UpdaterRepository {
	return &PipUpdaterRepository{editor: editor, previous: textfile.NewPreviousVersions()}
}

func (u *PipUpdaterRepository) Kind() entities.Kind { return entities.KindPip }

// Reset forgets the versions replaced during the previous pass.
func (u *PipUpdaterRepository) Reset() { u.previous.Clear() }

func (u *PipUpdaterRepository) PushVersions(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	dir := cctx.Repository.Dir
	files, err := u.editor.TopLevelFiles(dir, func(name string) bool {
		return name == pythonVersionFile || (strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
	})
	if err != nil || len(files) == 0 {
		return false, err
	}

	answer := false
	for _, file := range files {
		versionFile := strings.HasSuffix(file, pythonVersionFile)
		changed, editErr := u.editor.EditLines(file, func(lines []string) bool {
			modified := false
			for _, change := range changes {
				record := func(previous string) { u.previous.Record(dir, change, previous) }
				var replaced bool
				switch {
				case versionFile && change.Dependency == PythonRuntime:
					replaced = textfile.ReplaceVersionLine(lines, change.NewVersion, record)
				case !versionFile:
					replaced = ReplaceRequirementPin(lines, change.Dependency, change.NewVersion, record)
				}
				modified = modified || replaced
			}
			return modified
		})
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

func (u *PipUpdaterRepository) CheckDependencies(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	return u.previous.Check(cctx.Repository.Dir, entities.KindPip, changes), nil
}

// ReplaceRequirementPin sets the exact pin of a requirement. Names compare the
// way pip normalizes them, so "Foo_Bar" pins "foo-bar". Extras, environment
// markers and comments are kept. record may be nil.
func ReplaceRequirementPin(lines []string, name, version string, record func(string)) bool {
	want := normalizeName(name)

	answer := false
	for i, line := range lines {
		match := pinPattern.FindStringSubmatch(line)
		if match == nil || normalizeName(match[1]) != want || match[4] == version {
			continue
		}
		if record != nil {
			record(match[4])
		}
		lines[i] = match[1] + match[2] + match[3] + version + match[5]
		answer = true
	}
	return answer
}

func normalizeName(name string) string {
	return strings.ToLower(nameSeparator.ReplaceAllString(name, "-"))
}
