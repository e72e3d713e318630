package makefile

import (
	"context"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const makefileName = "Makefile"

// MakeUpdaterRepository rewrites `NAME := value` assignments of the top-level Makefiles.
type MakeUpdaterRepository struct {
	editor   *textfile.Editor
	previous *textfile.PreviousVersions
}

func NewMakeUpdaterRepository(editor *textfile.Editor) repositories.UpdaterRepository {
	return &MakeUpdaterRepository{editor: editor, previous: textfile.NewPreviousVersions()}
}

func (u *MakeUpdaterRepository) Kind() entities.Kind { return entities.KindMake }

// Reset forgets the versions replaced during the previous pass.
func (u *MakeUpdaterRepository) Reset() { u.previous.Clear() }

func (u *MakeUpdaterRepository) PushVersions(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	dir := cctx.Repository.Dir
	files, err := u.editor.TopLevelFiles(dir, func(name string) bool {
		return name == makefileName || strings.HasPrefix(name, makefileName+".")
	})
	if err != nil || len(files) == 0 {
		return false, err
	}

	answer := false
	for _, file := range files {
		changed, editErr := u.editor.EditLines(file, func(lines []string) bool {
			modified := false
			for _, change := range changes {
				if ReplaceMakefileStatement(lines, change.Dependency, change.NewVersion, func(previous string) {
					u.previous.Record(dir, change, previous)
				}) {
					modified = true
				}
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

func (u *MakeUpdaterRepository) CheckDependencies(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	return u.previous.Check(cctx.Repository.Dir, entities.KindMake, changes), nil
}

// ReplaceMakefileStatement sets the value of every `name := value` line. record
// receives each value being replaced and may be nil.
func ReplaceMakefileStatement(lines []string, name, value string, record func(string)) bool {
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\s*:=\s*(.+)$`)

	answer := false
	for i, line := range lines {
		match := pattern.FindStringSubmatchIndex(line)
		if match == nil {
			continue
		}
		newLine := line[:match[2]] + value + line[match[3]:]
		if newLine == line {
			continue
		}
		if record != nil {
			record(line[match[2]:match[3]])
		}
		lines[i] = newLine
		answer = true
	}
	return answer
}
