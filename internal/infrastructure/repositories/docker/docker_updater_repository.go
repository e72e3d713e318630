package docker

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const dockerfileName = "Dockerfile"

// DockerUpdaterRepository rewrites image tags in `FROM image:tag` lines and
// values in `ENV NAME value` lines of the top-level Dockerfiles.
type DockerUpdaterRepository struct {
	editor   *textfile.Editor
	previous *textfile.PreviousVersions
}

func NewDockerUpdaterRepository(editor *textfile.Editor) repositories.UpdaterRepository {
	return &DockerUpdaterRepository{editor: editor, previous: textfile.NewPreviousVersions()}
}

func (u *DockerUpdaterRepository) Kind() entities.Kind { return entities.KindDocker }

// Reset forgets the versions replaced during the previous pass.
func (u *DockerUpdaterRepository) Reset() { u.previous.Clear() }

func (u *DockerUpdaterRepository) PushVersions(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	dir := cctx.Repository.Dir
	files, err := u.editor.TopLevelFiles(dir, isDockerfile)
	if err != nil || len(files) == 0 {
		return false, err
	}

	answer := false
	for _, file := range files {
		changed, editErr := u.editor.EditLines(file, func(lines []string) bool {
			modified := false
			for _, change := range changes {
				if replaceDockerStatements(lines, change, func(previous string) {
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

func (u *DockerUpdaterRepository) CheckDependencies(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	return u.previous.Check(cctx.Repository.Dir, entities.KindDocker, changes), nil
}

func isDockerfile(name string) bool {
	return name == dockerfileName || strings.HasPrefix(name, dockerfileName+".")
}

func replaceDockerStatements(lines []string, change entities.DependencyVersionChange, record func(string)) bool {
	prefixes := []string{
		"FROM " + change.Dependency + ":",
		"ENV " + change.Dependency + " ",
	}

	answer := false
	for i, line := range lines {
		for _, prefix := range prefixes {
			if !strings.HasPrefix(line, prefix) {
				continue
			}
			current := strings.TrimSpace(line[len(prefix):])
			if current == change.NewVersion {
				continue
			}
			record(current)
			lines[i] = prefix + change.NewVersion
			answer = true
		}
	}
	return answer
}
