package regex

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/ryanuber/go-glob"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

var errNoCaptureGroup = errors.New("regex must contain a capture group")

// RegexUpdaterRepository replaces the first capture group of every line matching
// a regular expression. As a kind updater the dependency is the expression and
// the new version its replacement, applied to every file.
type RegexUpdaterRepository struct {
	editor *textfile.Editor
}

func NewRegexUpdaterRepository(editor *textfile.Editor) *RegexUpdaterRepository {
	return &RegexUpdaterRepository{editor: editor}
}

var (
	_ repositories.UpdaterRepository      = (*RegexUpdaterRepository)(nil)
	_ repositories.RegexUpdaterRepository = (*RegexUpdaterRepository)(nil)
)

func (u *RegexUpdaterRepository) Kind() entities.Kind { return entities.KindRegex }

func (u *RegexUpdaterRepository) PushVersions(
	ctx context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	answer := false
	for _, change := range changes {
		changed, err := u.PushRegex(ctx, cctx, entities.RegexOptions{Regex: change.Dependency, Value: change.NewVersion})
		if err != nil {
			return false, err
		}
		if changed {
			answer = true
		}
	}
	return answer, nil
}

// CheckDependencies only rejects changes without a replacement value or with an invalid expression.
func (u *RegexUpdaterRepository) CheckDependencies(
	_ context.Context,
	_ *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	result := entities.NewKindDependenciesCheck(entities.KindRegex)
	for _, change := range changes {
		if _, err := compileLinePattern(change.Dependency); err != nil {
			result.Reject(change, err.Error())
			continue
		}
		if change.NewVersion == "" {
			result.Reject(change, "no target version given")
			continue
		}
		result.Accept(change)
	}
	return result, nil
}

// PushRegex rewrites every selected file of the working copy. A line only
// matches when the whole line matches the expression and, with a previous line
// pattern, when the line before matches that pattern too.
func (u *RegexUpdaterRepository) PushRegex(
	_ context.Context,
	cctx *entities.CommandContext,
	options entities.RegexOptions,
) (bool, error) {
	pattern, err := compileLinePattern(options.Regex)
	if err != nil {
		return false, err
	}
	var previousLine *regexp.Regexp
	if options.PreviousLinePattern != "" {
		if previousLine, err = regexp.Compile(`^(?:` + options.PreviousLinePattern + `)$`); err != nil {
			return false, fmt.Errorf("invalid previous line pattern %q: %w", options.PreviousLinePattern, err)
		}
	}

	dir := cctx.Repository.Dir
	files, err := u.editor.WalkFiles(dir)
	if err != nil {
		return false, err
	}

	answer := false
	for _, file := range files {
		if !selected(file, options.Files, options.ExcludeFiles) {
			continue
		}
		changed, editErr := u.editor.EditLines(filepath.Join(dir, filepath.FromSlash(file)), func(lines []string) bool {
			return replaceLines(lines, pattern, previousLine, options.Value)
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

func compileLinePattern(expression string) (*regexp.Regexp, error) {
	pattern, err := regexp.Compile(`^(?:` + expression + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", expression, err)
	}
	if pattern.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: %q", errNoCaptureGroup, expression)
	}
	return pattern, nil
}

// selected applies the include globs (all files when empty) then the exclude globs.
func selected(file string, includes, excludes []string) bool {
	if len(includes) > 0 && !matchesAny(file, includes) {
		return false
	}
	return !matchesAny(file, excludes)
}

func matchesAny(file string, patterns []string) bool {
	for _, pattern := range patterns {
		if glob.Glob(pattern, file) || glob.Glob(pattern, filepath.Base(file)) {
			return true
		}
	}
	return false
}

func replaceLines(lines []string, pattern, previousLine *regexp.Regexp, value string) bool {
	answer := false
	for i, line := range lines {
		match := pattern.FindStringSubmatchIndex(line)
		if match == nil || match[2] < 0 {
			continue
		}
		if previousLine != nil && (i == 0 || !previousLine.MatchString(lines[i-1])) {
			continue
		}
		newLine := line[:match[2]] + value + line[match[3]:]
		if newLine != line {
			lines[i] = newLine
			answer = true
		}
	}
	return answer
}
