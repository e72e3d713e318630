package textfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const gitDir = ".git"

// Editor rewrites text files of a working copy line by line.
type Editor struct {
	fs afero.Fs
}

// NewEditor creates an editor over the given filesystem.
func NewEditor(fs afero.Fs) *Editor {
	return &Editor{fs: fs}
}

// TopLevelFiles returns the regular files directly inside dir whose name matches.
func (e *Editor) TopLevelFiles(dir string, match func(name string) bool) ([]string, error) {
	exists, err := afero.DirExists(e.fs, dir)
	if err != nil || !exists {
		return nil, err
	}

	infos, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, info := range infos {
		if info.IsDir() || !match(info.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, info.Name()))
	}
	return files, nil
}

// WalkFiles returns every regular file under dir as a slash separated path
// relative to dir, sorted. The .git directory and any directory in skipDirs are ignored.
func (e *Editor) WalkFiles(dir string, skipDirs ...string) ([]string, error) {
	skip := map[string]bool{gitDir: true}
	for _, name := range skipDirs {
		skip[name] = true
	}

	var files []string
	err := afero.Walk(e.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && skip[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		relative, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(relative))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// EditLines hands the lines of path to edit and writes them back when edit
// reports a modification. Binary files are left alone.
func (e *Editor) EditLines(path string, edit func(lines []string) bool) (bool, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return false, nil
	}

	lines := strings.Split(string(data), "\n")
	if !edit(lines) {
		return false, nil
	}

	if err = afero.WriteFile(e.fs, path, []byte(strings.Join(lines, "\n")), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// ReadFile returns the content of path.
func (e *Editor) ReadFile(path string) (string, error) {
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Rewrite replaces the content of path with the result of edit when it differs.
func (e *Editor) Rewrite(path string, edit func(content string) (string, error)) (bool, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	content, err := e.ReadFile(path)
	if err != nil {
		return false, err
	}

	updated, err := edit(content)
	if err != nil {
		return false, fmt.Errorf("failed to edit %s: %w", path, err)
	}
	if updated == content {
		return false, nil
	}
	if err = afero.WriteFile(e.fs, path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
