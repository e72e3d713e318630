package terraform

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	logger "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	"github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/textfile"
)

const (
	terraformExtension = ".tf"
	terraformCacheDir  = ".terraform"
)

var constraintOperator = regexp.MustCompile(`^\s*(~>|>=|<=|!=|=|>|<)\s*`)

// TerraformUpdaterRepository re-pins module calls, either the `?ref=` of git
// sources or the `version` attribute of registry modules.
type TerraformUpdaterRepository struct {
	editor   *textfile.Editor
	previous *textfile.PreviousVersions
}

func NewTerraformUpdaterRepository(editor *textfile.Editor) repositories.UpdaterRepository {
	return &TerraformUpdaterRepository{editor: editor, previous: textfile.NewPreviousVersions()}
}

func (u *TerraformUpdaterRepository) Kind() entities.Kind { return entities.KindTerraform }

// Reset forgets the versions replaced during the previous pass.
func (u *TerraformUpdaterRepository) Reset() { u.previous.Clear() }

func (u *TerraformUpdaterRepository) PushVersions(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (bool, error) {
	dir := cctx.Repository.Dir
	files, err := u.editor.WalkFiles(dir, terraformCacheDir)
	if err != nil {
		return false, err
	}

	answer := false
	for _, file := range files {
		if filepath.Ext(file) != terraformExtension {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(file))
		changed, rewriteErr := u.editor.Rewrite(path, func(content string) (string, error) {
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

// CheckDependencies rejects targets that are not semantic versions and downgrades.
func (u *TerraformUpdaterRepository) CheckDependencies(
	_ context.Context,
	cctx *entities.CommandContext,
	changes []entities.DependencyVersionChange,
) (entities.KindDependenciesCheck, error) {
	result := entities.NewKindDependenciesCheck(entities.KindTerraform)

	var versioned []entities.DependencyVersionChange
	for _, change := range changes {
		if _, err := semver.NewVersion(change.NewVersion); err != nil {
			result.Reject(change, fmt.Sprintf("%q is not a semantic version", change.NewVersion))
			continue
		}
		versioned = append(versioned, change)
	}

	downgrades := u.previous.Check(cctx.Repository.Dir, entities.KindTerraform, versioned)
	for _, change := range downgrades.Valid {
		result.Accept(change)
	}
	for _, change := range downgrades.Invalid {
		result.Reject(change, downgrades.Causes[change.Key()])
	}
	return result, nil
}

func (u *TerraformUpdaterRepository) applyChanges(
	dir, file, content string,
	changes []entities.DependencyVersionChange,
) (string, error) {
	modules := ScanModules(content, file)
	if len(modules) == 0 {
		return content, nil
	}

	hclFile, diags := hclwrite.ParseConfig([]byte(content), file, hcl.InitialPos)
	if diags.HasErrors() {
		logger.Debugf("Skipping %s as it cannot be rewritten: %s", file, diags.Error())
		return content, nil
	}

	for _, block := range hclFile.Body().Blocks() {
		if block.Type() != "module" || len(block.Labels()) == 0 {
			continue
		}
		module, found := findModule(modules, block.Labels()[0])
		if !found {
			continue
		}
		for _, change := range changes {
			if !module.Matches(change.Dependency) {
				continue
			}
			if module.Ref {
				if module.Version == change.NewVersion {
					continue
				}
				u.previous.Record(dir, change, module.Version)
				source := BuildSourceWithVersion(module.RawSource, change.NewVersion)
				block.Body().SetAttributeValue("source", cty.StringVal(source))
				continue
			}
			pinned := pinVersion(module.Version, change.NewVersion)
			if pinned == module.Version {
				continue
			}
			u.previous.Record(dir, change, constraintOperator.ReplaceAllString(module.Version, ""))
			block.Body().SetAttributeValue("version", cty.StringVal(pinned))
		}
	}
	return string(hclFile.Bytes()), nil
}

func findModule(modules []ModuleReference, name string) (ModuleReference, bool) {
	for _, module := range modules {
		if module.Name == name {
			return module, true
		}
	}
	return ModuleReference{}, false
}

// pinVersion keeps the constraint operator of the current version attribute.
func pinVersion(current, version string) string {
	if operator := constraintOperator.FindStringSubmatch(current); operator != nil {
		return operator[1] + " " + strings.TrimSpace(version)
	}
	return version
}
