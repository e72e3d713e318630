package terraform

import (
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

var (
	refPattern       = regexp.MustCompile(`[?&]ref=([^&\s"]+)`)
	moduleRefPattern = regexp.MustCompile(`(?s)module\s+"([^"]+)"\s*\{[^}]*source\s*=\s*"([^"]+)"`)
	refParamPattern  = regexp.MustCompile(`([?&])ref=[^&\s"]+&?`)
)

// ModuleReference is a module call pinned either by a `?ref=` on its source or
// by a `version` attribute.
type ModuleReference struct {
	Name      string // block label
	RawSource string // source attribute as written
	Source    string // source without the ref parameter
	Version   string
	Ref       bool // pinned through the source ref rather than the version attribute
	Line      int
}

// Matches reports whether a dependency name designates this module: its label,
// its source or the repository part of its source.
func (m ModuleReference) Matches(dependency string) bool {
	return dependency == m.Name || dependency == m.Source || dependency == SourceBase(m.Source)
}

// ScanModules parses a Terraform file and returns its pinned module calls.
// Files HCL cannot parse are scanned with a regular expression for `?ref=` pins.
func ScanModules(content, filePath string) []ModuleReference {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(content), filePath)
	if diags.HasErrors() || file.Body == nil {
		return scanWithRegex(content)
	}

	bodyContent, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "module", LabelNames: []string{"name"}},
		},
	})
	if diags.HasErrors() {
		return scanWithRegex(content)
	}

	var modules []ModuleReference
	for _, block := range bodyContent.Blocks {
		attrs, _ := block.Body.JustAttributes()
		source, ok := stringAttribute(attrs, "source")
		if !ok {
			continue
		}

		module := ModuleReference{
			Name:      block.Labels[0],
			RawSource: source,
			Line:      block.DefRange.Start.Line,
		}
		if version := extractRef(source); version != "" {
			module.Source = removeRef(source)
			module.Version = version
			module.Ref = true
		} else if version, hasVersion := stringAttribute(attrs, "version"); hasVersion {
			module.Source = source
			module.Version = version
		} else {
			continue
		}
		modules = append(modules, module)
	}
	return modules
}

func stringAttribute(attrs hcl.Attributes, name string) (string, bool) {
	attr, ok := attrs[name]
	if !ok {
		return "", false
	}
	value, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || value.IsNull() || value.Type() != cty.String {
		return "", false
	}
	return value.AsString(), true
}

func scanWithRegex(content string) []ModuleReference {
	var modules []ModuleReference
	for _, match := range moduleRefPattern.FindAllStringSubmatchIndex(content, -1) {
		source := content[match[4]:match[5]]
		version := extractRef(source)
		if version == "" {
			continue
		}
		modules = append(modules, ModuleReference{
			Name:      content[match[2]:match[3]],
			RawSource: source,
			Source:    removeRef(source),
			Version:   version,
			Ref:       true,
			Line:      strings.Count(content[:match[0]], "\n") + 1,
		})
	}
	return modules
}

func extractRef(source string) string {
	if matches := refPattern.FindStringSubmatch(source); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

func removeRef(source string) string {
	cleaned := refParamPattern.ReplaceAllString(source, "$1")
	return strings.TrimRight(cleaned, "?&")
}

// SourceBase strips the git:: prefix, the query and any //subdirectory.
func SourceBase(source string) string {
	source = strings.TrimPrefix(source, "git::")
	if idx := strings.Index(source, "?"); idx != -1 {
		source = source[:idx]
	}
	schemeEnd := 0
	if idx := strings.Index(source, "://"); idx != -1 {
		schemeEnd = idx + len("://")
	}
	if idx := strings.Index(source[schemeEnd:], "//"); idx != -1 {
		source = source[:schemeEnd+idx]
	}
	return source
}

// BuildSourceWithVersion pins source at version through its ref parameter.
func BuildSourceWithVersion(source, version string) string {
	clean := removeRef(source)
	if strings.Contains(clean, "?") {
		return clean + "&ref=" + version
	}
	return clean + "?ref=" + version
}
