package entities

import (
	"fmt"
	"strings"
)

const (
	// BotLink prefixes every comment the bot writes.
	BotLink = "[UpdateBot](https://github.com/rios0rios0/updatebot)"

	CommandPushVersion = "push-version"
	CommandPushRegex   = "push-regex"
)

// Describer produces the text a command writes to commits and pull requests.
// Each command kind has its own implementation, chosen when the context is built.
type Describer interface {
	CommitMessage() string
	PullRequestTitle() string
	PullRequestTitlePrefix() string
	PullRequestBody() string
	// CommandComment is posted on pull requests; it embeds a ReplayCommand so
	// the update command can rebuild the change later.
	CommandComment() (string, error)
	OperationDescription() string
	Replay() ReplayCommand
}

// RegexOptions are the arguments of a regex push.
type RegexOptions struct {
	Regex               string   `json:"regex"`
	Value               string   `json:"value"`
	Files               []string `json:"files"`
	ExcludeFiles        []string `json:"excludeFiles,omitempty"`
	PreviousLinePattern string   `json:"previousLinePattern,omitempty"`
}

// ReplayCommand is the serialized form of the command that produced a pull request.
type ReplayCommand struct {
	Command string                    `json:"command"`
	Changes []DependencyVersionChange `json:"changes,omitempty"`
	Regex   *RegexOptions             `json:"regex,omitempty"`
}

// NewDescriber returns the describer matching a replayed command.
func NewDescriber(replay ReplayCommand) (Describer, error) {
	switch replay.Command {
	case CommandPushVersion:
		return NewPushVersionsDescriber(replay.Changes), nil
	case CommandPushRegex:
		if replay.Regex == nil {
			return nil, fmt.Errorf("command %q has no regex options", replay.Command)
		}
		return NewPushRegexDescriber(*replay.Regex), nil
	default:
		return nil, fmt.Errorf("unknown command %q", replay.Command)
	}
}

// PushVersionsDescriber describes a push of dependency versions. The title and
// the command comment follow the requested changes, which identify the pull
// request across passes; the commit and the body list what was applied.
type PushVersionsDescriber struct {
	changes []DependencyVersionChange
	applied []DependencyVersionChange
}

// NewPushVersionsDescriber creates a describer for the given changes.
func NewPushVersionsDescriber(changes []DependencyVersionChange) *PushVersionsDescriber {
	return &PushVersionsDescriber{changes: changes}
}

// WithApplied returns a describer whose commit message and body list applied
// instead of the requested changes.
func (d *PushVersionsDescriber) WithApplied(applied []DependencyVersionChange) *PushVersionsDescriber {
	return &PushVersionsDescriber{changes: d.changes, applied: applied}
}

func (d *PushVersionsDescriber) appliedChanges() []DependencyVersionChange {
	if len(d.applied) > 0 {
		return d.applied
	}
	return d.changes
}

func (d *PushVersionsDescriber) dependencies() string {
	return dependencyNames(d.changes)
}

func dependencyNames(changes []DependencyVersionChange) string {
	names := make([]string, 0, len(changes))
	for _, c := range changes {
		names = append(names, c.Dependency)
	}
	return strings.Join(names, ", ")
}

func (d *PushVersionsDescriber) versions() string {
	versions := make([]string, 0, len(d.changes))
	for _, c := range d.changes {
		versions = append(versions, c.NewVersion)
	}
	return strings.Join(versions, ", ")
}

func (d *PushVersionsDescriber) CommitMessage() string {
	applied := d.appliedChanges()
	if len(applied) == 1 {
		return fmt.Sprintf("fix(version): update %s to %s", applied[0].Dependency, applied[0].NewVersion)
	}
	var sb strings.Builder
	sb.WriteString("fix(versions): update " + dependencyNames(applied) + "\n")
	for _, c := range applied {
		sb.WriteString("\n* " + c.Dependency + " to " + c.NewVersion)
	}
	return sb.String()
}

func (d *PushVersionsDescriber) PullRequestTitlePrefix() string {
	return "update " + d.dependencies() + " to "
}

func (d *PushVersionsDescriber) PullRequestTitle() string {
	return d.PullRequestTitlePrefix() + d.versions()
}

func (d *PushVersionsDescriber) PullRequestBody() string {
	var sb strings.Builder
	sb.WriteString(BotLink + " pushed versions:\n\n")
	sb.WriteString("| kind | dependency | version |\n|---|---|---|\n")
	for _, c := range d.appliedChanges() {
		version := "`" + c.NewVersion + "`"
		if c.OldVersion != "" {
			version = "`" + c.OldVersion + "` → " + version
		}
		sb.WriteString(fmt.Sprintf("| %s | `%s` | %s |\n", c.Kind, c.Dependency, version))
	}
	return sb.String()
}

func (d *PushVersionsDescriber) CommandComment() (string, error) {
	return commandComment(d.Replay(), "push-version "+DescribeChanges(d.changes))
}

func (d *PushVersionsDescriber) OperationDescription() string {
	return "pushing versions"
}

func (d *PushVersionsDescriber) Replay() ReplayCommand {
	return ReplayCommand{Command: CommandPushVersion, Changes: d.changes}
}

// PushRegexDescriber describes a regex push.
type PushRegexDescriber struct {
	options RegexOptions
}

// NewPushRegexDescriber creates a describer for the given regex push.
func NewPushRegexDescriber(options RegexOptions) *PushRegexDescriber {
	return &PushRegexDescriber{options: options}
}

func (d *PushRegexDescriber) CommitMessage() string {
	return "fix(regex): update " + d.options.Regex + " to " + d.options.Value
}

func (d *PushRegexDescriber) PullRequestTitlePrefix() string {
	return "update " + d.options.Regex + " to "
}

func (d *PushRegexDescriber) PullRequestTitle() string {
	return d.PullRequestTitlePrefix() + d.options.Value
}

func (d *PushRegexDescriber) PullRequestBody() string {
	return BotLink + " pushed regex: `" + d.options.Regex + "` to: `" + d.options.Value + "`"
}

func (d *PushRegexDescriber) CommandComment() (string, error) {
	return commandComment(d.Replay(), "push-regex "+d.options.Regex+" "+d.options.Value)
}

func (d *PushRegexDescriber) OperationDescription() string {
	return "pushing regex"
}

func (d *PushRegexDescriber) Replay() ReplayCommand {
	options := d.options
	return ReplayCommand{Command: CommandPushRegex, Regex: &options}
}

func commandComment(replay ReplayCommand, summary string) (string, error) {
	return EmbedData(CommandMarker, BotLink+" commands:\n\n```\n"+summary+"\n```", replay)
}
