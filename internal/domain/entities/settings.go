package entities

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPollPeriod       = 2 * time.Minute
	DefaultPollTimeout      = time.Hour
	DefaultMergeMethod      = "merge"
	DefaultPullRequestLabel = "updatebot"
)

// Settings is the top-level configuration for updatebot.
type Settings struct {
	WorkDir           string               `yaml:"work_dir"`
	DryRun            bool                 `yaml:"dry_run"`
	RebaseMode        bool                 `yaml:"rebase_mode"`
	CheckDependencies bool                 `yaml:"check_dependencies"`
	Merge             bool                 `yaml:"merge"`
	MergeMethod       string               `yaml:"merge_method"`
	PullRequestLabel  string               `yaml:"pull_request_label"`
	ProwCommand       string               `yaml:"prow_pr_command"`
	PollPeriod        time.Duration        `yaml:"poll_period"`
	PollTimeout       time.Duration        `yaml:"poll_timeout"`
	Parallelism       int                  `yaml:"parallelism"`
	Changelog         string               `yaml:"changelog"` // file to record pushed versions in, empty to skip
	Providers         []ProviderSettings   `yaml:"providers"`
	Repositories      []RepositorySettings `yaml:"repositories"`

	// pollTimeoutSet tells an explicit zero timeout apart from an absent one
	pollTimeoutSet bool
}

// ProviderSettings describes one forge instance.
type ProviderSettings struct {
	Type    string `yaml:"type"`     // "github", "gitlab"
	Token   string `yaml:"token"`    // inline, ${ENV_VAR}, or file path
	BaseURL string `yaml:"base_url"` // empty for the public instance
}

// RepositorySettings describes one downstream repository.
type RepositorySettings struct {
	CloneURL             string `yaml:"clone_url"`
	Branch               string `yaml:"branch"`
	UseSinglePullRequest bool   `yaml:"use_single_pull_request"`
	Provider             string `yaml:"provider"` // defaults to the host of the clone URL
}

// environmentOverrides are read with envconfig and applied on top of the file.
// Values stay strings so that an unset variable is distinguishable from a zero value.
type environmentOverrides struct {
	WorkDir          string `env:"UPDATEBOT_WORK_DIR"`
	DryRun           string `env:"UPDATEBOT_DRY_RUN"`
	PollPeriod       string `env:"UPDATEBOT_POLL_PERIOD"`
	PollTimeout      string `env:"UPDATEBOT_POLL_TIMEOUT"`
	Merge            string `env:"UPDATEBOT_MERGE"`
	MergeMethod      string `env:"UPDATEBOT_MERGE_METHOD"`
	PullRequestLabel string `env:"UPDATEBOT_GITHUB_PR_LABEL"`
	ProwCommand      string `env:"UPDATEBOT_PROW_PR_COMMAND"`
	GitHubToken      string `env:"UPDATEBOT_GITHUB_TOKEN"`
	GitLabToken      string `env:"UPDATEBOT_GITLAB_TOKEN"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and parses a configuration file, applies UPDATEBOT_* overrides,
// resolves tokens and fills defaults.
func NewSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}
	var explicit struct {
		PollTimeout *time.Duration `yaml:"poll_timeout"`
	}
	if unmarshalErr := yaml.Unmarshal(data, &explicit); unmarshalErr == nil {
		settings.pollTimeoutSet = explicit.PollTimeout != nil
	}

	if envErr := settings.applyEnvironment(context.Background(), envconfig.OsLookuper()); envErr != nil {
		return nil, envErr
	}

	for i := range settings.Providers {
		settings.Providers[i].Token = resolveToken(settings.Providers[i].Token)
	}
	settings.applyDefaults()

	if validateErr := validate(&settings); validateErr != nil {
		return nil, validateErr
	}
	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	if fromEnv := os.Getenv("UPDATEBOT_CONFIG_FILE"); fromEnv != "" {
		return fromEnv, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{".", ".config", "configs"}
	if homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".updatebot.yaml",
		".updatebot.yml",
		"updatebot.yaml",
		"updatebot.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Provider returns the forge settings of the given type, if configured.
func (s *Settings) Provider(providerType string) (ProviderSettings, bool) {
	for _, p := range s.Providers {
		if p.Type == providerType {
			return p, true
		}
	}
	return ProviderSettings{}, false
}

// RepositoryTargets builds the read-only repository list the commands work on.
func (s *Settings) RepositoryTargets() []Repository {
	targets := make([]Repository, 0, len(s.Repositories))
	for _, rs := range s.Repositories {
		repo := NewRepositoryFromCloneURL(rs.CloneURL, s.WorkDir)
		repo.Branch = rs.Branch
		repo.UseSinglePullRequest = rs.UseSinglePullRequest
		repo.ProviderName = rs.Provider
		if repo.ProviderName == "" {
			repo.ProviderName = providerFromHost(repo.Host())
		}
		if provider, ok := s.Provider(repo.ProviderName); ok {
			repo.Token = provider.Token
		}
		targets = append(targets, repo)
	}
	return targets
}

func providerFromHost(host string) string {
	switch {
	case strings.Contains(host, "gitlab"):
		return "gitlab"
	default:
		return "github"
	}
}

func (s *Settings) applyEnvironment(ctx context.Context, lookuper envconfig.Lookuper) error {
	var env environmentOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: lookuper}); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}

	if env.WorkDir != "" {
		s.WorkDir = env.WorkDir
	}
	if env.MergeMethod != "" {
		s.MergeMethod = env.MergeMethod
	}
	if env.PullRequestLabel != "" {
		s.PullRequestLabel = env.PullRequestLabel
	}
	if env.ProwCommand != "" {
		s.ProwCommand = env.ProwCommand
	}

	var err error
	if s.DryRun, err = overrideBool("UPDATEBOT_DRY_RUN", env.DryRun, s.DryRun); err != nil {
		return err
	}
	if s.Merge, err = overrideBool("UPDATEBOT_MERGE", env.Merge, s.Merge); err != nil {
		return err
	}
	if s.PollPeriod, err = overrideDuration("UPDATEBOT_POLL_PERIOD", env.PollPeriod, s.PollPeriod); err != nil {
		return err
	}
	if s.PollTimeout, err = overrideDuration("UPDATEBOT_POLL_TIMEOUT", env.PollTimeout, s.PollTimeout); err != nil {
		return err
	}
	if env.PollTimeout != "" {
		s.pollTimeoutSet = true
	}

	s.overrideToken("github", env.GitHubToken)
	s.overrideToken("gitlab", env.GitLabToken)
	return nil
}

func (s *Settings) overrideToken(providerType, token string) {
	if token == "" {
		return
	}
	for i := range s.Providers {
		if s.Providers[i].Type == providerType {
			s.Providers[i].Token = token
			return
		}
	}
	s.Providers = append(s.Providers, ProviderSettings{Type: providerType, Token: token})
}

func (s *Settings) applyDefaults() {
	if s.WorkDir == "" {
		s.WorkDir = filepath.Join(os.TempDir(), "updatebot")
	}
	if s.MergeMethod == "" {
		s.MergeMethod = DefaultMergeMethod
	}
	if s.PullRequestLabel == "" {
		s.PullRequestLabel = DefaultPullRequestLabel
	}
	if s.PollPeriod <= 0 {
		s.PollPeriod = DefaultPollPeriod
	}
	// zero or a negative timeout disables the deadline once given explicitly
	if s.PollTimeout == 0 && !s.pollTimeoutSet {
		s.PollTimeout = DefaultPollTimeout
	}
	if s.Parallelism <= 0 {
		s.Parallelism = 1
	}
}

func overrideBool(name, raw string, current bool) (bool, error) {
	if raw == "" {
		return current, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return current, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
	}
	return value, nil
}

// overrideDuration accepts Go durations ("90s") or a plain number of milliseconds.
func overrideDuration(name, raw string, current time.Duration) (time.Duration, error) {
	if raw == "" {
		return current, nil
	}
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(millis) * time.Millisecond, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return current, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
	}
	return value, nil
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

func validate(settings *Settings) error {
	if len(settings.Repositories) == 0 {
		return errors.New("at least one repository must be configured")
	}

	for i, p := range settings.Providers {
		if p.Type == "" {
			return fmt.Errorf("providers[%d].type is required", i)
		}
		if p.Token == "" {
			return fmt.Errorf(
				"providers[%d].token is required (set inline, via ${ENV_VAR}, or as file path)",
				i,
			)
		}
	}

	for i, r := range settings.Repositories {
		if r.CloneURL == "" {
			return fmt.Errorf("repositories[%d].clone_url is required", i)
		}
	}

	switch settings.MergeMethod {
	case "merge", "squash", "rebase":
	default:
		return fmt.Errorf("merge_method must be one of merge, squash or rebase, got %q", settings.MergeMethod)
	}
	return nil
}
