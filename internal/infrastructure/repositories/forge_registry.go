package repositories

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/rios0rios0/updatebot/internal/domain/entities"
	domainRepos "github.com/rios0rios0/updatebot/internal/domain/repositories"
	"github.com/rios0rios0/updatebot/internal/infrastructure/repositories/retry"
)

const (
	// forgeCallsPerSecond is shared by every forge of the process.
	forgeCallsPerSecond = 10
	forgeCallsBurst     = 20
)

// ForgeFactory creates a connected forge from its provider settings.
type ForgeFactory func(settings entities.ProviderSettings) (domainRepos.ForgeRepository, error)

// ForgeRegistry manages all registered forge implementations and connects the
// ones named in the settings.
type ForgeRegistry struct {
	factories map[string]ForgeFactory
	limiter   *rate.Limiter
	policy    retry.Policy
}

// NewForgeRegistry creates an empty registry whose forges retry on the given clock.
func NewForgeRegistry(clock clockwork.Clock) *ForgeRegistry {
	return &ForgeRegistry{
		factories: make(map[string]ForgeFactory),
		limiter:   rate.NewLimiter(rate.Limit(forgeCallsPerSecond), forgeCallsBurst),
		policy:    retry.DefaultPolicy(clock),
	}
}

// Register adds a forge factory under the given name (e.g. "github").
func (r *ForgeRegistry) Register(name string, factory ForgeFactory) {
	r.factories[name] = factory
}

// Get returns a forge for the provider settings, wrapped with the shared rate
// budget and retry policy.
func (r *ForgeRegistry) Get(settings entities.ProviderSettings) (domainRepos.ForgeRepository, error) {
	factory, ok := r.factories[settings.Type]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", settings.Type)
	}
	forge, err := factory(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", settings.Type, err)
	}
	return NewRetryingForgeRepository(forge, r.limiter, r.policy), nil
}

// Connect builds one forge per configured provider. Any failure is fatal for the run.
func (r *ForgeRegistry) Connect(_ context.Context, settings *entities.Settings) (domainRepos.Forges, error) {
	forges := make(domainRepos.Forges, len(settings.Providers))
	for _, provider := range settings.Providers {
		forge, err := r.Get(provider)
		if err != nil {
			return nil, err
		}
		forges[provider.Type] = forge
		logger.Debugf("Connected to %s", provider.Type)
	}
	return forges, nil
}

// Names returns the registered forge names, sorted.
func (r *ForgeRegistry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
