package entities

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// ResolveToken exports resolveToken for testing.
var ResolveToken = resolveToken //nolint:gochecknoglobals // test export

// ApplyEnvironment exports applyEnvironment for testing.
func ApplyEnvironment(ctx context.Context, settings *Settings, lookuper envconfig.Lookuper) error {
	return settings.applyEnvironment(ctx, lookuper)
}

// ApplyDefaults exports applyDefaults for testing.
func ApplyDefaults(settings *Settings) {
	settings.applyDefaults()
}
