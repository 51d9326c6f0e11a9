package reconciler

import (
	"context"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// EnableTimeout is the timeout, in seconds, passed to the engine when
// enabling a plugin.
const EnableTimeout = 1

// Gateway is the narrow set of engine operations the reconciler depends on.
// internal/docker provides the Engine API implementation; tests use an
// in-memory fake.
//
// Lookup returns (nil, nil) when no plugin has the given alias. Every other
// failure is returned as-is and treated as fatal by the reconciler.
type Gateway interface {
	Lookup(ctx context.Context, alias string) (*model.Snapshot, error)
	Install(ctx context.Context, name, alias string) (*model.Snapshot, error)
	Remove(ctx context.Context, plugin *model.Snapshot) error
	Enable(ctx context.Context, plugin *model.Snapshot, timeout int) error
	Disable(ctx context.Context, plugin *model.Snapshot) error
	Configure(ctx context.Context, plugin *model.Snapshot, settings []string) error
}
