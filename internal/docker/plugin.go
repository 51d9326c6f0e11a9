// plugin.go implements the reconciler Gateway on top of the Docker Engine
// plugin API (GET /plugins/{name}/json, POST /plugins/pull, .../enable,
// .../disable, .../set, DELETE /plugins/{name}).
//
// Errors are returned as produced by the SDK; the reconciler adds the
// operation and alias context. Only a not-found lookup is translated,
// into a nil Snapshot.
package docker

import (
	"context"
	"fmt"
	"io"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// pluginAPI is the subset of the Docker SDK client the gateway uses.
// *client.Client satisfies it; tests substitute a mock.
type pluginAPI interface {
	PluginInspectWithRaw(ctx context.Context, name string) (*types.Plugin, []byte, error)
	PluginInstall(ctx context.Context, name string, options types.PluginInstallOptions) (io.ReadCloser, error)
	PluginRemove(ctx context.Context, name string, options types.PluginRemoveOptions) error
	PluginEnable(ctx context.Context, name string, options types.PluginEnableOptions) error
	PluginDisable(ctx context.Context, name string, options types.PluginDisableOptions) error
	PluginSet(ctx context.Context, name string, args []string) error
}

// PluginGateway performs plugin operations against a Docker daemon.
type PluginGateway struct {
	api      pluginAPI
	progress io.Writer
}

func newPluginGateway(api pluginAPI, progress io.Writer) *PluginGateway {
	if progress == nil {
		progress = io.Discard
	}
	return &PluginGateway{api: api, progress: progress}
}

// Lookup inspects the plugin named alias. A missing plugin yields
// (nil, nil).
func (g *PluginGateway) Lookup(ctx context.Context, alias string) (*model.Snapshot, error) {
	p, _, err := g.api.PluginInspectWithRaw(ctx, alias)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return toSnapshot(p), nil
}

// Install pulls the plugin image name under the local name alias and
// returns the installed plugin.
//
// The plugin is installed disabled, so that enabling stays an explicit
// step of the reconciliation, and every privilege it requests is granted
// (like `docker plugin install --grant-all-permissions`).
func (g *PluginGateway) Install(ctx context.Context, name, alias string) (*model.Snapshot, error) {
	stream, err := g.api.PluginInstall(ctx, alias, types.PluginInstallOptions{
		RemoteRef:            name,
		AcceptAllPermissions: true,
		Disabled:             true,
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	// Pull failures are reported inside the progress stream, not as an
	// HTTP error, so the stream must be decoded to completion.
	if err := jsonmessage.DisplayJSONMessagesStream(stream, g.progress, 0, false, nil); err != nil {
		return nil, err
	}

	snap, err := g.Lookup(ctx, alias)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("plugin %s missing after install: %w", alias, model.ErrPluginNotFound)
	}
	return snap, nil
}

// Remove deletes the plugin. Removal is forced so that an enabled plugin
// is removed as well.
func (g *PluginGateway) Remove(ctx context.Context, plugin *model.Snapshot) error {
	return g.api.PluginRemove(ctx, plugin.Alias, types.PluginRemoveOptions{Force: true})
}

// Enable activates the plugin. timeout is in seconds.
func (g *PluginGateway) Enable(ctx context.Context, plugin *model.Snapshot, timeout int) error {
	return g.api.PluginEnable(ctx, plugin.Alias, types.PluginEnableOptions{Timeout: timeout})
}

// Disable deactivates the plugin.
func (g *PluginGateway) Disable(ctx context.Context, plugin *model.Snapshot) error {
	return g.api.PluginDisable(ctx, plugin.Alias, types.PluginDisableOptions{})
}

// Configure applies "KEY=VALUE" settings. The daemon rejects this call for
// an enabled plugin.
func (g *PluginGateway) Configure(ctx context.Context, plugin *model.Snapshot, settings []string) error {
	return g.api.PluginSet(ctx, plugin.Alias, settings)
}

// toSnapshot converts an Engine API plugin to the domain Snapshot.
func toSnapshot(p *types.Plugin) *model.Snapshot {
	env := make([]string, 0, len(p.Settings.Env))
	env = append(env, p.Settings.Env...)
	return &model.Snapshot{
		ID:        p.ID,
		Alias:     p.Name,
		Reference: p.PluginReference,
		Enabled:   p.Enabled,
		Env:       env,
	}
}
