package reconciler

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmr-tortoise/plugctl/internal/model"
	"github.com/mmr-tortoise/plugctl/internal/options"
)

// fakeEngine simulates the plugin store of a Docker daemon. It enforces
// the same rules the real engine does (no reconfiguring an enabled plugin,
// no enabling twice) so that a wrong call sequence fails the test.
type fakeEngine struct {
	plugins map[string]*model.Snapshot

	// calls records every mutating call as "<op> <alias>".
	calls []string

	// lookups counts Lookup calls.
	lookups int

	// failures makes the given op fail with the given error.
	failures map[model.Op]error

	// installEnv is the default settings of freshly installed plugins.
	installEnv []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		plugins:  make(map[string]*model.Snapshot),
		failures: make(map[model.Op]error),
	}
}

// add registers an installed plugin.
func (f *fakeEngine) add(alias string, enabled bool, env ...string) {
	f.plugins[alias] = &model.Snapshot{
		ID:        "id-" + alias,
		Alias:     alias,
		Reference: "docker.io/example/" + alias + ":latest",
		Enabled:   enabled,
		Env:       env,
	}
}

func (f *fakeEngine) get(alias string) *model.Snapshot {
	return f.plugins[alias]
}

func (f *fakeEngine) fail(op model.Op) error {
	return f.failures[op]
}

func clone(p *model.Snapshot) *model.Snapshot {
	c := *p
	c.Env = append([]string(nil), p.Env...)
	return &c
}

func (f *fakeEngine) Lookup(_ context.Context, alias string) (*model.Snapshot, error) {
	f.lookups++
	if err := f.fail(model.OpLookup); err != nil {
		return nil, err
	}
	p, ok := f.plugins[alias]
	if !ok {
		return nil, nil
	}
	return clone(p), nil
}

func (f *fakeEngine) Install(_ context.Context, name, alias string) (*model.Snapshot, error) {
	f.calls = append(f.calls, "install "+alias)
	if err := f.fail(model.OpInstall); err != nil {
		return nil, err
	}
	if _, exists := f.plugins[alias]; exists {
		return nil, fmt.Errorf("plugin %q already exists", alias)
	}
	f.plugins[alias] = &model.Snapshot{
		ID:        "id-" + alias,
		Alias:     alias,
		Reference: name,
		Env:       append([]string(nil), f.installEnv...),
	}
	return clone(f.plugins[alias]), nil
}

func (f *fakeEngine) Remove(_ context.Context, plugin *model.Snapshot) error {
	f.calls = append(f.calls, "remove "+plugin.Alias)
	if err := f.fail(model.OpRemove); err != nil {
		return err
	}
	if _, ok := f.plugins[plugin.Alias]; !ok {
		return errors.New("plugin not found")
	}
	delete(f.plugins, plugin.Alias)
	return nil
}

func (f *fakeEngine) Enable(_ context.Context, plugin *model.Snapshot, timeout int) error {
	f.calls = append(f.calls, "enable "+plugin.Alias)
	if err := f.fail(model.OpEnable); err != nil {
		return err
	}
	if timeout != EnableTimeout {
		return fmt.Errorf("unexpected timeout %d", timeout)
	}
	p, ok := f.plugins[plugin.Alias]
	if !ok {
		return errors.New("plugin not found")
	}
	if p.Enabled {
		return errors.New("plugin already enabled")
	}
	p.Enabled = true
	return nil
}

func (f *fakeEngine) Disable(_ context.Context, plugin *model.Snapshot) error {
	f.calls = append(f.calls, "disable "+plugin.Alias)
	if err := f.fail(model.OpDisable); err != nil {
		return err
	}
	p, ok := f.plugins[plugin.Alias]
	if !ok {
		return errors.New("plugin not found")
	}
	if !p.Enabled {
		return errors.New("plugin already disabled")
	}
	p.Enabled = false
	return nil
}

func (f *fakeEngine) Configure(_ context.Context, plugin *model.Snapshot, settings []string) error {
	f.calls = append(f.calls, "configure "+plugin.Alias)
	if err := f.fail(model.OpConfigure); err != nil {
		return err
	}
	p, ok := f.plugins[plugin.Alias]
	if !ok {
		return errors.New("plugin not found")
	}
	if p.Enabled {
		return errors.New("cannot set on an active plugin, disable plugin before setting")
	}
	live, err := options.Decode(p.Env)
	if err != nil {
		return err
	}
	update, err := options.Decode(settings)
	if err != nil {
		return err
	}
	live.Merge(update)
	p.Env = options.Encode(live)
	return nil
}
