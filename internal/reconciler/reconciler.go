// Package reconciler converges one Docker plugin towards its desired state.
//
// A run reads the live plugin once, dispatches on the target state
// (present, absent, enabled, disabled) and issues the minimal sequence of
// Gateway operations: install, configure, enable, disable or remove. In
// check mode the same decisions are made and reported, but no mutating
// operation is issued.
package reconciler

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmr-tortoise/plugctl/internal/diff"
	"github.com/mmr-tortoise/plugctl/internal/logger"
	"github.com/mmr-tortoise/plugctl/internal/model"
	"github.com/mmr-tortoise/plugctl/internal/options"
)

// Diff keys recorded by the reconciler.
const (
	keyExists  = "exists"
	keyEnabled = "enabled"
	keyOptions = "plugin_options"
)

// Reconciler runs reconciliations against a Gateway. It holds no per-run
// state, so one Reconciler may serve several sequential runs.
type Reconciler struct {
	gateway Gateway
	log     *logger.Logger
}

// New creates a Reconciler. A nil logger discards log output.
func New(gateway Gateway, log *logger.Logger) *Reconciler {
	return &Reconciler{gateway: gateway, log: log}
}

// Reconcile converges the plugin named by params.Alias to params.State.
//
// Any Gateway failure aborts the run and is returned as a
// *model.EngineError; no partial Result is returned in that case.
func (r *Reconciler) Reconcile(ctx context.Context, params model.DesiredParams, mode model.RunMode) (*model.Result, error) {
	if params.State == "" {
		params.State = model.StatePresent
	}
	if err := checkParams(params); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ru := &run{
		gateway: r.gateway,
		params:  params,
		mode:    mode,
		tracker: diff.NewTracker(),
		log: r.log.WithFields(map[string]any{
			"run_id": runID,
			"alias":  params.Alias,
			"state":  params.State.String(),
			"check":  mode.Check,
		}),
	}
	return ru.execute(ctx)
}

// checkParams enforces the preconditions the state machine relies on. Full
// validation of user input happens in internal/config before this point.
func checkParams(params model.DesiredParams) error {
	var errs model.ValidationErrors
	if params.Alias == "" {
		errs = append(errs, &model.ValidationError{Field: "alias", Message: "is required"})
	}
	if !params.State.IsValid() {
		errs = append(errs, &model.ValidationError{Field: "state", Message: fmt.Sprintf("unknown state %q", params.State)})
	}
	if params.State == model.StatePresent && params.Name == "" {
		errs = append(errs, &model.ValidationError{Field: "name", Message: "is required when state is present"})
	}
	if len(errs) > 0 {
		return errs.WithAlias(params.Alias)
	}
	return nil
}

// run is the state of a single reconciliation. current is the one
// authoritative snapshot; it is only replaced through refresh or by the
// snapshot returned from Install.
type run struct {
	gateway Gateway
	log     *logger.Logger
	params  model.DesiredParams
	mode    model.RunMode

	current *model.Snapshot
	changed bool
	actions []string
	tracker *diff.Tracker
	legacy  []diff.Record
}

func (ru *run) execute(ctx context.Context) (*model.Result, error) {
	ru.log.Debugf("reconciling plugin %s towards %s", ru.params.Alias, ru.params.State)

	if err := ru.refresh(ctx); err != nil {
		return nil, err
	}

	var err error
	switch ru.params.State {
	case model.StatePresent:
		err = ru.converge(ctx, false)
	case model.StateEnabled:
		err = ru.converge(ctx, true)
	case model.StateAbsent:
		err = ru.absent(ctx)
	case model.StateDisabled:
		err = ru.disabled(ctx)
	}
	if err != nil {
		ru.log.Error(err, "reconciliation failed")
		return nil, err
	}

	return ru.result(ctx)
}

// refresh re-reads the plugin from the engine. It must run before any
// decision that depends on Enabled or Env once a mutating call may have
// happened.
func (ru *run) refresh(ctx context.Context) error {
	ru.log.Debugf("looking up plugin %s", ru.params.Alias)
	snap, err := ru.gateway.Lookup(ctx, ru.params.Alias)
	if err != nil {
		return model.NewEngineError(model.OpLookup, ru.params.Alias,
			fmt.Sprintf("Failed to query existing local docker logging plugin %s", ru.params.Alias), err)
	}
	ru.current = snap
	return nil
}

// record appends one user-facing action and marks the run as changed.
func (ru *run) record(format string, args ...any) {
	action := fmt.Sprintf(format, args...)
	ru.actions = append(ru.actions, action)
	ru.changed = true
	ru.log.Info(action)
}

// mutate issues a mutating call unless running in check mode.
func (ru *run) mutate(op model.Op, call func() error) error {
	if ru.mode.Check {
		ru.log.Debugf("check mode: skipping %s", op)
		return nil
	}
	ru.log.Debugf("issuing %s", op)
	return call()
}

// converge implements the present and enabled states.
func (ru *run) converge(ctx context.Context, enable bool) error {
	differences := diff.NewTracker()
	if ru.current != nil {
		var err error
		if differences, err = ru.configDifferences(); err != nil {
			return err
		}
	}

	// Reported only; existence alone never triggers an update.
	ru.tracker.Add(keyExists, true, ru.current != nil)

	if !differences.IsEmpty() {
		if err := ru.update(ctx); err != nil {
			return err
		}
	} else {
		if err := ru.install(ctx); err != nil {
			return err
		}
		if enable {
			if err := ru.enable(ctx); err != nil {
				return err
			}
		}
	}

	ru.legacy = differences.Legacy()
	ru.tracker.Merge(differences)
	return nil
}

// configDifferences compares the desired options against the live settings,
// key by key. Live keys that are not desired are ignored.
func (ru *run) configDifferences() (*diff.Tracker, error) {
	differences := diff.NewTracker()
	desired := ru.params.Options
	if desired.Len() == 0 {
		return differences, nil
	}

	active, err := ru.current.Settings()
	if err != nil {
		return nil, fmt.Errorf("lookup of local docker logging plugin %s returned unreadable settings: %w", ru.params.Alias, err)
	}

	if active.Len() == 0 {
		differences.Add(keyOptions, desired.ToStringMap(), active.ToStringMap())
		return differences, nil
	}

	for _, key := range desired.Keys() {
		want, _ := desired.Get(key)
		have, ok := active.Get(key)
		switch {
		case !ok:
			differences.Add(keyOptions+"."+key, want, nil)
		case have != want:
			differences.Add(keyOptions+"."+key, want, have)
		}
	}
	return differences, nil
}

// update reconfigures an existing plugin. The engine refuses to change
// settings of an enabled plugin, so it is disabled first and, for the
// enabled state, enabled again afterwards. Those sub-steps are folded into
// the single "Updated" action.
func (ru *run) update(ctx context.Context) error {
	alias := ru.params.Alias
	settings := options.Encode(ru.params.Options)

	err := ru.mutate(model.OpConfigure, func() error {
		if ru.current.Enabled {
			if err := ru.gateway.Disable(ctx, ru.current); err != nil {
				return model.NewEngineError(model.OpDisable, alias,
					fmt.Sprintf("Failed to disable local docker logging plugin %s", alias), err)
			}
		}

		if err := ru.gateway.Configure(ctx, ru.current, settings); err != nil {
			return model.NewEngineError(model.OpConfigure, alias,
				fmt.Sprintf("Failed to update local docker logging plugin %s", alias), err)
		}

		if ru.params.State != model.StateEnabled {
			return nil
		}
		if err := ru.refresh(ctx); err != nil {
			return err
		}
		if ru.current == nil {
			return model.NewEngineError(model.OpEnable, alias,
				fmt.Sprintf("Failed to enable local docker logging plugin %s", alias), model.ErrPluginNotFound)
		}
		if ru.current.Enabled {
			return nil
		}
		if err := ru.gateway.Enable(ctx, ru.current, EnableTimeout); err != nil {
			return model.NewEngineError(model.OpEnable, alias,
				fmt.Sprintf("Failed to enable local docker logging plugin %s", alias), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ru.record("Updated local docker logging plugin %s settings.", alias)
	return nil
}

// install pulls the plugin unless a plugin with the alias already exists.
// Existing plugins are never reinstalled, whatever their configuration.
func (ru *run) install(ctx context.Context) error {
	if ru.current != nil {
		return nil
	}

	alias, name := ru.params.Alias, ru.params.Name
	if name == "" {
		return &model.ValidationError{Alias: alias, Field: "name",
			Message: fmt.Sprintf("is required because the plugin is not installed and state is %s", ru.params.State)}
	}
	err := ru.mutate(model.OpInstall, func() error {
		snap, err := ru.gateway.Install(ctx, name, alias)
		if err != nil {
			return model.NewEngineError(model.OpInstall, alias,
				fmt.Sprintf("Failed to install local docker logging plugin %s from %s", alias, name), err)
		}
		ru.current = snap
		return nil
	})
	if err != nil {
		return err
	}

	ru.record("Installed local docker logging plugin %s from %s.", alias, name)
	return nil
}

// enable activates the plugin if it is not already enabled.
func (ru *run) enable(ctx context.Context) error {
	alias := ru.params.Alias
	if err := ru.refresh(ctx); err != nil {
		return err
	}

	if ru.current == nil {
		// Only reachable in check mode, right after a skipped install.
		if !ru.mode.Check {
			return model.NewEngineError(model.OpEnable, alias,
				fmt.Sprintf("Failed to enable local docker logging plugin %s", alias), model.ErrPluginNotFound)
		}
		ru.record("Enabled local docker logging plugin %s.", alias)
		return nil
	}
	if ru.current.Enabled {
		return nil
	}

	err := ru.mutate(model.OpEnable, func() error {
		if err := ru.gateway.Enable(ctx, ru.current, EnableTimeout); err != nil {
			return model.NewEngineError(model.OpEnable, alias,
				fmt.Sprintf("Failed to enable local docker logging plugin %s", alias), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ru.record("Enabled local docker logging plugin %s.", alias)
	return nil
}

// disabled implements the disabled state. It never installs or removes.
func (ru *run) disabled(ctx context.Context) error {
	alias := ru.params.Alias
	if err := ru.refresh(ctx); err != nil {
		return err
	}

	ru.tracker.Add(keyEnabled, false, ru.current != nil && ru.current.Enabled)
	if ru.current == nil || !ru.current.Enabled {
		return nil
	}

	err := ru.mutate(model.OpDisable, func() error {
		if err := ru.gateway.Disable(ctx, ru.current); err != nil {
			return model.NewEngineError(model.OpDisable, alias,
				fmt.Sprintf("Failed to disable local docker logging plugin %s", alias), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ru.record("Disabled local docker logging plugin %s.", alias)
	return nil
}

// absent implements the absent state.
func (ru *run) absent(ctx context.Context) error {
	alias := ru.params.Alias
	ru.tracker.Add(keyExists, false, ru.current != nil)
	if ru.current == nil {
		return nil
	}

	err := ru.mutate(model.OpRemove, func() error {
		if err := ru.gateway.Remove(ctx, ru.current); err != nil {
			return model.NewEngineError(model.OpRemove, alias,
				fmt.Sprintf("Failed to remove local docker logging plugin %s", alias), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	ru.record("Removed local docker logging plugin %s.", alias)
	return nil
}

// result assembles the Result. Actions and diff are only reported in check
// mode, debug mode, or when a diff was requested.
func (ru *run) result(ctx context.Context) (*model.Result, error) {
	if ru.changed && !ru.mode.Check {
		if err := ru.refresh(ctx); err != nil {
			return nil, err
		}
	}

	res := &model.Result{Changed: ru.changed, Plugin: ru.current}
	if ru.mode.Check || ru.mode.Diff || ru.params.Debug {
		res.Actions = append([]string{}, ru.actions...)
		report := &model.DiffReport{Legacy: ru.legacy}
		if ru.mode.Diff {
			report.Before, report.After = ru.tracker.BeforeAfter()
		}
		res.Diff = report
	}

	ru.log.Debugf("reconciliation finished, changed=%t", ru.changed)
	return res, nil
}
