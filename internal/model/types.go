package model

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/plugctl/internal/diff"
	"github.com/mmr-tortoise/plugctl/internal/options"
)

// TargetState is the state a plugin should converge to.
//
//	absent ← [any] → present (installed, enablement untouched)
//	                → enabled (installed and enabled)
//	                → disabled (enablement only; never installs or removes)
type TargetState string

const (
	// StatePresent installs the plugin when missing and applies settings.
	StatePresent TargetState = "present"

	// StateAbsent removes the plugin when it exists.
	StateAbsent TargetState = "absent"

	// StateEnabled behaves like StatePresent and then enables the plugin.
	StateEnabled TargetState = "enabled"

	// StateDisabled disables an installed plugin.
	StateDisabled TargetState = "disabled"
)

// ValidStates lists every TargetState in declaration order. The CLI builds
// its --state help from it and ParseTargetState lists it on failure.
var ValidStates = []TargetState{StatePresent, StateAbsent, StateEnabled, StateDisabled}

// String returns the string representation of TargetState.
func (s TargetState) String() string {
	return string(s)
}

// IsValid checks whether the TargetState value is one of the predefined states.
func (s TargetState) IsValid() bool {
	switch s {
	case StatePresent, StateAbsent, StateEnabled, StateDisabled:
		return true
	default:
		return false
	}
}

// ParseTargetState converts a string to a TargetState, case-insensitively.
func ParseTargetState(s string) (TargetState, error) {
	state := TargetState(strings.ToLower(strings.TrimSpace(s)))
	if !state.IsValid() {
		names := make([]string, len(ValidStates))
		for i, v := range ValidStates {
			names[i] = v.String()
		}
		return "", fmt.Errorf("invalid plugin state: %q (valid: %s)", s, strings.Join(names, ", "))
	}
	return state, nil
}

// DesiredParams is the declared state for one plugin. It is built once by
// the CLI layer and treated as immutable for the whole reconciliation run.
type DesiredParams struct {
	// Name is the image reference the plugin is installed from
	// (e.g. "grafana/loki-docker-driver:latest"). It is only consulted
	// when installing, never for lookup or diffing.
	Name string `json:"name,omitempty" yaml:"name" validate:"required_if=State present,image_ref"`

	// Alias is the local plugin name and the sole identity key.
	Alias string `json:"alias" yaml:"alias" validate:"required"`

	// Options are the desired plugin settings. Only the keys listed here
	// are compared against the live settings.
	Options *options.Map `json:"options,omitempty" yaml:"options"`

	// State is the target state; it defaults to StatePresent.
	State TargetState `json:"state" yaml:"state" validate:"required,oneof=present absent enabled disabled"`

	// Debug forces actions and diff into the Result and raises log verbosity.
	Debug bool `json:"debug,omitempty" yaml:"debug"`
}

// RunMode carries the ambient switches of one reconciliation run.
type RunMode struct {
	// Check reports what would change without issuing mutating calls.
	Check bool

	// Diff requests the before/after diff in the Result.
	Diff bool
}

// Snapshot is a point-in-time read of one installed plugin. A missing
// plugin is represented by a nil *Snapshot, never by a zero value.
type Snapshot struct {
	// ID is the engine-assigned plugin identifier.
	ID string `json:"id"`

	// Alias is the plugin name as reported by the engine. Docker appends
	// the tag, so an alias "loki" is reported as "loki:latest".
	Alias string `json:"alias"`

	// Reference is the image reference the plugin was pulled from.
	Reference string `json:"reference,omitempty"`

	// Enabled reports whether the plugin is currently active.
	Enabled bool `json:"enabled"`

	// Env is the raw Settings.Env list ("KEY=VALUE" entries).
	Env []string `json:"env"`
}

// Settings decodes Env into an ordered Map.
func (s *Snapshot) Settings() (*options.Map, error) {
	if s == nil {
		return options.NewMap(), nil
	}
	return options.Decode(s.Env)
}

// DiffReport is the diff section of a Result.
type DiffReport struct {
	// Before maps each differing key to its active value. Set only when a
	// diff was requested.
	Before map[string]any `json:"before,omitempty"`

	// After maps each differing key to its desired value. Set only when a
	// diff was requested.
	After map[string]any `json:"after,omitempty"`

	// Legacy is the flat list of configuration difference records.
	Legacy []diff.Record `json:"legacy,omitempty"`
}

// Result is the outcome of one reconciliation run.
type Result struct {
	// Changed is true iff at least one mutating operation was invoked, or
	// would have been in check mode.
	Changed bool `json:"changed"`

	// Actions narrates what was (or would be) done, in order. It is only
	// reported in check mode, debug mode, or when a diff was requested.
	Actions []string `json:"actions,omitempty"`

	// Diff is reported under the same conditions as Actions.
	Diff *DiffReport `json:"diff,omitempty"`

	// Plugin is the plugin state after the run, nil when it does not exist.
	Plugin *Snapshot `json:"plugin,omitempty"`
}
