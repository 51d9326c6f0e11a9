// apply.go implements the "plugctl apply" command.
//
// Orchestration steps:
//  1. Load ambient settings (config file, PLUGCTL_* env, flags)
//  2. Build the desired parameters from the manifest and flags
//  3. Validate them before talking to the daemon
//  4. Connect to Docker and verify the daemon is available
//  5. Reconcile the plugin and print the Result (text or JSON)

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mmr-tortoise/plugctl/internal/config"
	"github.com/mmr-tortoise/plugctl/internal/docker"
	"github.com/mmr-tortoise/plugctl/internal/manifest"
	"github.com/mmr-tortoise/plugctl/internal/model"
	"github.com/mmr-tortoise/plugctl/internal/options"
	"github.com/mmr-tortoise/plugctl/internal/reconciler"
)

// applyFlags holds the flag values for the apply command.
type applyFlags struct {
	file  string   // --file: manifest path
	name  string   // --name: image reference to install from
	alias string   // --alias: local plugin name
	state string   // --state: target state
	opts  []string // --opt: KEY=VALUE settings, repeatable
	debug bool     // --debug: report actions and diff, debug logging
}

// NewApplyCommand creates the "apply" cobra command.
func NewApplyCommand() *cobra.Command {
	flags := &applyFlags{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge a Docker plugin to its declared state",
		Long: `Converge a Docker plugin to its declared state.

The declaration comes from a manifest (--file, YAML or JSONC), from
flags, or both; flags override manifest fields and --opt entries are
merged over the manifest options in order.

States:
  present   install if missing, apply settings
  enabled   like present, then enable
  disabled  disable an installed plugin
  absent    remove the plugin

Examples:
  plugctl apply --name grafana/loki-docker-driver:latest --alias loki
  plugctl apply --alias loki --state enabled --opt LOG_LEVEL=debug
  plugctl apply --file loki.yaml --check --diff
  plugctl apply --alias loki --state absent --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, flags)
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

// register binds the apply flags to fs. check and diff are not stored
// here; config.Load reads them through viper.
func (f *applyFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, "file", "f", "", "Manifest file (YAML, or JSON with comments)")
	fs.StringVar(&f.name, "name", "", "Image reference to install the plugin from")
	fs.StringVar(&f.alias, "alias", "", "Local plugin name")
	fs.StringVar(&f.state, "state", "", fmt.Sprintf("Target state: %s (default: %s)", stateNames(), model.StatePresent))
	fs.StringArrayVar(&f.opts, "opt", nil, "Plugin setting as KEY=VALUE (repeatable)")
	fs.BoolVar(&f.debug, "debug", false, "Report actions and diff, and log at debug level")
	fs.Bool("check", false, "Report what would change without changing anything")
	fs.Bool("diff", false, "Report the before/after difference")
}

// runApply is the main orchestration function for the apply command.
func runApply(cmd *cobra.Command, flags *applyFlags) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	params, err := buildParams(flags, cmd.Flags())
	if err != nil {
		return err
	}

	log, err := newLogger(settings, params.Debug)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to create logger", err)
	}

	c, err := connect(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	log.Debugf("connected to Docker daemon at %s", c.Host())

	var progress io.Writer = io.Discard
	if debugEnabled(settings, params.Debug) {
		progress = os.Stderr
	}

	mode := model.RunMode{Check: settings.Check, Diff: settings.Diff}
	res, err := reconciler.New(c.Plugins(progress), log).Reconcile(cmd.Context(), *params, mode)
	if err != nil {
		return err
	}

	return printResult(cmd.OutOrStdout(), params, res)
}

// buildParams merges the manifest with the flags that were set explicitly,
// applies defaults and validates the result.
func buildParams(flags *applyFlags, fs *pflag.FlagSet) (*model.DesiredParams, error) {
	params := &model.DesiredParams{}
	if flags.file != "" {
		loaded, err := manifest.Load(flags.file)
		if err != nil {
			return nil, err
		}
		params = loaded
	}

	if fs.Changed("name") {
		params.Name = flags.name
	}
	if fs.Changed("alias") {
		params.Alias = flags.alias
	}
	if fs.Changed("state") {
		state, err := model.ParseTargetState(flags.state)
		if err != nil {
			return nil, &model.ValidationError{Alias: params.Alias, Field: "state", Message: err.Error()}
		}
		params.State = state
	}
	if fs.Changed("debug") {
		params.Debug = flags.debug
	}

	if len(flags.opts) > 0 {
		extra, err := options.Decode(flags.opts)
		if err != nil {
			return nil, &model.ValidationError{Alias: params.Alias, Field: "opt", Message: err.Error()}
		}
		if params.Options == nil {
			params.Options = options.NewMap()
		}
		params.Options.Merge(extra)
	}

	config.ApplyDefaults(params)
	if err := config.ValidateParams(params); err != nil {
		return nil, err
	}
	return params, nil
}

// connect creates the Docker client for settings and pings the daemon.
func connect(ctx context.Context, settings *config.Settings) (*docker.Client, error) {
	c, err := docker.NewClient(settings.Host)
	if err != nil {
		return nil, err // NewClient already returns CLIError with ExitDockerNotRunning
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// stateNames lists the accepted --state values, comma separated.
func stateNames() string {
	names := make([]string, 0, len(model.ValidStates))
	for _, s := range model.ValidStates {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}
