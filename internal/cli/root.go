// Package cli implements the cobra-based CLI commands for plugctl.
//
// Each subcommand (apply, inspect) is defined in its own file within this
// package. This file defines the root command that serves as the parent
// for all subcommands, handles global flags and maps errors to exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/plugctl/internal/config"
	"github.com/mmr-tortoise/plugctl/internal/logger"
	"github.com/mmr-tortoise/plugctl/internal/model"
	"github.com/mmr-tortoise/plugctl/internal/options"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// It is refreshed from the loaded settings, so PLUGCTL_JSON and the
	// config file can turn it on as well.
	jsonOutput bool

	// verbose raises the log level to debug and shows pull progress.
	verbose bool

	// configFile is an explicit config file path (--config).
	configFile string
)

// Version, Commit and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// The root command itself does not perform any action; it only provides
// help text and global flags.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plugctl",
		Short: "Declarative Docker plugin state manager",
		Long: `plugctl converges a Docker Engine plugin to a declared state:
present, absent, enabled or disabled, with the declared settings.

Runs are idempotent: applying the same declaration twice reports
no change the second time. Use --check to see what would change
without touching the daemon.`,

		// Error output is formatted by Execute (text or JSON).
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.StringVar(&configFile, "config", "", "Config file (default: <user config dir>/plugctl/config.yaml)")
	pf.String("host", "", "Docker daemon address (default: DOCKER_HOST or the platform socket)")
	pf.String("log-level", "info", "Log level: trace, debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console, json")

	rootCmd.AddCommand(NewApplyCommand())
	rootCmd.AddCommand(NewInspectCommand())

	return rootCmd
}

// Execute runs the root command and exits with the code matching the
// returned error. This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(int(ExitCodeFor(err)))
	}
}

// ExitCodeFor translates an error returned by a command into a process
// exit code. CLIError carries its own code; the domain error types map to
// their dedicated codes; anything else is a general error.
func ExitCodeFor(err error) model.ExitCode {
	if err == nil {
		return model.ExitSuccess
	}

	var (
		cliErr    *model.CLIError
		verrs     model.ValidationErrors
		verr      *model.ValidationError
		malformed *options.MalformedOptionError
		engineErr *model.EngineError
	)
	switch {
	case errors.As(err, &cliErr):
		return cliErr.Code
	case errors.As(err, &verrs), errors.As(err, &verr):
		return model.ExitValidation
	case errors.As(err, &malformed):
		return model.ExitMalformedOption
	case errors.As(err, &engineErr):
		return model.ExitEngineError
	case errors.Is(err, model.ErrPluginNotFound):
		return model.ExitPluginNotFound
	default:
		return model.ExitGeneralError
	}
}

// printError outputs an error in the appropriate format (JSON or text)
// based on the --json global flag. Errors go to stderr, even in JSON
// mode, because stdout is reserved for successful command output.
func printError(w io.Writer, err error) {
	message, detail := err.Error(), ""
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) && cliErr.Err != nil {
		message, detail = cliErr.Message, cliErr.Err.Error()
	}

	if !jsonOutput {
		fmt.Fprintf(w, "Error: %s\n", err)
		return
	}

	errObj := map[string]any{
		"message": message,
		"code":    int(ExitCodeFor(err)),
	}
	if detail != "" {
		errObj["detail"] = detail
	}
	data, _ := json.MarshalIndent(map[string]any{"error": errObj}, "", "  ")
	fmt.Fprintln(w, string(data))
}

// loadSettings reads the ambient settings for cmd and applies them to the
// global output switch.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	jsonOutput = settings.JSON
	return settings, nil
}

// newLogger builds the diagnostic logger. --verbose and the debug desired
// parameter both raise the level to debug.
func newLogger(settings *config.Settings, debug bool) (*logger.Logger, error) {
	level := settings.Log.Level
	if (verbose || debug) && level != "trace" {
		level = "debug"
	}
	return logger.New(logger.Options{
		Level:  level,
		Format: logger.Format(settings.Log.Format),
		Writer: os.Stderr,
	})
}

// debugEnabled reports whether diagnostic output such as pull progress
// should be shown.
func debugEnabled(settings *config.Settings, debug bool) bool {
	return verbose || debug || settings.Log.Level == "debug" || settings.Log.Level == "trace"
}
