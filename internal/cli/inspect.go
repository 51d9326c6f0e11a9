// inspect.go implements the "plugctl inspect" command.
//
// The inspect command looks up one plugin by alias and shows its current
// state with the decoded settings. It never changes anything.

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/plugctl/internal/model"
	"github.com/mmr-tortoise/plugctl/internal/reconciler"
)

// NewInspectCommand creates the "inspect" cobra command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <alias>",
		Short: "Show the current state of a Docker plugin",
		Long: `Show the current state of a Docker plugin: its ID, the reference it
was installed from, whether it is enabled, and its settings.

Exits with code 6 when no plugin with the alias exists.

Examples:
  plugctl inspect loki
  plugctl inspect loki --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			c, err := connect(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			return runInspect(cmd.Context(), cmd.OutOrStdout(), c.Plugins(nil), args[0])
		},
	}
}

// runInspect looks up alias through gw and prints it.
func runInspect(ctx context.Context, w io.Writer, gw reconciler.Gateway, alias string) error {
	snap, err := gw.Lookup(ctx, alias)
	if err != nil {
		return model.NewEngineError(model.OpLookup, alias,
			fmt.Sprintf("Failed to query existing local docker logging plugin %s", alias), err)
	}
	if snap == nil {
		return model.WrapCLIError(model.ExitPluginNotFound,
			fmt.Sprintf("local docker logging plugin %s does not exist", alias), model.ErrPluginNotFound)
	}

	settings, err := snap.Settings()
	if err != nil {
		return fmt.Errorf("local docker logging plugin %s has unreadable settings: %w", alias, err)
	}

	return printInspect(w, snap, settings)
}
