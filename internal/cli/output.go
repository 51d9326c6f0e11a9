package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/mmr-tortoise/plugctl/internal/model"
	"github.com/mmr-tortoise/plugctl/internal/options"
)

var (
	changedColor = color.New(color.FgYellow, color.Bold)
	okColor      = color.New(color.FgGreen)
	headerColor  = color.New(color.Bold)
	removedColor = color.New(color.FgRed)
	addedColor   = color.New(color.FgGreen)
)

// printResult outputs a reconciliation Result in text or JSON format,
// depending on the global --json flag.
func printResult(w io.Writer, params *model.DesiredParams, res *model.Result) error {
	if jsonOutput {
		return writeJSON(w, res)
	}
	printResultText(w, params, res)
	return nil
}

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printResultText renders a Result for humans:
//
//	loki: changed (enabled)
//	  - Installed local docker logging plugin loki from grafana/loki-docker-driver:latest.
//	  - Enabled local docker logging plugin loki.
//	diff:
//	  exists: false => true
func printResultText(w io.Writer, params *model.DesiredParams, res *model.Result) {
	status := okColor.Sprint("ok")
	if res.Changed {
		status = changedColor.Sprint("changed")
	}
	fmt.Fprintf(w, "%s: %s (%s)\n", params.Alias, status, params.State)

	for _, action := range res.Actions {
		fmt.Fprintf(w, "  - %s\n", action)
	}

	if res.Diff != nil {
		printDiffText(w, res.Diff)
	}
}

func printDiffText(w io.Writer, report *model.DiffReport) {
	if len(report.Before) > 0 || len(report.After) > 0 {
		headerColor.Fprintln(w, "diff:")
		for _, key := range sortedKeys(report.Before, report.After) {
			fmt.Fprintf(w, "  %s: %s => %s\n", key,
				removedColor.Sprint(formatValue(report.Before[key])),
				addedColor.Sprint(formatValue(report.After[key])))
		}
	}

	if len(report.Legacy) > 0 {
		headerColor.Fprintln(w, "differences:")
		for _, rec := range report.Legacy {
			fmt.Fprintf(w, "  %s: %s (want %s)\n", rec.Key,
				formatValue(rec.Active), formatValue(rec.Parameter))
		}
	}
}

// inspectJSON is the JSON output structure of the inspect command: the
// snapshot fields plus the decoded, ordered settings.
type inspectJSON struct {
	*model.Snapshot
	Settings *options.Map `json:"settings"`
}

// printInspect outputs one plugin snapshot in text or JSON format.
func printInspect(w io.Writer, snap *model.Snapshot, settings *options.Map) error {
	if jsonOutput {
		return writeJSON(w, inspectJSON{Snapshot: snap, Settings: settings})
	}

	state := removedColor.Sprint("disabled")
	if snap.Enabled {
		state = okColor.Sprint("enabled")
	}
	fmt.Fprintf(w, "%-10s %s\n", "NAME", snap.Alias)
	fmt.Fprintf(w, "%-10s %s\n", "ID", snap.ID)
	fmt.Fprintf(w, "%-10s %s\n", "REFERENCE", valueOrDash(snap.Reference))
	fmt.Fprintf(w, "%-10s %s\n", "STATE", state)

	if settings.Len() == 0 {
		fmt.Fprintf(w, "%-10s %s\n", "SETTINGS", "-")
		return nil
	}
	fmt.Fprintf(w, "%s\n", "SETTINGS")
	for _, entry := range options.Encode(settings) {
		fmt.Fprintf(w, "  %s\n", entry)
	}
	return nil
}

// formatValue renders a diff value as JSON, so that a missing value shows
// as null and strings are quoted.
func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// sortedKeys returns the union of the keys of both maps, sorted.
func sortedKeys(a, b map[string]any) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for _, m := range []map[string]any{a, b} {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
