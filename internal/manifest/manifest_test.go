package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// writeFile is a test helper that writes content to a file in dir.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plugin.yaml", `
name: grafana/loki-docker-driver:latest
alias: loki
state: enabled
debug: true
options:
  RETRIES: 3
  LOG_LEVEL: debug
  EMPTY:
`)

	params, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "grafana/loki-docker-driver:latest", params.Name)
	assert.Equal(t, "loki", params.Alias)
	assert.Equal(t, model.StateEnabled, params.State)
	assert.True(t, params.Debug)
	assert.Equal(t, []string{"RETRIES", "LOG_LEVEL", "EMPTY"}, params.Options.Keys())

	v, _ := params.Options.Get("RETRIES")
	assert.Equal(t, "3", v)
	v, ok := params.Options.Get("EMPTY")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

// TestLoad_JSONC verifies comments and trailing commas are accepted and
// that option order follows the document.
func TestLoad_JSONC(t *testing.T) {
	path := writeFile(t, t.TempDir(), "plugin.jsonc", `{
  // the Loki logging driver
  "name": "grafana/loki-docker-driver:latest",
  "alias": "loki",
  /* keep order */
  "options": {
    "Z_LAST": "1",
    "A_FIRST": "2",
  },
}`)

	params, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "loki", params.Alias)
	assert.Equal(t, model.TargetState(""), params.State)
	assert.Equal(t, []string{"Z_LAST", "A_FIRST"}, params.Options.Keys())
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitValidation, cliErr.Code)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unknown key", file: "p.yaml", content: "alias: loki\nstatus: enabled\n"},
		{name: "nested option", file: "p.yaml", content: "alias: loki\noptions:\n  A:\n    B: c\n"},
		{name: "options not a mapping", file: "p.yaml", content: "alias: loki\noptions: [a, b]\n"},
		{name: "repeated option", file: "p.yaml", content: "alias: loki\noptions:\n  A: 1\n  A: 2\n"},
		{name: "repeated option in json", file: "p.jsonc", content: `{"alias": "loki", "options": {"A": "1", "A": "2"}}`},
		{name: "broken json", file: "p.json", content: `{"alias": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := Load(path)
			require.Error(t, err)

			var cliErr *model.CLIError
			require.True(t, errors.As(err, &cliErr))
			assert.Equal(t, model.ExitValidation, cliErr.Code)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	params, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, &model.DesiredParams{}, params)
}
