package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// isolate points the user config directory at an empty temp dir so that a
// developer's own config file never leaks into tests.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("host", "", "")
	fs.String("log-level", "info", "")
	fs.String("log-format", "console", "")
	fs.Bool("json", false, "")
	fs.Bool("check", false, "")
	fs.Bool("diff", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	s, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, &Settings{Log: LogSettings{Level: "info", Format: "console"}}, s)
}

// TestLoad_Precedence verifies defaults < file < env < flags.
func TestLoad_Precedence(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "plugctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"host: unix:///from/file.sock\nlog:\n  level: warn\n  format: json\ndiff: true\n"), 0o600))

	t.Setenv("PLUGCTL_LOG_LEVEL", "error")
	t.Setenv("PLUGCTL_CHECK", "true")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--host", "tcp://flag:2375"}))

	s, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "tcp://flag:2375", s.Host, "flag wins over file")
	assert.Equal(t, "error", s.Log.Level, "env wins over file")
	assert.Equal(t, "json", s.Log.Format, "file wins over default")
	assert.True(t, s.Check)
	assert.True(t, s.Diff)
	assert.False(t, s.JSON)
}

// TestLoad_UnsetFlagsDoNotOverride checks that a flag left at its default
// does not shadow a value from the environment.
func TestLoad_UnsetFlagsDoNotOverride(t *testing.T) {
	isolate(t)
	t.Setenv("PLUGCTL_LOG_FORMAT", "json")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	s, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "json", s.Log.Format)
}

func TestLoad_DefaultConfigFile(t *testing.T) {
	isolate(t)
	dir, err := os.UserConfigDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plugctl"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plugctl", "config.yaml"), []byte("json: true\n"), 0o600))

	s, err := Load("", nil)
	require.NoError(t, err)
	assert.True(t, s.JSON)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("PLUGCTL_LOG_FORMAT", "xml")

	_, err := Load("", nil)
	require.Error(t, err)

	var verrs model.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "log.format", verrs[0].Field)
}

func TestApplyDefaults(t *testing.T) {
	p := model.DesiredParams{Alias: "loki"}
	ApplyDefaults(&p)
	assert.Equal(t, model.StatePresent, p.State)

	p = model.DesiredParams{Alias: "loki", State: "Enabled"}
	ApplyDefaults(&p)
	assert.Equal(t, model.StateEnabled, p.State)
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name    string
		params  model.DesiredParams
		fields  []string
		message string
	}{
		{
			name:   "valid present",
			params: model.DesiredParams{Name: "grafana/loki-docker-driver:latest", Alias: "loki", State: model.StatePresent},
		},
		{
			name:   "valid absent without name",
			params: model.DesiredParams{Alias: "loki", State: model.StateAbsent},
		},
		{
			name:    "present without name",
			params:  model.DesiredParams{Alias: "loki", State: model.StatePresent},
			fields:  []string{"name"},
			message: `local docker logging plugin loki: invalid parameter "name": is required when state is present`,
		},
		{
			name:   "missing alias and bad state",
			params: model.DesiredParams{State: "running"},
			fields: []string{"alias", "state"},
		},
		{
			name:    "several violations name the alias once",
			params:  model.DesiredParams{Name: "Not A Reference", Alias: "loki", State: "running"},
			fields:  []string{"name", "state"},
			message: `local docker logging plugin loki: invalid parameter "name": "Not A Reference" is not a valid image reference; invalid parameter "state": must be one of: present, absent, enabled, disabled (got "running")`,
		},
		{
			name:    "invalid image reference",
			params:  model.DesiredParams{Name: "Not A Reference", Alias: "loki", State: model.StateEnabled},
			fields:  []string{"name"},
			message: `local docker logging plugin loki: invalid parameter "name": "Not A Reference" is not a valid image reference`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParams(&tt.params)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs model.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			got := make([]string, 0, len(verrs))
			for _, e := range verrs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}
