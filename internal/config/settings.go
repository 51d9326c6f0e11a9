// Package config loads plugctl's ambient settings and validates desired
// plugin parameters.
//
// Ambient settings (Docker host, logging, output format, check and diff
// modes) come from viper, layered as: defaults < config file < PLUGCTL_*
// environment variables < command-line flags. Plugin options never go
// through viper, because viper lower-cases keys and Docker plugin setting
// names are case-sensitive.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load,
// e.g. PLUGCTL_LOG_LEVEL for the log.level key.
const EnvPrefix = "PLUGCTL"

// Settings holds the ambient configuration of one plugctl invocation.
type Settings struct {
	// Host is the Docker daemon address; empty means auto-detect.
	Host string `mapstructure:"host"`

	// Log configures the diagnostic logger.
	Log LogSettings `mapstructure:"log"`

	// JSON switches result output from text to JSON.
	JSON bool `mapstructure:"json"`

	// Check enables dry-run mode.
	Check bool `mapstructure:"check"`

	// Diff requests the before/after diff in the result.
	Diff bool `mapstructure:"diff"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// flagKeys maps command-line flag names to viper keys.
var flagKeys = map[string]string{
	"host":       "host",
	"log-level":  "log.level",
	"log-format": "log.format",
	"json":       "json",
	"check":      "check",
	"diff":       "diff",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("json", false)
	v.SetDefault("check", false)
	v.SetDefault("diff", false)
}

// Load builds Settings. When configFile is empty, config.yaml is looked up
// in the user config directory (plugctl/config.yaml) and silently skipped
// when missing; an explicit configFile must exist. Flags present in flags
// are bound to their keys so that explicitly set flags win over every
// other source.
func Load(configFile string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if dir := defaultConfigDir(); dir != "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	s.Log.Level = strings.ToLower(s.Log.Level)
	s.Log.Format = strings.ToLower(s.Log.Format)

	if err := validateStruct(&s); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &s, nil
}

// defaultConfigDir returns <user config dir>/plugctl, or "" when the user
// config directory cannot be determined.
func defaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "plugctl")
}
