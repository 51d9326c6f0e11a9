// Package manifest loads the desired state of one plugin from a file.
//
// Manifests are YAML documents, or JSON with comments (JSONC) when the file
// extension is .json or .jsonc. JSONC comments and trailing commas are
// stripped with github.com/tidwall/jsonc; the cleaned JSON is then decoded
// by yaml.v3, which accepts JSON input and keeps the declared order of
// plugin options.
//
// Example (plugin.yaml):
//
//	name: grafana/loki-docker-driver:latest
//	alias: loki
//	state: enabled
//	options:
//	  LOG_LEVEL: debug
//	  RETRIES: "3"
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/plugctl/internal/model"
)

// Load reads the manifest at path and decodes it into DesiredParams.
// Unknown top-level keys are rejected so that typos do not silently
// change the desired state.
//
// Returns a CLIError with ExitValidation if the file does not exist or
// cannot be decoded.
func Load(path string) (*model.DesiredParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.WrapCLIError(
				model.ExitValidation,
				fmt.Sprintf("manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if isJSON(path) {
		data = jsonc.ToJSON(data)
	}

	params, err := Parse(data)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitValidation,
			fmt.Sprintf("failed to parse manifest at %s", path),
			err,
		)
	}
	return params, nil
}

// Parse decodes a YAML (or plain JSON) manifest. An empty document yields
// zero-valued DesiredParams.
func Parse(data []byte) (*model.DesiredParams, error) {
	var params model.DesiredParams

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &params, nil
}

func isJSON(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return true
	default:
		return false
	}
}
