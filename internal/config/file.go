package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/taskforge/djboot/internal/model"
)

// FileConfig represents the raw structure of the optional bootstrap
// file. The file is JSONC (JSON with Comments) so operators can annotate
// overrides in place; comments are stripped with github.com/tidwall/jsonc
// before parsing with the standard encoding/json library.
//
// Only operational knobs live here. Credentials never do — those come
// exclusively from the environment.
type FileConfig struct {
	// Manage overrides the argv prefix for the collaborator's management
	// CLI. Default: ["python", "manage.py"].
	Manage []string `json:"manage,omitempty"`

	// StepArgs appends extra arguments to individual bootstrap steps,
	// keyed by step name (e.g. "collect-static": ["--clear"]).
	StepArgs map[string][]string `json:"stepArgs,omitempty"`

	// Server overrides the default launch command template. Elements may
	// contain the {host} and {port} placeholders.
	Server []string `json:"server,omitempty"`

	// Host overrides the server bind address. Default: 0.0.0.0.
	Host string `json:"host,omitempty"`
}

// LoadFile reads the bootstrap file at path, strips JSONC comments, and
// parses it.
//
// A missing file returns (nil, nil) — the file is optional and most
// deployments run entirely on defaults. A present-but-malformed file is
// a fatal configuration error.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to read bootstrap file %q", path), err)
	}

	var fc FileConfig
	if err := json.Unmarshal(jsonc.ToJSON(data), &fc); err != nil {
		return nil, model.WrapCLIError(model.ExitFailure,
			fmt.Sprintf("failed to parse bootstrap file %q", path), err)
	}

	// Reject unknown step names early: a typo like "collectstatic"
	// would otherwise be silently ignored and the operator's extra
	// arguments never applied.
	for step := range fc.StepArgs {
		if _, err := model.ParseStep(step); err != nil {
			return nil, model.WrapCLIError(model.ExitFailure,
				fmt.Sprintf("bootstrap file %q: unknown step in stepArgs", path), err)
		}
	}

	return &fc, nil
}
