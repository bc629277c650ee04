// Package persistence implements the only state that survives a
// restart: the functions list. It loads and saves that list as a JSON
// file, and writes a terminal status marker file when the engine exits.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/myrulesiot/myrulesiot/engine"
)

// DefaultFunctionsPath is the default location of the persisted
// functions list.
const DefaultFunctionsPath = "./engine_functions.json"

// DefaultExitPath is where the terminal status marker is written when
// the engine exits, whether normally or with an error.
const DefaultExitPath = "./engine_exit"

// LoadFunctions reads the functions list from path. A missing file or
// one that fails to parse is treated as an empty list; both conditions
// are logged at warning level rather than returned as an error, since
// the spec treats a fresh/first run identically to a corrupt one.
func LoadFunctions(path string) []engine.ReducerFunction {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("reading persisted functions", "path", path, "error", err)
		return nil
	}

	var funcs []engine.ReducerFunction
	if err := json.Unmarshal(data, &funcs); err != nil {
		slog.Warn("parsing persisted functions, starting empty", "path", path, "error", err)
		return nil
	}
	return funcs
}

// SaveFunctions pretty-prints funcs to path. A nil slice is written as
// an empty JSON array, never "null", so a subsequent LoadFunctions sees
// a valid empty document rather than a parse failure.
func SaveFunctions(path string, funcs []engine.ReducerFunction) error {
	if funcs == nil {
		funcs = []engine.ReducerFunction{}
	}
	data, err := json.MarshalIndent(funcs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal functions: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write functions file %s: %w", path, err)
	}
	return nil
}

// WriteExitMarker writes "<NORMAL|ERROR>/<message>" to path, the
// terminal-status marker the entrypoint leaves behind for operators and
// supervisors to inspect after the process exits.
func WriteExitMarker(path string, final engine.FinalStatus, message string) error {
	content := fmt.Sprintf("%s/%s", final.String(), message)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write exit marker %s: %w", path, err)
	}
	return nil
}
