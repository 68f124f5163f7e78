// Package claude wires agentmon into Claude Code's hook settings.
package claude

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed hooks/events.json
var hookFiles embed.FS

// SettingsPath is the project settings file, relative to the project directory.
const SettingsPath = ".claude/settings.json"

// DefaultHookCommand is the command registered for every hook event.
const DefaultHookCommand = "agentmon hook"

// HookEvent is one Claude Code hook event agentmon listens to.
type HookEvent struct {
	Event   string `json:"event"`
	Matcher string `json:"matcher,omitempty"`
}

// HookEvents returns the embedded list of events agentmon registers for.
func HookEvents() ([]HookEvent, error) {
	data, err := hookFiles.ReadFile("hooks/events.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded hook events: %w", err)
	}
	var events []HookEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse embedded hook events: %w", err)
	}
	return events, nil
}

// IsAgentmonHook reports whether a hook command runs agentmon's reporter.
func IsAgentmonHook(command string) bool {
	fields := strings.Fields(command)
	for i := 0; i+1 < len(fields); i++ {
		if filepath.Base(fields[i]) == "agentmon" && fields[i+1] == "hook" {
			return true
		}
	}
	return false
}

// MergeHooks registers command for every event in settings, leaving other
// keys and hooks untouched. It returns the number of events it added;
// events that already run an agentmon hook are skipped.
func MergeHooks(settings map[string]any, command string) (int, error) {
	events, err := HookEvents()
	if err != nil {
		return 0, err
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		if settings["hooks"] != nil {
			return 0, errors.New(`"hooks" in settings is not an object`)
		}
		hooks = map[string]any{}
		settings["hooks"] = hooks
	}

	added := 0
	for _, ev := range events {
		groups, _ := hooks[ev.Event].([]any)
		if hasAgentmonHook(groups) {
			continue
		}
		group := map[string]any{
			"hooks": []any{
				map[string]any{"type": "command", "command": command},
			},
		}
		if ev.Matcher != "" {
			group["matcher"] = ev.Matcher
		}
		hooks[ev.Event] = append(groups, group)
		added++
	}
	return added, nil
}

func hasAgentmonHook(groups []any) bool {
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		entries, _ := group["hooks"].([]any)
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if cmd, _ := entry["command"].(string); IsAgentmonHook(cmd) {
				return true
			}
		}
	}
	return false
}

// InstallHooks merges agentmon's hooks into the settings file under projectDir.
func InstallHooks(projectDir, command string) (string, int, error) {
	path := filepath.Join(projectDir, SettingsPath)

	settings := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(strings.TrimSpace(string(data))) > 0 {
			if err := json.Unmarshal(data, &settings); err != nil {
				return path, 0, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		return path, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	added, err := MergeHooks(settings, command)
	if err != nil {
		return path, 0, err
	}
	if added == 0 {
		return path, 0, nil
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return path, 0, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, 0, fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return path, 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, added, nil
}

// SettingsSnippet returns the hooks block to paste into a settings file by hand.
func SettingsSnippet(command string) ([]byte, error) {
	settings := map[string]any{}
	if _, err := MergeHooks(settings, command); err != nil {
		return nil, err
	}
	return json.MarshalIndent(settings, "", "  ")
}
