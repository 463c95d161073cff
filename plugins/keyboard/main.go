// Package main is a keyboard plugin for macOS. It sends keystrokes,
// shortcuts and media keys via AppleScript when a gesture fires.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

// keyParams defines parameters for the keystroke and shortcut actions.
type keyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// mediaParams selects a named media key for the media action.
type mediaParams struct {
	Key string `json:"key"`
}

var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// mediaScripts maps media key names to AppleScript snippets.
var mediaScripts = map[string]string{
	"volume-up":       `set volume output volume ((output volume of (get volume settings)) + 10)`,
	"volume-down":     `set volume output volume ((output volume of (get volume settings)) - 10)`,
	"volume-mute":     `set volume output muted (not (output muted of (get volume settings)))`,
	"brightness-up":   keyCode(144),
	"brightness-down": keyCode(145),
	"play-pause":      keyCode(100),
	"next":            keyCode(101),
	"prev":            keyCode(98),
}

func main() {
	resp := handle(os.Stdin, runAppleScript)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(in io.Reader, run func(string) error) plugin.Response {
	var req plugin.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return failure("failed to decode request: %v", err)
	}

	script, err := buildScript(req)
	if err != nil {
		return failure("action %s failed: %v", req.Action, err)
	}
	if err := run(script); err != nil {
		return failure("action %s failed: %v", req.Action, err)
	}
	return plugin.Response{Success: true}
}

func buildScript(req plugin.Request) (string, error) {
	params := req.Params
	if len(params) == 0 {
		params = req.Config
	}
	if len(params) == 0 {
		return "", fmt.Errorf("params are required")
	}

	switch req.Action {
	case "keystroke", "shortcut":
		var p keyParams
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("failed to parse params: %w", err)
		}
		if p.Key == "" {
			return "", fmt.Errorf("key is required")
		}
		return keystrokeScript(p.Key, p.Modifiers), nil

	case "media":
		var p mediaParams
		if err := json.Unmarshal(params, &p); err != nil {
			return "", fmt.Errorf("failed to parse params: %w", err)
		}
		script, ok := mediaScripts[p.Key]
		if !ok {
			return "", fmt.Errorf("unknown media key %q", p.Key)
		}
		return script, nil
	}
	return "", fmt.Errorf("unknown action: %s", req.Action)
}

func keystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	key = strings.ReplaceAll(key, `"`, `\"`)
	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(appleModifiers, ", "))
}

func keyCode(code int) string {
	return fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code)
}

func failure(format string, args ...any) plugin.Response {
	return plugin.Response{Error: fmt.Sprintf(format, args...)}
}

func runAppleScript(script string) error {
	output, err := exec.Command("osascript", "-e", script).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
