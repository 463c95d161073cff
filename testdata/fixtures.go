// Package testdata embeds recorded pose traces used by the replay and
// end-to-end tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ayusman/mudra/internal/gesture"
)

//go:embed traces/*.json
var tracesFS embed.FS

// LoadTrace loads a trace by name, without the .json suffix.
func LoadTrace(name string) (gesture.Trace, error) {
	data, err := RawTrace(name)
	if err != nil {
		return nil, err
	}

	var trace gesture.Trace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("decode trace %s: %w", name, err)
	}
	if err := trace.Validate(); err != nil {
		return nil, fmt.Errorf("trace %s: %w", name, err)
	}
	return trace, nil
}

// RawTrace returns the JSON of a trace as stored.
func RawTrace(name string) ([]byte, error) {
	data, err := tracesFS.ReadFile(path.Join("traces", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load trace %s: %w", name, err)
	}
	return data, nil
}

// TraceNames lists every embedded trace in name order.
func TraceNames() []string {
	entries, err := tracesFS.ReadDir("traces")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}
