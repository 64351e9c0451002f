// Package migrations embeds the SQL schema files so commands and tests can
// apply them without depending on the working directory.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.sql
var files embed.FS

// Direction selects up or down migrations
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Scripts returns the migration scripts for a direction in execution order.
// Down scripts run in reverse.
func Scripts(dir Direction) ([]string, []string, error) {
	if dir != Up && dir != Down {
		return nil, nil, fmt.Errorf("invalid migration direction %q", dir)
	}

	names, err := fs.Glob(files, "*."+string(dir)+".sql")
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(names)
	if dir == Down {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}

	scripts := make([]string, 0, len(names))
	for _, name := range names {
		data, err := files.ReadFile(name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		scripts = append(scripts, strings.TrimSpace(string(data)))
	}
	return names, scripts, nil
}
