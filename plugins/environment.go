package plugins

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/hugr-lab/airport-vtable/table"
)

var environmentColumns = table.Schema{
	{Name: "key", Type: table.Text},
	{Name: "value", Type: table.Text},
}

// Environment exposes the server's environment variables.
// key = '...' constraints are answered by direct lookup.
func Environment() table.Plugin {
	return table.NewPlugin("environment", environmentColumns, generateEnvironment)
}

func generateEnvironment(ctx context.Context, qc *table.QueryContext) ([]table.Row, error) {
	if qc.HasConstraint("key", table.OpEQ) {
		var rows []table.Row
		seen := make(map[string]struct{})
		for _, key := range qc.GetAll("key", table.OpEQ) {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if value, ok := os.LookupEnv(key); ok {
				rows = append(rows, table.Row{"key": key, "value": value})
			}
		}
		return rows, nil
	}

	env := os.Environ()
	sort.Strings(env)
	rows := make([]table.Row, 0, len(env))
	for _, kv := range env {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, value, _ := strings.Cut(kv, "=")
		if key == "" {
			continue
		}
		row := table.Row{"key": key, "value": value}
		if qc.Matches(row) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
