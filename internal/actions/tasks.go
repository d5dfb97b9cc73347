package actions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Tasks deletes scheduled tasks whose leaf name mentions the app. Tasks
// under \Microsoft\ belong to the OS and are left alone.
func Tasks() Action {
	return Func{Label: "tasks", Fn: removeTasks}
}

func removeTasks(ctx context.Context, req Request) Outcome {
	if o, ok := requireApp(req); !ok {
		return o
	}
	if !supported {
		return unsupported()
	}
	out, err := runCommand(ctx, "schtasks", "/Query", "/FO", "CSV", "/NH")
	if err != nil {
		return failed(err)
	}
	tasks, err := parseTasks(out)
	if err != nil {
		return failed(fmt.Errorf("parse schtasks output: %w", err))
	}

	var names []string
	var errs []error
	for _, task := range tasks {
		if strings.HasPrefix(strings.ToLower(task), `\microsoft\`) {
			continue
		}
		leaf := task[strings.LastIndex(task, `\`)+1:]
		if !matchesApp(leaf, req.App) {
			continue
		}
		if !req.DryRun {
			if _, err := runCommand(ctx, "schtasks", "/Delete", "/TN", task, "/F"); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		names = append(names, task)
	}

	if len(errs) > 0 {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d deleted", len(names)), Err: errors.Join(errs...)}
	}
	if len(names) == 0 {
		return notFound()
	}
	return would(req.DryRun, "delete", names)
}

// parseTasks returns the distinct task paths of `schtasks /Query /FO CSV`.
// A task with several triggers appears once per trigger.
func parseTasks(out string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	seen := make(map[string]bool)
	var tasks []string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return tasks, nil
		}
		if err != nil {
			return nil, err
		}
		name := strings.TrimSpace(rec[0])
		// Localised header rows and blank lines carry no leading backslash.
		if !strings.HasPrefix(name, `\`) || seen[name] {
			continue
		}
		seen[name] = true
		tasks = append(tasks, name)
	}
}
