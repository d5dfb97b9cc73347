package actions

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// procHandle is one running process as the terminator sees it.
type procHandle struct {
	PID  int32
	Name string
	kill func(ctx context.Context) error
}

// listProcesses enumerates running processes. Tests swap it.
var listProcesses = func(ctx context.Context) ([]procHandle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	handles := make([]procHandle, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// Exited or inaccessible.
			continue
		}
		handles = append(handles, procHandle{PID: p.Pid, Name: name, kill: p.KillWithContext})
	}
	return handles, nil
}

// Terminate kills every process whose name mentions the app. The
// current process and OS-critical processes are never candidates.
func Terminate() Action {
	return Func{Label: "terminate", Fn: terminate}
}

func terminate(ctx context.Context, req Request) Outcome {
	if o, ok := requireApp(req); !ok {
		return o
	}
	procs, err := listProcesses(ctx)
	if err != nil {
		return failed(fmt.Errorf("list processes: %w", err))
	}

	self := int32(os.Getpid())
	var names []string
	var errs []error
	for _, p := range procs {
		if p.PID == self || !matchesApp(p.Name, req.App) || criticalTarget(p.Name) {
			continue
		}
		if !req.DryRun {
			if err := p.kill(ctx); err != nil {
				errs = append(errs, fmt.Errorf("kill %s (%d): %w", p.Name, p.PID, err))
				continue
			}
		}
		names = append(names, fmt.Sprintf("%s (%d)", p.Name, p.PID))
	}

	if len(errs) > 0 {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d terminated", len(names)), Err: errors.Join(errs...)}
	}
	if len(names) == 0 {
		return notFound()
	}
	return would(req.DryRun, "terminate", names)
}
