// Package actions holds the OS-integration steps that run around the
// reclamation engine: lookups, process and service termination, task and
// shortcut removal, registry cleanup and end-of-run housekeeping.
//
// Every action shares one contract. Lookups are read-only and report
// found or not-found. Mutating actions honour Request.DryRun, never
// touch the engine's counters and report platforms they do not apply to
// as skipped.
package actions

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/lakshaymaurya-felt/reclaim/internal/rules"
)

// Status is the terminal state of one action.
type Status string

const (
	StatusDone     Status = "done"
	StatusFound    Status = "found"
	StatusNotFound Status = "not-found"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Request carries the per-invocation inputs. App is empty for
// end-of-run actions.
type Request struct {
	App    string
	DryRun bool
}

// Outcome reports what an action did.
type Outcome struct {
	Status Status
	Detail string
	Err    error
}

func (o Outcome) String() string {
	switch {
	case o.Err != nil && o.Detail != "":
		return fmt.Sprintf("%s: %s: %v", o.Status, o.Detail, o.Err)
	case o.Err != nil:
		return fmt.Sprintf("%s: %v", o.Status, o.Err)
	case o.Detail != "":
		return fmt.Sprintf("%s: %s", o.Status, o.Detail)
	}
	return string(o.Status)
}

// Action is one OS-integration step.
type Action interface {
	Name() string
	Perform(ctx context.Context, req Request) Outcome
}

// Func adapts a plain function to Action.
type Func struct {
	Label string
	Fn    func(ctx context.Context, req Request) Outcome
}

func (f Func) Name() string { return f.Label }

func (f Func) Perform(ctx context.Context, req Request) Outcome {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	return f.Fn(ctx, req)
}

// supported gates the actions that drive Windows tooling.
var supported = runtime.GOOS == "windows"

func done(format string, args ...any) Outcome {
	return Outcome{Status: StatusDone, Detail: fmt.Sprintf(format, args...)}
}

func found(format string, args ...any) Outcome {
	return Outcome{Status: StatusFound, Detail: fmt.Sprintf(format, args...)}
}

func notFound() Outcome {
	return Outcome{Status: StatusNotFound}
}

func skipped(format string, args ...any) Outcome {
	return Outcome{Status: StatusSkipped, Detail: fmt.Sprintf(format, args...)}
}

func failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

func unsupported() Outcome {
	return skipped("not available on %s", runtime.GOOS)
}

// would renders the detail of a dry-run or real mutation.
func would(dryRun bool, verb string, items []string) Outcome {
	if dryRun {
		return done("would %s %s", verb, strings.Join(items, ", "))
	}
	return done("%s %s", pastTense(verb), strings.Join(items, ", "))
}

func pastTense(verb string) string {
	switch verb {
	case "stop":
		return "stopped"
	}
	if strings.HasSuffix(verb, "e") {
		return verb + "d"
	}
	return verb + "ed"
}

// matchesApp reports whether name mentions app, case-insensitively.
func matchesApp(name, app string) bool {
	app = strings.TrimSpace(app)
	if app == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(app))
}

// requireApp rejects requests without a usable application name. Names
// with path separators would escape the keys and directories built from
// them. Short names, names of OS components and names of shared registry
// keys would match far more than one application.
func requireApp(req Request) (Outcome, bool) {
	app := strings.TrimSpace(req.App)
	if app == "" {
		return skipped("no application name"), false
	}
	if strings.ContainsAny(app, `\/`) {
		return failed(fmt.Errorf("invalid application name %q", req.App)), false
	}
	if utf8.RuneCountInString(app) < minAppLen {
		return failed(fmt.Errorf("application name %q is shorter than %d characters", app, minAppLen)), false
	}
	if rules.IsProtectedName(app) || sharedKeys[strings.ToLower(app)] {
		return failed(fmt.Errorf("refusing protected name %q", app)), false
	}
	return Outcome{}, true
}
