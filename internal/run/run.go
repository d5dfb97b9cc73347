// Package run drives one invocation: it owns the run's counters, builds
// the engine, and executes cleanup or targeted mode as an ordered list of
// steps before printing the final summary.
package run

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lakshaymaurya-felt/reclaim/internal/actions"
	"github.com/lakshaymaurya-felt/reclaim/internal/config"
	"github.com/lakshaymaurya-felt/reclaim/internal/logging"
	"github.com/lakshaymaurya-felt/reclaim/internal/progress"
	"github.com/lakshaymaurya-felt/reclaim/internal/reclaim"
	"github.com/lakshaymaurya-felt/reclaim/internal/rules"
	"github.com/lakshaymaurya-felt/reclaim/internal/ui"
)

// cleanupKeywords select cleanup mode when every token is one of them.
var cleanupKeywords = map[string]bool{
	"temp":      true,
	"tmp":       true,
	"logs":      true,
	"cache":     true,
	"temporary": true,
	"prefetch":  true,
}

// ErrNoTargets reports a targeted run whose tokens are all blank.
var ErrNoTargets = errors.New("no application names given")

// IsCleanupMode reports whether tokens ask for the safe-location sweep
// rather than removal of named applications.
func IsCleanupMode(tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !cleanupKeywords[strings.ToLower(strings.TrimSpace(tok))] {
			return false
		}
	}
	return true
}

// Deps are the collaborators of a run. Zero values get working defaults.
type Deps struct {
	Log      *logging.Logger
	Reporter progress.Reporter
	Actions  actions.Set
	// Counters is shared with the reporter, which polls it.
	Counters *reclaim.Counters
	// Out receives the final summary.
	Out    io.Writer
	DryRun bool
	Now    func() time.Time
}

// Run is one invocation of the engine and its surrounding actions.
type Run struct {
	ID string

	cfg      *config.Config
	log      *logging.Logger
	reporter progress.Reporter
	actions  actions.Set
	counters *reclaim.Counters
	rules    rules.RuleSet
	out      io.Writer
	dryRun   bool
	now      func() time.Time
}

// New prepares a run over cfg.
func New(cfg *config.Config, deps Deps) *Run {
	id := uuid.NewString()
	r := &Run{
		ID:       id,
		cfg:      cfg,
		log:      deps.Log,
		reporter: deps.Reporter,
		actions:  deps.Actions,
		counters: deps.Counters,
		rules:    rules.Default().WithNeverDelete(config.GetNeverDeletePaths()).WithExclusions(cfg.Exclude),
		out:      deps.Out,
		dryRun:   deps.DryRun,
		now:      deps.Now,
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	r.log = r.log.With("run=" + id[:8])
	if r.reporter == nil {
		r.reporter = progress.Nop{}
	}
	if r.counters == nil {
		r.counters = &reclaim.Counters{}
	}
	if r.out == nil {
		r.out = os.Stdout
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Counters returns the run's counters.
func (r *Run) Counters() *reclaim.Counters {
	return r.counters
}

// step is one labelled unit of a run's plan.
type step struct {
	label string
	fn    func(ctx context.Context)
}

// Execute runs the plan selected by tokens, prints the summary and
// returns it. A cancelled run still prints what it managed and returns
// ctx.Err().
func (r *Run) Execute(ctx context.Context, tokens []string) (reclaim.Summary, error) {
	started := r.now()

	cleanup := IsCleanupMode(tokens)
	var apps []string
	if !cleanup {
		apps = targetNames(tokens)
		if len(apps) == 0 {
			return reclaim.Summary{}, ErrNoTargets
		}
	}

	ex := reclaim.NewExecutor(r.rules, r.counters,
		reclaim.WithWorkers(r.workers()),
		reclaim.WithLogger(r.log),
		reclaim.WithDryRun(r.dryRun),
		reclaim.WithObserver(r.reporter),
		reclaim.WithClock(r.now),
	)
	defer ex.Close()

	var steps []step
	if cleanup {
		r.log.Infof("cleanup mode: %s", strings.Join(tokens, ", "))
		steps = r.cleanupSteps(ex)
	} else {
		r.log.Infof("targeted mode: %s", strings.Join(apps, ", "))
		steps = r.targetedSteps(ex, apps)
	}
	if r.dryRun {
		r.log.Infof("dry run: nothing will be removed")
	}
	r.log.Debugf("rule table %s, %d rules, %d workers", r.rules.Version, len(r.rules.Rules), ex.Workers())

	r.reporter.Begin(len(steps))
	for _, s := range steps {
		if ctx.Err() != nil {
			break
		}
		r.reporter.Advance(s.label)
		s.fn(ctx)
	}
	r.reporter.End()

	summary := reclaim.Summarize(r.counters.Snapshot(), r.now().Sub(started))
	summary.DryRun = r.dryRun
	if err := summary.Render(r.out); err != nil {
		return summary, fmt.Errorf("write summary: %w", err)
	}
	if err := ctx.Err(); err != nil {
		r.log.Warnf("interrupted: %v", err)
		return summary, err
	}
	return summary, nil
}

// targetNames trims tokens and drops the blank ones.
func targetNames(tokens []string) []string {
	var apps []string
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			apps = append(apps, tok)
		}
	}
	return apps
}

func (r *Run) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return reclaim.DefaultWorkers()
}

// ─── Cleanup mode ────────────────────────────────────────────────────────────

func (r *Run) cleanupSteps(ex *reclaim.Executor) []step {
	var steps []step
	for _, loc := range r.cfg.Locations() {
		target := reclaim.Target{
			Root:        loc.Path,
			Description: loc.Description,
			MaxDepth:    r.cfg.MaxDepth,
			AgeGated:    true,
			MinAgeDays:  loc.MinAgeDays,
		}
		steps = append(steps, step{
			label: "Scanning " + loc.Description,
			fn:    func(ctx context.Context) { r.reclaim(ctx, ex, target) },
		})
	}
	return append(steps,
		step{label: "Emptying recycle bin", fn: r.perform(r.actions.RecycleBin, "")},
		step{label: "Flushing DNS cache", fn: r.perform(r.actions.FlushDNS, "")},
	)
}

// reclaim runs one engine pass. Unreachable locations are skipped.
func (r *Run) reclaim(ctx context.Context, ex *reclaim.Executor, t reclaim.Target) {
	_, err := ex.Reclaim(ctx, t)
	switch {
	case err == nil:
	case errors.Is(err, reclaim.ErrLocationUnreachable):
		r.log.Infof("skipping %s: %v", t.Description, err)
	case ctx.Err() != nil:
	default:
		r.log.Errorf("%s: %v", t.Description, err)
	}
}

// ─── Targeted mode ───────────────────────────────────────────────────────────

func (r *Run) targetedSteps(ex *reclaim.Executor, apps []string) []step {
	each := func(a actions.Action) func(context.Context) {
		return func(ctx context.Context) {
			for _, app := range apps {
				if ctx.Err() != nil {
					return
				}
				r.perform(a, app)(ctx)
			}
		}
	}

	return []step{
		{label: "Finding installed programs", fn: func(ctx context.Context) {
			for _, app := range apps {
				for _, a := range r.actions.Lookups {
					r.perform(a, app)(ctx)
				}
			}
		}},
		{label: "Terminating processes", fn: each(r.actions.Terminate)},
		{label: "Stopping services", fn: each(r.actions.Services)},
		{label: "Removing scheduled tasks", fn: each(r.actions.Tasks)},
		{label: "Removing shortcuts", fn: each(r.actions.Shortcuts)},
		{label: "Deep file search", fn: func(ctx context.Context) {
			for _, app := range apps {
				// A blank filter would match every entry under the roots.
				if strings.TrimSpace(app) == "" {
					continue
				}
				for _, root := range r.cfg.Roots() {
					if ctx.Err() != nil {
						return
					}
					r.reclaim(ctx, ex, reclaim.Target{
						Root:        root,
						Description: app + " in " + root,
						MaxDepth:    r.cfg.MaxDepth,
						NameFilter:  app,
					})
				}
			}
		}},
		{label: "Registry cleanup", fn: each(r.actions.RegistryCleanup)},
		{label: "Windows features cleanup", fn: each(r.actions.Features)},
		{label: "System integration cleanup", fn: each(r.actions.Integration)},
		{label: "Group policy cleanup", fn: each(r.actions.Policy)},
		{label: "Telemetry cleanup", fn: each(r.actions.Telemetry)},
		{label: "Final cleanup", fn: func(ctx context.Context) {
			r.perform(r.actions.RecycleBin, "")(ctx)
			r.perform(r.actions.FlushDNS, "")(ctx)
		}},
	}
}

// perform runs a and logs its outcome. Action failures never stop the run.
func (r *Run) perform(a actions.Action, app string) func(context.Context) {
	return func(ctx context.Context) {
		if a == nil || ctx.Err() != nil {
			return
		}
		o := a.Perform(ctx, actions.Request{App: app, DryRun: r.dryRun})
		name := a.Name()
		if app != "" {
			name += " " + app
		}
		switch o.Status {
		case actions.StatusFailed:
			r.log.Warnf("%s: %s", name, o)
		case actions.StatusDone, actions.StatusFound:
			r.log.Infof("%s %s: %s", ui.IconArrow, name, o)
		default:
			r.log.Debugf("%s: %s", name, o)
		}
	}
}
