// Package reclaim deletes the eligible entries of a directory tree and
// aggregates what happened to every entry it evaluated.
package reclaim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/lakshaymaurya-felt/reclaim/internal/logging"
	"github.com/lakshaymaurya-felt/reclaim/internal/rules"
	"github.com/lakshaymaurya-felt/reclaim/internal/scan"
	"github.com/lakshaymaurya-felt/reclaim/internal/ui"
)

// ErrLocationUnreachable reports a root that is missing, not a directory or
// unreadable. Such a location contributes nothing to any counter.
var ErrLocationUnreachable = errors.New("location unreachable")

// MaxWorkers caps the default pool size.
const MaxWorkers = 8

// Classifier decides whether a path may be removed.
type Classifier interface {
	Decide(path string) rules.Decision
}

// Target is one pass of the engine over a root directory.
type Target struct {
	Root        string
	Description string
	MaxDepth    int
	// NameFilter restricts the pass to entries whose name contains it.
	NameFilter string
	// AgeGated requires entries to be at least MinAgeDays old.
	AgeGated   bool
	MinAgeDays int
}

func (t Target) label() string {
	if t.Description != "" {
		return t.Description
	}
	return t.Root
}

// Outcome is the terminal state of one evaluated entry.
type Outcome int

const (
	Deleted Outcome = iota
	Protected
	Failed
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Deleted:
		return "deleted"
	case Protected:
		return "protected"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Event describes what happened to one entry.
type Event struct {
	Target  string
	Path    string
	Outcome Outcome
	Bytes   uint64
	RuleID  string
	Err     error
}

// Observer receives an Event per entry. Calls arrive from worker goroutines.
type Observer interface {
	Observe(Event)
}

// Tally is what one pass contributed.
type Tally struct {
	Snapshot
	Scanned  int64
	Warnings []string
}

// Option configures an Executor.
type Option func(*Executor)

// WithWorkers sets the pool size. Values below one select the default.
func WithWorkers(n int) Option {
	return func(e *Executor) { e.workers = n }
}

// WithLogger sets the logger for per-entry and per-pass messages.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithDryRun evaluates every entry but removes nothing. Would-be deletions
// are counted as deleted.
func WithDryRun(dry bool) Option {
	return func(e *Executor) { e.dryRun = dry }
}

// WithObserver registers o to receive per-entry events.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// WithClock overrides the time source used by the age filter.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithRemover overrides the function that removes a single entry.
func WithRemover(remove func(path string) error) Option {
	return func(e *Executor) { e.remove = remove }
}

// Executor runs passes against a shared set of counters. Files are removed
// concurrently on a bounded worker pool.
type Executor struct {
	classifier Classifier
	counters   *Counters
	pool       pond.Pool
	workers    int
	log        *logging.Logger
	dryRun     bool
	observer   Observer
	now        func() time.Time
	remove     func(path string) error
}

// NewExecutor creates an executor that records into counters. Call Close
// when done.
func NewExecutor(classifier Classifier, counters *Counters, opts ...Option) *Executor {
	e := &Executor{
		classifier: classifier,
		counters:   counters,
		log:        logging.Discard(),
		now:        time.Now,
		remove:     removeEntry,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = DefaultWorkers()
	}
	e.pool = pond.NewPool(e.workers, pond.WithQueueSize(e.workers*4))
	return e
}

// DefaultWorkers is the CPU count capped at MaxWorkers.
func DefaultWorkers() int {
	return min(runtime.NumCPU(), MaxWorkers)
}

// Workers returns the pool size.
func (e *Executor) Workers() int {
	return e.workers
}

// Close waits for in-flight work and releases the pool.
func (e *Executor) Close() {
	e.pool.StopAndWait()
}

func removeEntry(path string) error {
	return os.Remove(scan.LongPath(path))
}

// ─── Pass ────────────────────────────────────────────────────────────────────

// Reclaim runs one pass over t. Files are settled first; directories follow
// deepest first and are removed only when empty. The returned tally holds
// this pass's contribution, which has also been added to the shared
// counters. On cancellation it returns the work done so far and ctx.Err().
func (e *Executor) Reclaim(ctx context.Context, t Target) (Tally, error) {
	root := filepath.Clean(t.Root)
	info, err := os.Stat(scan.LongPath(root))
	if err != nil {
		return Tally{}, fmt.Errorf("%w: %s: %w", ErrLocationUnreachable, root, err)
	}
	if !info.IsDir() {
		return Tally{}, fmt.Errorf("%w: %s: not a directory", ErrLocationUnreachable, root)
	}

	p := &pass{Executor: e, target: t, started: e.now(), local: &Counters{}}
	scanner := scan.New(scan.Options{MaxDepth: t.MaxDepth, NameFilter: t.NameFilter})
	seq := scanner.Scan(root)

	e.log.Debugf("scanning %s (%s)", t.label(), root)

	var dirs []*scan.Entry
	group := e.pool.NewGroup()
	for entry := range seq.Each(ctx) {
		if entry.IsDir {
			// Capture directory metadata before its contents are removed.
			_ = entry.Stat()
			dirs = append(dirs, entry)
			continue
		}
		group.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			p.settle(entry, p.file)
		})
	}
	if err := group.Wait(); err != nil {
		e.log.Warnf("%s: %v", t.label(), err)
	}

	// Pre-order reversed visits children before their parents.
	for i := len(dirs) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			break
		}
		p.settle(dirs[i], p.dir)
	}

	tally := Tally{
		Snapshot: p.local.Snapshot(),
		Scanned:  scanner.ScannedCount(),
		Warnings: scanner.Warnings(),
	}
	for _, w := range tally.Warnings {
		e.log.Debugf("%s: %s", t.label(), w)
	}

	if err := seq.Err(); err != nil {
		return tally, fmt.Errorf("%w: %w", ErrLocationUnreachable, err)
	}
	if err := ctx.Err(); err != nil {
		return tally, err
	}

	e.log.Infof("%s: %d deleted, %d protected, %d failed, %s freed",
		t.label(), tally.Deleted, tally.Protected, tally.Failed, ui.FormatSize(tally.BytesFreed))
	return tally, nil
}

type pass struct {
	*Executor
	target  Target
	started time.Time
	local   *Counters
}

// admit applies the classifier and, for age-gated passes, the age filter.
func (p *pass) admit(entry *scan.Entry) (ok bool, ruleID string) {
	d := p.classifier.Decide(entry.Path)
	if d.Verdict == rules.Protected {
		return false, d.RuleID
	}
	if p.target.AgeGated {
		mod, _ := entry.ModTime()
		if !rules.IsOldEnough(mod, p.target.MinAgeDays, p.started) {
			return false, "age"
		}
	}
	return true, d.RuleID
}

// settle runs fn on entry and counts a panic as a failure of that entry.
func (p *pass) settle(entry *scan.Entry, fn func(*scan.Entry)) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(entry, fmt.Errorf("panic: %v", r))
		}
	}()
	fn(entry)
}

func (p *pass) file(entry *scan.Entry) {
	ok, ruleID := p.admit(entry)
	if !ok {
		p.protect(entry, ruleID)
		return
	}

	size, ok := entry.Size()
	if !ok {
		p.fail(entry, entry.Stat())
		return
	}

	if !p.dryRun {
		if err := p.remove(entry.Path); err != nil {
			p.fail(entry, err)
			return
		}
	}
	p.delete(entry, size, ruleID)
}

func (p *pass) dir(entry *scan.Entry) {
	ok, ruleID := p.admit(entry)
	if !ok {
		p.protect(entry, ruleID)
		return
	}
	if err := entry.Stat(); err != nil {
		p.fail(entry, err)
		return
	}

	empty, err := isEmptyDir(entry.Path)
	if err != nil {
		p.fail(entry, err)
		return
	}
	if !empty {
		p.local.addSkipped()
		p.counters.addSkipped()
		p.log.Debugf("retained non-empty directory %s", entry.Path)
		p.emit(Event{Path: entry.Path, Outcome: Skipped})
		return
	}

	if !p.dryRun {
		if err := p.remove(entry.Path); err != nil {
			p.fail(entry, err)
			return
		}
	}
	p.delete(entry, 0, ruleID)
}

func (p *pass) delete(entry *scan.Entry, size uint64, ruleID string) {
	p.local.addDeleted(size)
	p.counters.addDeleted(size)
	if p.dryRun {
		p.log.Debugf("would delete %s (%s)", entry.Path, ui.FormatSize(size))
	} else {
		p.log.Debugf("deleted %s (%s)", entry.Path, ui.FormatSize(size))
	}
	p.emit(Event{Path: entry.Path, Outcome: Deleted, Bytes: size, RuleID: ruleID})
}

func (p *pass) protect(entry *scan.Entry, ruleID string) {
	p.local.addProtected()
	p.counters.addProtected()
	p.log.Debugf("protected %s (%s)", entry.Path, ruleID)
	p.emit(Event{Path: entry.Path, Outcome: Protected, RuleID: ruleID})
}

func (p *pass) fail(entry *scan.Entry, err error) {
	p.local.addFailed()
	p.counters.addFailed()
	p.log.Warnf("could not remove %s [%s]: %v", entry.Path, Cause(err), err)
	p.emit(Event{Path: entry.Path, Outcome: Failed, Err: err})
}

func (p *pass) emit(ev Event) {
	if p.observer == nil {
		return
	}
	ev.Target = p.target.label()
	p.observer.Observe(ev)
}

func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(scan.LongPath(path))
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
