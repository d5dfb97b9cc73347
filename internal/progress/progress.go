// Package progress reports a run's advance to the user. Reporters are purely
// presentational: they read counters and never change what a run does.
package progress

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/lakshaymaurya-felt/reclaim/internal/logging"
	"github.com/lakshaymaurya-felt/reclaim/internal/reclaim"
	"github.com/lakshaymaurya-felt/reclaim/internal/ui"
	"github.com/mattn/go-isatty"
	"golang.org/x/time/rate"
)

// Reporter follows a run through its steps. Observe is called from worker
// goroutines; the other methods from the run's goroutine.
type Reporter interface {
	// Begin announces a run of the given number of steps.
	Begin(steps int)
	// Advance starts the next step.
	Advance(label string)
	// Observe receives per-entry engine events.
	Observe(ev reclaim.Event)
	// End stops reporting. The reporter must not be used afterwards.
	End()
}

// Interactive reports whether f is a terminal that can host the live view.
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ─── Nop ─────────────────────────────────────────────────────────────────────

// Nop discards everything.
type Nop struct{}

func (Nop) Begin(int)             {}
func (Nop) Advance(string)        {}
func (Nop) Observe(reclaim.Event) {}
func (Nop) End()                  {}

// ─── Plain ───────────────────────────────────────────────────────────────────

// Plain writes step banners and periodic counter lines through a logger.
// It suits redirected output where a live view would be noise.
type Plain struct {
	log      *logging.Logger
	counters *reclaim.Counters
	every    rate.Sometimes
	steps    int
	step     atomic.Int32
}

// NewPlain creates a reporter that prints at most one counter line per
// interval.
func NewPlain(log *logging.Logger, counters *reclaim.Counters, interval time.Duration) *Plain {
	return &Plain{
		log:      log,
		counters: counters,
		every:    rate.Sometimes{Interval: interval},
	}
}

func (p *Plain) Begin(steps int) {
	p.steps = steps
}

func (p *Plain) Advance(label string) {
	n := p.step.Add(1)
	p.log.Infof("STEP %d/%d: %s", n, p.steps, label)
}

func (p *Plain) Observe(reclaim.Event) {
	p.every.Do(func() {
		p.log.Infof("progress: %s", countsLine(p.counters.Snapshot()))
	})
}

func (p *Plain) End() {}

func countsLine(s reclaim.Snapshot) string {
	return fmt.Sprintf("%d deleted, %d protected, %d failed, %s freed",
		s.Deleted, s.Protected, s.Failed, ui.FormatSize(s.BytesFreed))
}
