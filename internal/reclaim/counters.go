package reclaim

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/lakshaymaurya-felt/reclaim/internal/ui"
)

// Counters aggregate the outcomes of every pass in one run. Each field only
// grows and is updated atomically; readers get no cross-field consistency.
type Counters struct {
	deleted    atomic.Uint64
	failed     atomic.Uint64
	protected  atomic.Uint64
	skipped    atomic.Uint64
	bytesFreed atomic.Uint64
}

func (c *Counters) addDeleted(size uint64) {
	c.deleted.Add(1)
	c.bytesFreed.Add(size)
}

func (c *Counters) addFailed()    { c.failed.Add(1) }
func (c *Counters) addProtected() { c.protected.Add(1) }
func (c *Counters) addSkipped()   { c.skipped.Add(1) }

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	Deleted    uint64
	Failed     uint64
	Protected  uint64
	Skipped    uint64
	BytesFreed uint64
}

// Snapshot loads each counter independently.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Deleted:    c.deleted.Load(),
		Failed:     c.failed.Load(),
		Protected:  c.protected.Load(),
		Skipped:    c.skipped.Load(),
		BytesFreed: c.bytesFreed.Load(),
	}
}

// Evaluated is the number of entries that reached a terminal decision.
func (s Snapshot) Evaluated() uint64 {
	return s.Deleted + s.Failed + s.Protected
}

// Sub returns the difference s - prev, field by field.
func (s Snapshot) Sub(prev Snapshot) Snapshot {
	return Snapshot{
		Deleted:    s.Deleted - prev.Deleted,
		Failed:     s.Failed - prev.Failed,
		Protected:  s.Protected - prev.Protected,
		Skipped:    s.Skipped - prev.Skipped,
		BytesFreed: s.BytesFreed - prev.BytesFreed,
	}
}

// ─── Summary ─────────────────────────────────────────────────────────────────

// Summary is the end-of-run report.
type Summary struct {
	Snapshot
	Elapsed time.Duration
	DryRun  bool
}

// Summarize pairs final counters with the run's duration.
func Summarize(s Snapshot, elapsed time.Duration) Summary {
	return Summary{Snapshot: s, Elapsed: elapsed}
}

// MiBFreed is BytesFreed in whole mebibytes, rounded down.
func (s Summary) MiBFreed() uint64 {
	return s.BytesFreed / 1024 / 1024
}

// Render writes the summary block to w.
func (s Summary) Render(w io.Writer) error {
	title := "Reclamation complete"
	if s.DryRun {
		title = "Dry run complete (nothing was removed)"
	}

	lines := []string{
		"",
		ui.Rule(60),
		ui.TitleStyle().Render(title),
		ui.Rule(60),
		fmt.Sprintf("  Total time:       %.1fs", s.Elapsed.Seconds()),
		ui.SuccessStyle().Render(fmt.Sprintf("  %s Items deleted:  %d", ui.IconSuccess, s.Deleted)),
		fmt.Sprintf("  Space freed:      %d MB (%s)", s.MiBFreed(), ui.FormatSize(s.BytesFreed)),
		ui.WarningStyle().Render(fmt.Sprintf("  %s Items protected: %d", ui.IconShield, s.Protected)),
		ui.ErrorStyle().Render(fmt.Sprintf("  %s Items failed:   %d", ui.IconError, s.Failed)),
	}
	if s.Skipped > 0 {
		lines = append(lines, ui.MutedStyle().Render(fmt.Sprintf("  %s Items skipped:  %d", ui.IconBullet, s.Skipped)))
	}
	lines = append(lines, ui.Rule(60))

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
