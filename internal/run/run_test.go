package run_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/reclaim/internal/actions"
	"github.com/lakshaymaurya-felt/reclaim/internal/config"
	"github.com/lakshaymaurya-felt/reclaim/internal/reclaim"
	"github.com/lakshaymaurya-felt/reclaim/internal/run"
)

func TestIsCleanupMode(t *testing.T) {
	tests := []struct {
		tokens []string
		want   bool
	}{
		{[]string{"temp"}, true},
		{[]string{"TEMP", "Cache", "prefetch"}, true},
		{[]string{"tmp", "logs", "temporary"}, true},
		{[]string{"temp", "slack"}, false},
		{[]string{"slack"}, false},
		{[]string{"temps"}, false},
		{[]string{" temp "}, true},
		{[]string{""}, false},
		{nil, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, run.IsCleanupMode(tt.tokens), "%v", tt.tokens)
	}
}

// ledger records every action invocation.
type ledger struct {
	mu    sync.Mutex
	calls []string
}

func (l *ledger) action(name string, status actions.Status) actions.Action {
	return actions.Func{Label: name, Fn: func(_ context.Context, req actions.Request) actions.Outcome {
		l.mu.Lock()
		defer l.mu.Unlock()
		call := name
		if req.App != "" {
			call += " " + req.App
		}
		if req.DryRun {
			call += " (dry)"
		}
		l.calls = append(l.calls, call)
		return actions.Outcome{Status: status}
	}}
}

func (l *ledger) set() actions.Set {
	return actions.Set{
		Lookups:         []actions.Action{l.action("winget", actions.StatusFound), l.action("registry", actions.StatusNotFound)},
		Terminate:       l.action("terminate", actions.StatusFailed),
		Services:        l.action("services", actions.StatusNotFound),
		Tasks:           l.action("tasks", actions.StatusNotFound),
		Shortcuts:       l.action("shortcuts", actions.StatusDone),
		RegistryCleanup: l.action("registry-cleanup", actions.StatusSkipped),
		Features:        l.action("features", actions.StatusSkipped),
		Integration:     l.action("integration", actions.StatusSkipped),
		Policy:          l.action("policy", actions.StatusSkipped),
		Telemetry:       l.action("telemetry", actions.StatusSkipped),
		RecycleBin:      l.action("recycle-bin", actions.StatusDone),
		FlushDNS:        l.action("flush-dns", actions.StatusDone),
	}
}

// steps records what the run reported.
type steps struct {
	total  int
	labels []string
	ended  bool
}

func (s *steps) Begin(n int)           { s.total = n }
func (s *steps) Advance(label string)  { s.labels = append(s.labels, label) }
func (s *steps) Observe(reclaim.Event) {}
func (s *steps) End()                  { s.ended = true }

func touch(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestCleanupMode(t *testing.T) {
	base := t.TempDir()
	tempDir := filepath.Join(base, "Temp")
	touch(t, filepath.Join(tempDir, "old.log"), "abc")
	touch(t, filepath.Join(tempDir, "ntoskrnl.exe"), "kernel")
	touch(t, filepath.Join(tempDir, "setup.exe"), "12")

	cfg := &config.Config{
		MaxDepth: 3,
		SafeLocations: []config.SafeLocation{
			{Path: tempDir, Description: "Test temp"},
			{Path: filepath.Join(base, "absent"), Description: "Absent dir"},
			{Path: tempDir + string(filepath.Separator), Description: "Duplicate"},
		},
	}
	l := &ledger{}
	rep := &steps{}
	var out bytes.Buffer

	r := run.New(cfg, run.Deps{Actions: l.set(), Reporter: rep, Out: &out})
	summary, err := r.Execute(context.Background(), []string{"temp", "cache"})
	require.NoError(t, err)

	assert.Equal(t, reclaim.Snapshot{Deleted: 2, Protected: 1, BytesFreed: 5}, summary.Snapshot)
	assert.Equal(t, summary.Snapshot, r.Counters().Snapshot())
	assert.NoFileExists(t, filepath.Join(tempDir, "old.log"))
	assert.FileExists(t, filepath.Join(tempDir, "ntoskrnl.exe"))

	assert.Equal(t, []string{
		"Scanning Test temp",
		"Scanning Absent dir",
		"Emptying recycle bin",
		"Flushing DNS cache",
	}, rep.labels)
	assert.Equal(t, 4, rep.total)
	assert.True(t, rep.ended)
	assert.Equal(t, []string{"recycle-bin", "flush-dns"}, l.calls)

	assert.Contains(t, out.String(), "Reclamation complete")
	assert.Contains(t, out.String(), "Items deleted:  2")
}

func TestTargetedMode(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Slack", "slack.log"), "x")
	touch(t, filepath.Join(root, "Slack", "SlackSetup.exe"), "exe")
	touch(t, filepath.Join(root, "Other", "notes.txt"), "keep")

	cfg := &config.Config{MaxDepth: 3, InstallRoots: []string{root}}
	l := &ledger{}
	rep := &steps{}

	r := run.New(cfg, run.Deps{Actions: l.set(), Reporter: rep, Out: &bytes.Buffer{}})
	summary, err := r.Execute(context.Background(), []string{"slack"})
	require.NoError(t, err)

	assert.Equal(t, reclaim.Snapshot{Deleted: 1, Protected: 1, Skipped: 1, BytesFreed: 1}, summary.Snapshot)
	assert.FileExists(t, filepath.Join(root, "Other", "notes.txt"))
	assert.FileExists(t, filepath.Join(root, "Slack", "SlackSetup.exe"))

	assert.Equal(t, []string{
		"Finding installed programs",
		"Terminating processes",
		"Stopping services",
		"Removing scheduled tasks",
		"Removing shortcuts",
		"Deep file search",
		"Registry cleanup",
		"Windows features cleanup",
		"System integration cleanup",
		"Group policy cleanup",
		"Telemetry cleanup",
		"Final cleanup",
	}, rep.labels)

	// A failed action does not stop the run.
	assert.Equal(t, []string{
		"winget slack",
		"registry slack",
		"terminate slack",
		"services slack",
		"tasks slack",
		"shortcuts slack",
		"registry-cleanup slack",
		"features slack",
		"integration slack",
		"policy slack",
		"telemetry slack",
		"recycle-bin",
		"flush-dns",
	}, l.calls)
}

func TestBlankTargetsRemoveNothing(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Other", "data.db"), "db")
	touch(t, filepath.Join(root, "Vendor", "cache", "blob.bin"), "blob")

	cfg := &config.Config{MaxDepth: 3, InstallRoots: []string{root}}
	for _, tokens := range [][]string{{""}, {"  ", "\t"}} {
		l := &ledger{}
		var out bytes.Buffer
		r := run.New(cfg, run.Deps{Actions: l.set(), Out: &out})
		summary, err := r.Execute(context.Background(), tokens)
		assert.ErrorIs(t, err, run.ErrNoTargets)
		assert.Zero(t, summary.Snapshot)
		assert.Empty(t, l.calls)
	}
	assert.FileExists(t, filepath.Join(root, "Other", "data.db"))
	assert.FileExists(t, filepath.Join(root, "Vendor", "cache", "blob.bin"))
}

func TestBlankTokensAmongAppsAreDropped(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "Other", "data.db"), "db")
	touch(t, filepath.Join(root, "Slack", "slack.log"), "x")

	cfg := &config.Config{MaxDepth: 3, InstallRoots: []string{root}}
	l := &ledger{}
	r := run.New(cfg, run.Deps{Actions: l.set(), Out: &bytes.Buffer{}})
	summary, err := r.Execute(context.Background(), []string{"", " slack "})
	require.NoError(t, err)

	assert.NotZero(t, summary.Snapshot.Deleted)
	assert.NoFileExists(t, filepath.Join(root, "Slack", "slack.log"))
	assert.FileExists(t, filepath.Join(root, "Other", "data.db"))
	assert.Contains(t, l.calls, "terminate slack")
	assert.NotContains(t, l.calls, "terminate ")
}

func TestTargetedModeRunsEveryApp(t *testing.T) {
	cfg := &config.Config{MaxDepth: 3}
	l := &ledger{}
	r := run.New(cfg, run.Deps{Actions: l.set(), Out: &bytes.Buffer{}})
	_, err := r.Execute(context.Background(), []string{"slack", "zoom"})
	require.NoError(t, err)

	var terminated []string
	for _, c := range l.calls {
		if strings.HasPrefix(c, "terminate") {
			terminated = append(terminated, c)
		}
	}
	assert.Equal(t, []string{"terminate slack", "terminate zoom"}, terminated)
}

func TestDryRun(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "Temp")
	touch(t, filepath.Join(tempDir, "old.log"), "abc")

	cfg := &config.Config{
		MaxDepth:      3,
		SafeLocations: []config.SafeLocation{{Path: tempDir, Description: "Test temp"}},
	}
	l := &ledger{}
	var out bytes.Buffer
	r := run.New(cfg, run.Deps{Actions: l.set(), Out: &out, DryRun: true})
	summary, err := r.Execute(context.Background(), []string{"temp"})
	require.NoError(t, err)

	assert.True(t, summary.DryRun)
	assert.Equal(t, uint64(1), summary.Deleted)
	assert.FileExists(t, filepath.Join(tempDir, "old.log"))
	assert.Equal(t, []string{"recycle-bin (dry)", "flush-dns (dry)"}, l.calls)
	assert.Contains(t, out.String(), "Dry run complete")
}

func TestCancelledRunStillSummarizes(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "Temp")
	touch(t, filepath.Join(tempDir, "old.log"), "abc")

	cfg := &config.Config{
		MaxDepth:      3,
		SafeLocations: []config.SafeLocation{{Path: tempDir, Description: "Test temp"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := &ledger{}
	rep := &steps{}
	var out bytes.Buffer
	r := run.New(cfg, run.Deps{Actions: l.set(), Reporter: rep, Out: &out})
	summary, err := r.Execute(ctx, []string{"temp"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Evaluated())
	assert.Empty(t, rep.labels)
	assert.True(t, rep.ended)
	assert.Empty(t, l.calls)
	assert.FileExists(t, filepath.Join(tempDir, "old.log"))
	assert.Contains(t, out.String(), "Reclamation complete")
}

func TestRunIDsAreDistinct(t *testing.T) {
	cfg := &config.Config{MaxDepth: 3}
	a := run.New(cfg, run.Deps{})
	b := run.New(cfg, run.Deps{})
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestExclusionsProtect(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "Temp")
	touch(t, filepath.Join(tempDir, "keep", "a.log"), "abc")
	touch(t, filepath.Join(tempDir, "b.log"), "de")

	cfg := &config.Config{
		MaxDepth:      3,
		Exclude:       []string{"*/keep/*"},
		SafeLocations: []config.SafeLocation{{Path: tempDir, Description: "Test temp"}},
	}
	r := run.New(cfg, run.Deps{Actions: (&ledger{}).set(), Out: &bytes.Buffer{}})
	summary, err := r.Execute(context.Background(), []string{"temp"})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(tempDir, "keep", "a.log"))
	assert.NoFileExists(t, filepath.Join(tempDir, "b.log"))
	assert.Equal(t, uint64(1), summary.Deleted)
	assert.Equal(t, uint64(1), summary.Protected)
}
