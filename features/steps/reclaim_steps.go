//go:build integration

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/lakshaymaurya-felt/reclaim/internal/reclaim"
	"github.com/lakshaymaurya-felt/reclaim/internal/rules"
)

// reclaimContext holds test state for reclamation scenarios
type reclaimContext struct {
	base    string
	root    string
	now     time.Time
	last    reclaim.Snapshot
	verdict rules.Verdict
}

// SharedReclaimContext is reset before each scenario via Before hook
var SharedReclaimContext *reclaimContext

func getReclaimContext() *reclaimContext {
	return SharedReclaimContext
}

func InitializeReclaimScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedReclaimContext = &reclaimContext{now: time.Now()}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if rc := getReclaimContext(); rc != nil && rc.base != "" {
			_ = os.RemoveAll(rc.base)
		}
		SharedReclaimContext = nil
		return c, nil
	})

	ctx.Step(`^a transient location$`, aTransientLocation)
	ctx.Step(`^the location contains a file "([^"]*)" of (\d+) bytes$`, theLocationContainsAFile)
	ctx.Step(`^the location contains a file "([^"]*)" of (\d+) bytes modified (\d+) days ago$`, theLocationContainsAnAgedFile)
	ctx.Step(`^I reclaim the location$`, iReclaimTheLocation)
	ctx.Step(`^I reclaim the location again$`, iReclaimTheLocation)
	ctx.Step(`^I reclaim the location with a minimum age of (\d+) days$`, iReclaimWithMinimumAge)
	ctx.Step(`^I reclaim the location with a maximum depth of (\d+)$`, iReclaimWithMaximumDepth)
	ctx.Step(`^I dry-run the location$`, iDryRunTheLocation)
	ctx.Step(`^(\d+) entr(?:y|ies) (?:is|are) deleted$`, entriesAreDeleted)
	ctx.Step(`^(\d+) entr(?:y|ies) (?:is|are) protected$`, entriesAreProtected)
	ctx.Step(`^(\d+) entr(?:y|ies) failed$`, entriesFailed)
	ctx.Step(`^(\d+) bytes are freed$`, bytesAreFreed)
	ctx.Step(`^the file "([^"]*)" still exists$`, theFileStillExists)
	ctx.Step(`^I classify "([^"]*)"$`, iClassify)
	ctx.Step(`^the verdict is "([^"]*)"$`, theVerdictIs)
}

func aTransientLocation() error {
	rc := getReclaimContext()
	base, err := os.MkdirTemp("", "reclaim-bdd")
	if err != nil {
		return err
	}
	rc.base = base
	rc.root = filepath.Join(base, "Temp")
	return os.MkdirAll(rc.root, 0o755)
}

func theLocationContainsAFile(name string, size int) error {
	rc := getReclaimContext()
	path := filepath.Join(rc.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644)
}

func theLocationContainsAnAgedFile(name string, size, days int) error {
	if err := theLocationContainsAFile(name, size); err != nil {
		return err
	}
	rc := getReclaimContext()
	mod := rc.now.Add(-time.Duration(days) * 24 * time.Hour)
	return os.Chtimes(filepath.Join(rc.root, filepath.FromSlash(name)), mod, mod)
}

func reclaimWith(t reclaim.Target, dryRun bool) error {
	rc := getReclaimContext()
	t.Root = rc.root
	t.Description = "scenario"
	if t.MaxDepth == 0 {
		t.MaxDepth = 3
	}

	counters := &reclaim.Counters{}
	ex := reclaim.NewExecutor(rules.Default(), counters,
		reclaim.WithWorkers(4),
		reclaim.WithDryRun(dryRun),
		reclaim.WithClock(func() time.Time { return rc.now }),
	)
	defer ex.Close()

	if _, err := ex.Reclaim(context.Background(), t); err != nil {
		return err
	}
	rc.last = counters.Snapshot()
	return nil
}

func iReclaimTheLocation() error {
	return reclaimWith(reclaim.Target{AgeGated: true}, false)
}

func iReclaimWithMinimumAge(days int) error {
	return reclaimWith(reclaim.Target{AgeGated: true, MinAgeDays: days}, false)
}

func iReclaimWithMaximumDepth(depth int) error {
	return reclaimWith(reclaim.Target{MaxDepth: depth}, false)
}

func iDryRunTheLocation() error {
	return reclaimWith(reclaim.Target{AgeGated: true}, true)
}

func expectCount(what string, got uint64, want int) error {
	if got != uint64(want) {
		return fmt.Errorf("expected %d %s, got %d", want, what, got)
	}
	return nil
}

func entriesAreDeleted(n int) error {
	return expectCount("deleted", getReclaimContext().last.Deleted, n)
}

func entriesAreProtected(n int) error {
	return expectCount("protected", getReclaimContext().last.Protected, n)
}

func entriesFailed(n int) error {
	return expectCount("failed", getReclaimContext().last.Failed, n)
}

func bytesAreFreed(n int) error {
	return expectCount("bytes freed", getReclaimContext().last.BytesFreed, n)
}

func theFileStillExists(name string) error {
	path := filepath.Join(getReclaimContext().root, filepath.FromSlash(name))
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("expected %s to exist: %w", name, err)
	}
	return nil
}

func iClassify(path string) error {
	getReclaimContext().verdict = rules.Default().Classify(path)
	return nil
}

func theVerdictIs(want string) error {
	if got := getReclaimContext().verdict.String(); got != want {
		return fmt.Errorf("expected verdict %q, got %q", want, got)
	}
	return nil
}
