package actions

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lakshaymaurya-felt/reclaim/internal/scan"
)

// shortcutDepth bounds the walk of each shortcut folder. Start Menu
// entries sit at most a few vendor folders deep.
const shortcutDepth = 4

// Shortcuts removes .lnk files whose name mentions the app from dirs.
// Folders that do not exist are ignored.
func Shortcuts(dirs []string) Action {
	return Func{Label: "shortcuts", Fn: func(ctx context.Context, req Request) Outcome {
		return removeShortcuts(ctx, req, dirs)
	}}
}

func removeShortcuts(ctx context.Context, req Request, dirs []string) Outcome {
	if o, ok := requireApp(req); !ok {
		return o
	}

	var names []string
	var errs []error
	for _, dir := range dirs {
		seq := scan.New(scan.Options{MaxDepth: shortcutDepth, NameFilter: req.App}).Scan(dir)
		for entry := range seq.Each(ctx) {
			if entry.IsDir || !strings.EqualFold(filepath.Ext(entry.Name), ".lnk") {
				continue
			}
			if !req.DryRun {
				if err := os.Remove(scan.LongPath(entry.Path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
					errs = append(errs, err)
					continue
				}
			}
			names = append(names, entry.Path)
		}
		if err := seq.Err(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}

	if len(errs) > 0 {
		return Outcome{Status: StatusFailed, Detail: fmt.Sprintf("%d removed", len(names)), Err: errors.Join(errs...)}
	}
	if len(names) == 0 {
		return notFound()
	}
	return would(req.DryRun, "remove", names)
}
