// Package scan walks a directory tree to a bounded depth and yields the
// entries it finds as a lazy, single-pass sequence.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lakshaymaurya-felt/reclaim/internal/iterx"
)

// DefaultMaxDepth is the traversal bound used when Options.MaxDepth is unset.
const DefaultMaxDepth = 3

const maxWarnings = 500

// Entry is one filesystem node discovered during a walk. Metadata is read on
// first use and memoized.
type Entry struct {
	Path  string
	Name  string
	IsDir bool
	Depth int

	d    fs.DirEntry
	once sync.Once
	info fs.FileInfo
	err  error
}

// Stat resolves the entry's metadata and returns the read error, if any.
func (e *Entry) Stat() error {
	e.once.Do(func() {
		e.info, e.err = e.d.Info()
	})
	return e.err
}

// Size returns the entry's size in bytes. Directories report zero. ok is
// false when metadata could not be read.
func (e *Entry) Size() (size uint64, ok bool) {
	if e.Stat() != nil {
		return 0, false
	}
	if e.IsDir || e.info.Size() < 0 {
		return 0, true
	}
	return uint64(e.info.Size()), true
}

// ModTime returns the last-modified time. ok is false when metadata could
// not be read.
func (e *Entry) ModTime() (t time.Time, ok bool) {
	if e.Stat() != nil {
		return time.Time{}, false
	}
	return e.info.ModTime(), true
}

// Options bound a walk.
type Options struct {
	// MaxDepth is the deepest level yielded; the root is depth 0 and never
	// yielded. Directories at MaxDepth are yielded but not entered.
	MaxDepth int
	// NameFilter, when set, restricts yielded entries to those whose name
	// contains it, compared case-insensitively. Non-matching directories are
	// still entered.
	NameFilter string
}

// Scanner performs depth-bounded walks and collects the warnings they raise.
type Scanner struct {
	opts         Options
	filter       string
	mu           sync.Mutex
	warnings     []string
	scannedCount atomic.Int64
}

// New creates a scanner.
func New(opts Options) *Scanner {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Scanner{
		opts:   opts,
		filter: strings.ToLower(opts.NameFilter),
	}
}

// Warnings returns the warnings accumulated so far, capped at a fixed count.
func (s *Scanner) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.warnings...)
}

// ScannedCount returns the number of entries visited so far, yielded or not.
func (s *Scanner) ScannedCount() int64 {
	return s.scannedCount.Load()
}

func (s *Scanner) addWarning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.warnings) < maxWarnings {
		s.warnings = append(s.warnings, msg)
	}
}

// Scan returns the entries below root. A root that cannot be read is
// reported through the sequence's Err; unreadable entries below it are
// skipped and recorded as warnings. A root that is a symbolic link is
// resolved first; links below it are yielded as plain entries and never
// followed.
func (s *Scanner) Scan(root string) iterx.Seq[*Entry] {
	root = filepath.Clean(root)

	return iterx.New(func(ctx context.Context, yield func(*Entry) bool) error {
		info, err := os.Stat(LongPath(root))
		if err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("scan %s: not a directory", root)
		}

		// WalkDir does not descend into a root that is itself a link, so
		// walk its target and report paths under root.
		walkRoot := root
		if li, err := os.Lstat(LongPath(root)); err == nil && li.Mode()&fs.ModeSymlink != 0 {
			if resolved, err := filepath.EvalSymlinks(root); err == nil {
				walkRoot = resolved
			}
		}

		err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if walkRoot != root {
				if rel, relErr := filepath.Rel(walkRoot, path); relErr == nil {
					path = filepath.Join(root, rel)
				}
			}

			if err != nil {
				if path == root {
					return err
				}
				s.addWarning("cannot read " + path + ": " + err.Error())
				return nil
			}

			if path == root {
				return nil
			}

			s.scannedCount.Add(1)
			depth := depthOf(root, path)

			// Junctions and reparse points are never entered.
			if d.IsDir() && isReparsePoint(path) {
				s.addWarning("skipping junction/reparse: " + path)
				return fs.SkipDir
			}

			if s.matches(d.Name()) {
				entry := &Entry{
					Path:  path,
					Name:  d.Name(),
					IsDir: d.IsDir(),
					Depth: depth,
					d:     d,
				}
				if !yield(entry) {
					return fs.SkipAll
				}
			}

			if d.IsDir() && depth >= s.opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("scan %s: %w", root, err)
		}
		return nil
	})
}

func (s *Scanner) matches(name string) bool {
	return s.filter == "" || strings.Contains(strings.ToLower(name), s.filter)
}

func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
