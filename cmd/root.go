package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/reclaim/internal/actions"
	"github.com/lakshaymaurya-felt/reclaim/internal/config"
	"github.com/lakshaymaurya-felt/reclaim/internal/lock"
	"github.com/lakshaymaurya-felt/reclaim/internal/logging"
	"github.com/lakshaymaurya-felt/reclaim/internal/platform"
	"github.com/lakshaymaurya-felt/reclaim/internal/progress"
	"github.com/lakshaymaurya-felt/reclaim/internal/reclaim"
	"github.com/lakshaymaurya-felt/reclaim/internal/run"
)

var (
	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// progressInterval paces the counter lines of non-interactive runs.
const progressInterval = 2 * time.Second

// options are the root command's flags.
type options struct {
	force      bool
	dryRun     bool
	debug      bool
	configPath string
	workers    int
	maxDepth   int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "reclaim [flags] <app-or-keyword>...",
		Short: "Reclaim disk space without touching the system",
		Long: `reclaim removes what is safe to remove and nothing else.

Cleanup mode runs when every argument is one of temp, tmp, logs, cache,
temporary or prefetch: the built-in temporary locations are swept, keeping
anything younger than each location's age threshold.

Any other argument names an application. Its processes, services, tasks,
shortcuts, files under the install roots and registry leftovers are
removed after confirmation.

Operating-system components are always protected.`,
		Example: `  reclaim temp cache
  reclaim --dry-run prefetch
  reclaim -f slack zoom`,
		Args:          cobra.MatchAll(cobra.MinimumNArgs(1), nonBlankArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReclaim(cmd, opts, args)
		},
	}

	f := root.Flags()
	f.BoolVarP(&opts.force, "force", "f", false, "Skip the confirmation prompt in targeted mode")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Report what would be removed without removing it")
	f.StringVar(&opts.configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	f.IntVar(&opts.workers, "workers", 0, "Concurrent deletions (default: CPU count, at most 8)")
	f.IntVar(&opts.maxDepth, "max-depth", config.DefaultConfig().MaxDepth, "Directory levels scanned below each root")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Show detailed operation logs")

	root.AddCommand(newVersionCmd(), newCompletionCmd())
	return root
}

// nonBlankArgs rejects empty or whitespace-only arguments, which would
// otherwise name every file under the install roots.
func nonBlankArgs(_ *cobra.Command, args []string) error {
	for i, arg := range args {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("argument %d is blank", i+1)
		}
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func runReclaim(cmd *cobra.Command, opts *options, args []string) error {
	out := cmd.OutOrStdout()

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	var workers, maxDepth *int
	if cmd.Flags().Changed("workers") {
		workers = &opts.workers
	}
	if cmd.Flags().Changed("max-depth") {
		maxDepth = &opts.maxDepth
	}
	cfg.MergeWithFlags(workers, maxDepth, opts.debug)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	cleanup := run.IsCleanupMode(args)
	if !cleanup && !opts.force {
		ok, err := confirmTargets(newPrompter(cmd), out, args)
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !ok {
			return nil
		}
	}

	instance := lock.New(filepath.Join(config.Dir(), config.AppName+".lock"))
	if err := instance.Acquire(); err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return errors.New("another reclaim run is in progress")
		}
		return err
	}
	defer instance.Release()

	log, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Console:    cmd.ErrOrStderr(),
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Close()

	log.Debugf("reclaim %s on %s, config %s", appVersion, platform.Version(), cfgPath)
	if platform.IsWindows() && !platform.Elevated() {
		log.Warnf("not running elevated: system locations may be skipped")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counters := &reclaim.Counters{}
	var reporter progress.Reporter
	if stdout, ok := out.(*os.File); ok && progress.Interactive(stdout) {
		reporter = progress.NewTUI(title(cleanup, args), counters, log, stop)
	} else {
		reporter = progress.NewPlain(log, counters, progressInterval)
	}

	r := run.New(cfg, run.Deps{
		Log:      log,
		Reporter: reporter,
		Actions:  actions.Default(config.DefaultShortcutDirs()),
		Counters: counters,
		Out:      out,
		DryRun:   opts.dryRun,
	})
	log.Debugf("run %s started", r.ID)

	if _, err := r.Execute(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return nil
}

func title(cleanup bool, args []string) string {
	if cleanup {
		return "Cleaning " + strings.Join(args, ", ")
	}
	return "Removing " + strings.Join(args, ", ")
}
