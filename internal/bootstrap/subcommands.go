package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chmouel/nodupe/internal/buildinfo"
	"github.com/chmouel/nodupe/internal/config"
	"github.com/chmouel/nodupe/internal/log"
	"github.com/chmouel/nodupe/internal/models"
	"github.com/chmouel/nodupe/internal/outpath"
	"github.com/chmouel/nodupe/internal/processor"
	"github.com/chmouel/nodupe/internal/report"
	"github.com/chmouel/nodupe/internal/scan"
	"github.com/chmouel/nodupe/internal/watch"
	"github.com/spf13/afero"
	urfavecli "github.com/urfave/cli/v3"
)

// ErrFilesFailed is returned when at least one file could not be processed.
var ErrFilesFailed = errors.New("some files could not be processed")

var (
	loadCLIConfigFunc = loadCLIConfig
	newFsFunc         = afero.NewOsFs
)

func runCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "run",
		Usage:     "Deduplicate every file of a directory (default command)",
		ArgsUsage: "[DIR]",
		Action:    runAction,
	}
}

func pathCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "path",
		Usage:     "Print the output path each FILE would be written to",
		ArgsUsage: "FILE...",
		Action:    pathAction,
	}
}

func versionCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:  "version",
		Usage: "Print version information",
		Action: func(_ context.Context, cmd *urfavecli.Command) error {
			printVersion(cmd.Root().Writer)
			return nil
		},
	}
}

// loadCLIConfig loads the configuration file and applies --config overrides.
func loadCLIConfig(configFileFlag string, configOverrides []string) (*config.AppConfig, error) {
	cfg, err := config.LoadConfig(configFileFlag)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if len(configOverrides) > 0 {
		if err := cfg.ApplyCLIOverrides(configOverrides); err != nil {
			return nil, fmt.Errorf("error applying config overrides: %w", err)
		}
	}
	return cfg, nil
}

// applyRunFlags copies the flags given on the command line over cfg.
// Unset flags leave the configured values alone.
func applyRunFlags(cfg *config.AppConfig, cmd *urfavecli.Command) {
	if cmd.IsSet("dir") {
		cfg.Dir = cmd.String("dir")
	}
	if cmd.IsSet("marker") {
		cfg.Marker = cmd.String("marker")
	}
	if cmd.IsSet("fallback") {
		cfg.FallbackSuffix = cmd.String("fallback")
	}
	if cmd.IsSet("format") {
		cfg.Format = strings.ToLower(strings.TrimSpace(cmd.String("format")))
	}
	if cmd.IsSet("theme") {
		cfg.Theme = strings.ToLower(strings.TrimSpace(cmd.String("theme")))
	}
	if cmd.IsSet("include") {
		cfg.Include = cmd.StringSlice("include")
	}
	if cmd.IsSet("exclude") {
		cfg.Exclude = cmd.StringSlice("exclude")
	}
	if cmd.IsSet("skip-binary") {
		cfg.SkipBinary = cmd.Bool("skip-binary")
	}
	if cmd.IsSet("skip-generated") {
		cfg.SkipGenerated = cmd.Bool("skip-generated")
	}
	if cmd.IsSet("dry-run") {
		cfg.DryRun = cmd.Bool("dry-run")
	}
	if cmd.IsSet("no-atomic") {
		cfg.Atomic = !cmd.Bool("no-atomic")
	}
	if cmd.IsSet("verbose") {
		cfg.Verbose = cmd.Bool("verbose")
	}
	if cmd.IsSet("debug-log") {
		cfg.DebugLog = cmd.String("debug-log")
	}
	if cmd.IsSet("watch-debounce") {
		cfg.WatchDebounce = cmd.Duration("watch-debounce")
	}
}

// commandConfig builds the effective configuration of cmd: file, then
// overrides, then flags.
func commandConfig(cmd *urfavecli.Command) (*config.AppConfig, error) {
	cfg, err := loadCLIConfigFunc(cmd.String("config-file"), cmd.StringSlice("config"))
	if err != nil {
		return nil, err
	}
	applyRunFlags(cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupDebugLog routes the debug log as configured and returns the function
// that closes it.
func setupDebugLog(cfg *config.AppConfig, errOut io.Writer) (func(), error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return func() {}, err
	}
	log.SetLevel(level)

	if cfg.Verbose {
		log.Mirror(errOut)
	}

	path := cfg.DebugLog
	if path != "" {
		if expanded, err := config.ExpandPath(path); err == nil {
			path = expanded
		}
	}
	if err := log.SetFile(path); err != nil {
		_, _ = fmt.Fprintf(errOut, "Error opening debug log file %q: %v\n", path, err)
	}

	return func() {
		log.Mirror(nil)
		if err := log.Close(); err != nil {
			_, _ = fmt.Fprintf(errOut, "Error closing debug log: %v\n", err)
		}
	}, nil
}

func runAction(ctx context.Context, cmd *urfavecli.Command) error {
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	switch args := cmd.Args().Slice(); len(args) {
	case 0:
	case 1:
		cfg.Dir = args[0]
	default:
		return fmt.Errorf("expected at most one directory, got %d arguments", len(args))
	}

	// The watcher logs from its own goroutine while the report writes
	// errors, both to errOut.
	errOut := log.NewSyncWriter(cmd.Root().ErrWriter)
	closeLog, err := setupDebugLog(cfg, errOut)
	if err != nil {
		return err
	}
	defer closeLog()

	deriver, err := cfg.Deriver()
	if err != nil {
		return err
	}
	rules := scan.Rules{
		Include:       cfg.Include,
		Exclude:       cfg.Exclude,
		SkipBinary:    cfg.SkipBinary,
		SkipGenerated: cfg.SkipGenerated,
		Deriver:       deriver,
	}
	if err := rules.Validate(); err != nil {
		return err
	}

	fs := newFsFunc()
	proc := processor.New(fs, deriver, processor.Options{
		Rules:  rules,
		DryRun: cfg.DryRun,
		Atomic: cfg.Atomic,
	})
	rep := report.New(cmd.Root().Writer, errOut, cfg.Format, cfg.Verbose)
	rep.SetTheme(cfg.Theme)

	log.Info("run started", "dir", cfg.Dir, "dry_run", cfg.DryRun, "atomic", cfg.Atomic)
	summary, err := proc.Run(ctx, cfg.Dir, rep.Emit)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}
	rep.Summary(summary)

	if cmd.Bool("watch") {
		summary, err = watchDir(ctx, fs, cfg, proc, rep, deriver, summary)
		if err != nil {
			return err
		}
	}

	if err := rep.Err(); err != nil {
		if report.IsBrokenPipe(err) {
			return nil
		}
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, summary.Failed, summary.Total())
	}
	return nil
}

// watchDir re-processes files of cfg.Dir as they change until ctx is done,
// then reports the totals of the whole session.
func watchDir(ctx context.Context, fs afero.Fs, cfg *config.AppConfig, proc *processor.Processor, rep *report.Reporter, deriver *outpath.Deriver, total models.Summary) (models.Summary, error) {
	w := watch.New(fs, cfg.Dir, cfg.WatchDebounce, log.Printf)
	w.Ignore = func(path string) bool {
		base := filepath.Base(path)
		return strings.HasPrefix(base, processor.TempPrefix) || deriver.IsDerived(base)
	}

	err := w.Run(ctx, func(path string) {
		res := proc.Process(ctx, path)
		total.Record(res)
		rep.Emit(res)
	})
	if err != nil {
		return total, fmt.Errorf("failed to watch %s: %w", cfg.Dir, err)
	}
	rep.Summary(total)
	return total, nil
}

func pathAction(_ context.Context, cmd *urfavecli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("usage: nodupe path FILE...")
	}
	cfg, err := commandConfig(cmd)
	if err != nil {
		return err
	}
	deriver, err := cfg.Deriver()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	for _, file := range cmd.Args().Slice() {
		if _, err := fmt.Fprintln(out, deriver.Derive(file)); err != nil {
			if report.IsBrokenPipe(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	buildinfo.Enrich()
	_, _ = io.WriteString(w, buildinfo.String())
}
