package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"callcheck/internal/diag"
	"callcheck/internal/diagfmt"
	"callcheck/internal/driver"
	"callcheck/internal/observ"
	"callcheck/internal/trace"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file.ll|directory>",
		Short: "Check call sites in LLVM IR files",
		Long: `Check parses a textual LLVM IR file (or every .ll file under a directory),
reports calls whose arity or argument types disagree with the callee, and
prints the list of called functions.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}
	cmd.Flags().String("format", "text", "output format (text|pretty|short|json)")
	cmd.Flags().Int("jobs", 0, "max parallel files for directories (0=auto)")
	cmd.Flags().Bool("disk-cache", false, "reuse results for unchanged files across runs")
	cmd.Flags().Bool("report-unresolved", false, "warn about calls whose callee cannot be resolved")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes")
	cmd.Flags().String("path-mode", "auto", "path display (absolute|relative|basename|auto)")
	cmd.Flags().Bool("fullpath", false, "shorthand for --path-mode=absolute")
	cmd.Flags().String("ui", "auto", "progress UI for directories (auto|on|off)")
	cmd.Flags().Bool("record", false, "append the results to the history database")
	cmd.Flags().String("db", defaultHistoryDB, "history database path")
	return cmd
}

type checkSettings struct {
	format           diagfmt.Format
	jobs             int
	diskCache        bool
	reportUnresolved bool
	withNotes        bool
	pathMode         diagfmt.PathMode
	ui               uiMode
	record           string
	maxDiagnostics   int
	timings          bool
	quiet            bool
	color            bool
}

func readCheckSettings(cmd *cobra.Command, cfg *projectConfig) (checkSettings, error) {
	var s checkSettings
	var c checkSection
	if cfg != nil {
		c = cfg.File.Check
	}

	formatStr, err := stringSetting(cmd, cfg, "format", "format", c.Format)
	if err != nil {
		return s, err
	}
	if s.format, err = diagfmt.ParseFormat(formatStr); err != nil {
		return s, err
	}
	if s.jobs, err = intSetting(cmd, cfg, "jobs", "jobs", c.Jobs); err != nil {
		return s, err
	}
	if s.jobs < 0 {
		return s, fmt.Errorf("--jobs must be >= 0")
	}
	if s.diskCache, err = boolSetting(cmd, cfg, "disk-cache", "disk_cache", c.DiskCache); err != nil {
		return s, err
	}
	if s.reportUnresolved, err = boolSetting(cmd, cfg, "report-unresolved", "report_unresolved", c.ReportUnresolved); err != nil {
		return s, err
	}
	if s.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return s, fmt.Errorf("failed to get with-notes flag: %w", err)
	}

	pathModeStr, err := stringSetting(cmd, cfg, "path-mode", "path_mode", c.PathMode)
	if err != nil {
		return s, err
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return s, fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	if fullPath {
		pathModeStr = "absolute"
	}
	if s.pathMode, err = diagfmt.ParsePathMode(pathModeStr); err != nil {
		return s, err
	}

	uiStr, err := stringSetting(cmd, cfg, "ui", "ui", c.UI)
	if err != nil {
		return s, err
	}
	if s.ui, err = readUIMode(uiStr); err != nil {
		return s, err
	}

	record, err := cmd.Flags().GetBool("record")
	if err != nil {
		return s, fmt.Errorf("failed to get record flag: %w", err)
	}
	if record {
		db, dbErr := cmd.Flags().GetString("db")
		if dbErr != nil {
			return s, fmt.Errorf("failed to get db flag: %w", dbErr)
		}
		s.record = cfg.historyDB(db, cmd.Flags().Changed("db"))
	}

	pf := cmd.Root().PersistentFlags()
	if s.maxDiagnostics, err = pf.GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if !pf.Changed("max-diagnostics") && cfg.defined("check", "max_diagnostics") {
		s.maxDiagnostics = c.MaxDiagnostics
	}
	if s.maxDiagnostics < 0 {
		return s, fmt.Errorf("--max-diagnostics must be >= 0")
	}
	if s.timings, err = pf.GetBool("timings"); err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if s.quiet, err = pf.GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if s.color, err = useColor(cmd); err != nil {
		return s, err
	}
	return s, nil
}

func (s checkSettings) outputOpts(baseDir string) diagfmt.Opts {
	return diagfmt.Opts{
		Color:     s.color,
		PathMode:  s.pathMode,
		BaseDir:   baseDir,
		ShowNotes: s.withNotes,
		Max:       s.maxDiagnostics,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := args[0]
	cfg, err := resolveConfig(cmd, target)
	if err != nil {
		return err
	}
	settings, err := readCheckSettings(cmd, cfg)
	if err != nil {
		return err
	}
	opts := driver.Options{
		MaxDiagnostics:   settings.maxDiagnostics,
		ReportUnresolved: settings.reportUnresolved,
		EnableTimings:    settings.timings,
		Jobs:             settings.jobs,
	}
	if settings.diskCache {
		disk, cacheErr := driver.OpenDiskCache("callcheck")
		if cacheErr != nil {
			if !settings.quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: disk cache disabled: %v\n", cacheErr)
			}
		} else {
			// 0: размер по умолчанию драйвера
			cache, lruErr := driver.NewResultCache(0, disk)
			if lruErr != nil {
				return lruErr
			}
			opts.Cache = cache
		}
	}

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "check", 0).WithExtra("target", target)
	ctx = trace.WithSpan(ctx, span)
	defer dumpTraceOnPanic()

	var (
		reports []diagfmt.FileReport
		results []*driver.Result
		timer   *observ.Timer
		baseDir string
	)
	out := cmd.OutOrStdout()

	if st, statErr := os.Stat(target); statErr == nil && st.IsDir() {
		baseDir = target
		var dirRes *driver.DirResult
		if shouldUseTUI(settings.ui, settings.format == diagfmt.FormatJSON) {
			files, listErr := driver.ListIRFiles(target)
			if listErr != nil {
				span.End("error")
				return listErr
			}
			dirRes, err = runCheckDirWithUI(ctx, target, files, opts)
		} else {
			dirRes, err = driver.CheckDir(ctx, target, opts)
		}
		if err != nil {
			span.End("error")
			return err
		}
		if len(dirRes.Files) == 0 && !settings.quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "no %s files in %s\n", driver.IRExt, target)
		}
		results = dirRes.Files
		timer = dirRes.Timer()
		for _, res := range results {
			reports = append(reports, fileReport(res))
		}
		if err := diagfmt.Write(out, settings.format, reports, settings.outputOpts(baseDir)); err != nil {
			span.End("error")
			return err
		}
	} else {
		baseDir = filepath.Dir(target)
		// текстовый формат печатает находки сразу, по мере проверки
		var stream *diagfmt.StreamReporter
		if settings.format == diagfmt.FormatText {
			stream = diagfmt.NewStreamReporter(out)
			opts.Reporter = &limitReporter{r: stream, max: settings.maxDiagnostics}
		}
		res, checkErr := driver.Check(ctx, target, opts)
		if checkErr != nil {
			span.End("error")
			return checkErr
		}
		results = []*driver.Result{res}
		timer = res.Timer
		report := fileReport(res)
		reports = []diagfmt.FileReport{report}
		if stream != nil {
			if err := stream.Err(); err != nil {
				span.End("error")
				return err
			}
			err = diagfmt.TextReport(out, report)
		} else {
			err = diagfmt.Write(out, settings.format, reports, settings.outputOpts(baseDir))
		}
		if err != nil {
			span.End("error")
			return err
		}
	}

	if settings.format == diagfmt.FormatText {
		// stdout остаётся чистым потоком находок, счёт отброшенных идёт в stderr
		writeDroppedNotices(cmd.ErrOrStderr(), results, settings.maxDiagnostics)
	}

	if settings.record != "" {
		if err := recordResults(cmd, settings.record, results, settings.quiet); err != nil {
			span.End("error")
			return err
		}
	}
	if settings.timings {
		if err := printTimings(cmd.ErrOrStderr(), timer); err != nil {
			return err
		}
	}

	hasErrors := false
	for _, res := range results {
		if res.HasErrors() {
			hasErrors = true
			break
		}
	}
	span.WithExtra("files", fmt.Sprint(len(results))).End("")
	if hasErrors {
		return errFindings
	}
	return nil
}

// writeDroppedNotices reports files whose findings were cut by the limit.
func writeDroppedNotices(w io.Writer, results []*driver.Result, max int) {
	for _, res := range results {
		if res == nil || res.Bag == nil || res.Bag.Dropped() == 0 {
			continue
		}
		fmt.Fprintf(w, "note: %s: %d more diagnostics not shown (--max-diagnostics=%d)\n",
			res.Path, res.Bag.Dropped(), max)
	}
}

func fileReport(res *driver.Result) diagfmt.FileReport {
	return diagfmt.FileReport{
		Path:      res.Path,
		Parsed:    res.Parsed,
		Bag:       res.Bag,
		Functions: res.Functions,
	}
}

// limitReporter stops forwarding after max diagnostics, mirroring the Bag
// limit for streamed output. Observations do not count.
type limitReporter struct {
	r   diag.Reporter
	max int
	n   int
}

func (l *limitReporter) Report(d diag.Diagnostic) {
	if d.Code == diag.ObsTimings {
		l.r.Report(d)
		return
	}
	if l.max > 0 && l.n >= l.max {
		return
	}
	l.n++
	l.r.Report(d)
}
